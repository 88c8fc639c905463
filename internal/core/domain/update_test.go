package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/testutil"
)

func TestUpdateValidate(t *testing.T) {
	valid := &domain.Update{
		Tip: domain.BlockTip{Height: 10, Hash: testutil.RandomBlockHash()},
		Txs: []domain.TxEntry{
			{TxID: testutil.RandomTxID(), Height: testutil.Uint32Ptr(10)},
		},
		DeletedTxids: []string{testutil.RandomTxID()},
		RevealedScripts: []domain.ScriptReveal{{
			Chain:  descriptor.External,
			Script: testutil.RandomP2WPKHScript(),
		}},
	}
	require.NoError(t, valid.Validate())
	require.False(t, valid.IsEmpty())
	require.True(t, (&domain.Update{Tip: valid.Tip}).IsEmpty())

	tests := []struct {
		name   string
		update *domain.Update
	}{
		{
			name:   "tx entry without txid nor hex",
			update: &domain.Update{Txs: []domain.TxEntry{{}}},
		},
		{
			name:   "tx entry with bad txid",
			update: &domain.Update{Txs: []domain.TxEntry{{TxID: "beef"}}},
		},
		{
			name:   "deleted txid not a hash",
			update: &domain.Update{DeletedTxids: []string{"nope"}},
		},
		{
			name: "reveal without script",
			update: &domain.Update{
				RevealedScripts: []domain.ScriptReveal{{Chain: descriptor.External}},
			},
		},
		{
			name: "reveal with unknown chain",
			update: &domain.Update{
				RevealedScripts: []domain.ScriptReveal{{
					Chain:  descriptor.Chain(7),
					Script: testutil.RandomP2WPKHScript(),
				}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.update.Validate(), domain.ErrMalformedUpdate)
		})
	}
}
