package unblinder_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/tdex-network/liquid-wallet/pkg/testutil"
	"github.com/tdex-network/liquid-wallet/pkg/unblinder"
	"github.com/vulpemventures/go-elements/transaction"
)

func explicitOutput(t *testing.T, asset string, value uint64) *transaction.TxOutput {
	assetBytes, err := bufferutil.AssetHashToBytes(asset)
	require.NoError(t, err)
	valueBytes, err := bufferutil.ValueToBytes(value)
	require.NoError(t, err)
	return transaction.NewTxOutput(assetBytes, valueBytes, testutil.RandomP2WPKHScript())
}

func confidentialOutput(script []byte) *transaction.TxOutput {
	out := transaction.NewTxOutput(
		append([]byte{0x0a}, make([]byte, 32)...),
		append([]byte{0x08}, make([]byte, 32)...),
		script,
	)
	out.Nonce = append([]byte{0x02}, make([]byte, 32)...)
	out.RangeProof = make([]byte, 64)
	out.SurjectionProof = make([]byte, 64)
	return out
}

func TestUnblindExplicitOutput(t *testing.T) {
	out := explicitOutput(t, testutil.LbtcRegtest, 100000)

	secrets, err := unblinder.UnblindOutput(out, nil)
	require.NoError(t, err)
	require.Equal(t, testutil.LbtcRegtest, secrets.AssetHash)
	require.Equal(t, uint64(100000), secrets.Value)
	require.Empty(t, secrets.AssetBlinder)
	require.Empty(t, secrets.ValueBlinder)
}

func TestUnblindConfidentialOutputWithWrongKey(t *testing.T) {
	out := confidentialOutput(testutil.RandomP2WPKHScript())

	key, err := hex.DecodeString(testutil.BlindingKey)
	require.NoError(t, err)

	_, err = unblinder.UnblindOutput(out, key)
	require.ErrorIs(t, err, unblinder.ErrUnblindFailed)
}

func TestUnblindWithNilKey(t *testing.T) {
	out := confidentialOutput(testutil.RandomP2WPKHScript())

	_, err := unblinder.UnblindOutput(out, nil)
	require.ErrorIs(t, err, unblinder.ErrUnblindFailed)
}

func TestUnblindOutputWithKeys(t *testing.T) {
	out := explicitOutput(t, testutil.LbtcRegtest, 42)

	// explicit outputs open regardless of the candidate keys
	secrets, err := unblinder.UnblindOutputWithKeys(out, [][]byte{nil})
	require.NoError(t, err)
	require.Equal(t, uint64(42), secrets.Value)

	blinded := confidentialOutput(testutil.RandomP2WPKHScript())
	key, err := hex.DecodeString(testutil.BlindingKey)
	require.NoError(t, err)
	_, err = unblinder.UnblindOutputWithKeys(blinded, [][]byte{nil, key})
	require.ErrorIs(t, err, unblinder.ErrUnblindFailed)
}

func TestIsConfidential(t *testing.T) {
	require.False(t, unblinder.IsConfidential(
		explicitOutput(t, testutil.LbtcRegtest, 1000),
	))
	require.True(t, unblinder.IsConfidential(
		confidentialOutput(testutil.RandomP2WPKHScript()),
	))
}
