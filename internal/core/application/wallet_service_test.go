package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/liquid-wallet/internal/core/application"
	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/internal/core/ports"
	"github.com/tdex-network/liquid-wallet/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/testutil"
	"github.com/vulpemventures/go-elements/network"
)

var lbtc = network.Regtest.AssetID

// stubBackend serves canned updates and records broadcasts.
type stubBackend struct {
	update      *domain.Update
	lastRequest *ports.ScanRequest
	broadcasted []string
}

func (b *stubBackend) Scan(
	_ context.Context, req ports.ScanRequest,
) (*domain.Update, error) {
	b.lastRequest = &req
	if b.update == nil {
		return &domain.Update{Tip: domain.BlockTip{Height: 1, Hash: testutil.RandomBlockHash()}}, nil
	}
	return b.update, nil
}

func (b *stubBackend) Broadcast(_ context.Context, txHex string) (string, error) {
	b.broadcasted = append(b.broadcasted, txHex)
	return testutil.RandomTxID(), nil
}

func (b *stubBackend) Close() {}

func newTestService(
	t *testing.T, backend *stubBackend, repo ports.KVStore,
) application.WalletService {
	t.Helper()
	svc, err := application.NewWalletService(application.WalletServiceOpts{
		Descriptor:  testutil.SingleSigDescriptor(),
		Backend:     backend,
		Repo:        repo,
		Network:     &network.Regtest,
		GapLimit:    20,
		DustAmount:  450,
		MsatPerByte: 100,
	})
	require.NoError(t, err)
	return svc
}

// fundingUpdate builds an update paying amount to the wallet's first
// external script at height 100.
func fundingUpdate(t *testing.T, amount uint64) *domain.Update {
	t.Helper()
	desc, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)
	script, blindingPubkey, err := desc.DeriveScript(0, descriptor.External)
	require.NoError(t, err)

	_, txHex, err := testutil.NewExplicitTx(
		[]testutil.TxIn{{TxID: testutil.RandomTxID(), VOut: 0}},
		[]testutil.TxOut{
			{Asset: lbtc, Value: amount, Script: script},
			{Asset: lbtc, Value: 26},
		},
	)
	require.NoError(t, err)

	return &domain.Update{
		Tip: domain.BlockTip{Height: 100, Hash: testutil.RandomBlockHash()},
		Txs: []domain.TxEntry{{
			TxHex:     txHex,
			Height:    testutil.Uint32Ptr(100),
			Timestamp: 1700000000,
		}},
		RevealedScripts: []domain.ScriptReveal{{
			Chain:          descriptor.External,
			Index:          0,
			Script:         script,
			BlindingPubkey: blindingPubkey.SerializeCompressed(),
		}},
	}
}

func TestSyncAndBalance(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{update: fundingUpdate(t, 1000000)}
	repo := inmemory.NewKVStore()
	svc := newTestService(t, backend, repo)

	addr, index, err := svc.Address(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, addr)
	require.Equal(t, uint32(0), index)

	summary, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, summary.NewTxids, 1)

	// the backend was handed the full watched script range
	require.NotNil(t, backend.lastRequest)
	require.Len(t, backend.lastRequest.Scripts[descriptor.External], 20)

	balance, err := svc.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1000000), balance[lbtc])

	// receiving funds moves the fresh address forward
	_, index, err = svc.Address(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), index)

	tip, err := svc.Tip(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(100), tip.Height)
}

func TestSyncToIndex(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{}
	svc := newTestService(t, backend, nil)

	_, err := svc.SyncToIndex(ctx, map[descriptor.Chain]uint32{
		descriptor.External: 50,
	})
	require.NoError(t, err)

	// the forced range wins over the gap heuristic, internal stays at the gap
	require.Len(t, backend.lastRequest.Scripts[descriptor.External], 50)
	require.Len(t, backend.lastRequest.Scripts[descriptor.Internal], 20)
	require.Equal(t, uint32(50), backend.lastRequest.ToIndex[descriptor.External])
}

func TestInMemoryOnlyWallet(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{update: fundingUpdate(t, 5000)}

	// without storage the wallet works, it just forgets on restart
	svc := newTestService(t, backend, nil)
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	balance, err := svc.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), balance[lbtc])
}

func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{update: fundingUpdate(t, 250000)}
	repo := inmemory.NewKVStore()

	svc := newTestService(t, backend, repo)
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	// a second service over the same repo starts from the persisted state
	restarted := newTestService(t, &stubBackend{}, repo)
	balance, err := restarted.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(250000), balance[lbtc])

	txs, err := restarted.Transactions(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestBroadcastReleasesLockedTxos(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{update: fundingUpdate(t, 1000000)}
	svc := newTestService(t, backend, inmemory.NewKVStore())
	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	recipient, err := svc.AddressAt(ctx, descriptor.External, 7)
	require.NoError(t, err)

	unsigned, err := svc.NewTransaction().
		AddRecipient(lbtc, 100000, recipient).
		Finish()
	require.NoError(t, err)
	require.Len(t, unsigned.SelectedTxos, 1)

	// the selected coins are locked, a second build has nothing to spend
	_, err = svc.NewTransaction().
		AddRecipient(lbtc, 100000, recipient).
		Finish()
	require.ErrorIs(t, err, application.ErrInsufficientFunds)

	_, err = svc.Broadcast(ctx, "deadbeef", unsigned.SelectedTxos)
	require.NoError(t, err)
	require.Len(t, backend.broadcasted, 1)

	// locks are gone after broadcast
	_, err = svc.NewTransaction().
		AddRecipient(lbtc, 100000, recipient).
		Finish()
	require.NoError(t, err)
}
