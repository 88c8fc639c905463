package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/testutil"
	"github.com/vulpemventures/go-elements/transaction"
)

const lbtc = testutil.LbtcRegtest

func newTestStore(t *testing.T) *domain.Store {
	t.Helper()
	desc, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)
	return domain.NewStore(desc)
}

func revealAt(
	t *testing.T, s *domain.Store, chain descriptor.Chain, index uint32,
) (domain.ScriptReveal, []byte) {
	t.Helper()
	script, blindingPubkey, err := s.Descriptor().DeriveScript(index, chain)
	require.NoError(t, err)
	return domain.ScriptReveal{
		Chain:          chain,
		Index:          index,
		Script:         script,
		BlindingPubkey: blindingPubkey.SerializeCompressed(),
	}, script
}

// fundWallet applies an update paying the given amount to the first external
// script at tip height 100 and returns the funding txid.
func fundWallet(t *testing.T, s *domain.Store, amount uint64) string {
	t.Helper()
	reveal, script := revealAt(t, s, descriptor.External, 0)

	tx, txHex, err := testutil.NewExplicitTx(
		[]testutil.TxIn{{TxID: testutil.RandomTxID(), VOut: 0}},
		[]testutil.TxOut{
			{Asset: lbtc, Value: amount, Script: script},
			{Asset: lbtc, Value: 26},
		},
	)
	require.NoError(t, err)

	summary, err := s.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 100, Hash: testutil.RandomBlockHash()},
		Txs: []domain.TxEntry{{
			TxHex:     txHex,
			Height:    testutil.Uint32Ptr(100),
			Timestamp: 1700000000,
		}},
		RevealedScripts: []domain.ScriptReveal{reveal},
	})
	require.NoError(t, err)
	require.Len(t, summary.NewTxids, 1)
	return tx.TxHash().String()
}

// spendWallet spends the whole funding txo: recipient gets sent, the change
// goes to the first internal script, fee is the difference.
func spendWallet(
	t *testing.T, s *domain.Store, fundingTxid string, funded, sent, fee uint64,
) string {
	t.Helper()
	reveal, changeScript := revealAt(t, s, descriptor.Internal, 0)

	tx, txHex, err := testutil.NewExplicitTx(
		[]testutil.TxIn{{TxID: fundingTxid, VOut: 0}},
		[]testutil.TxOut{
			{Asset: lbtc, Value: sent, Script: testutil.RandomP2WPKHScript()},
			{Asset: lbtc, Value: funded - sent - fee, Script: changeScript},
			{Asset: lbtc, Value: fee},
		},
	)
	require.NoError(t, err)

	summary, err := s.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 101, Hash: testutil.RandomBlockHash()},
		Txs: []domain.TxEntry{{
			TxHex:     txHex,
			Height:    testutil.Uint32Ptr(101),
			Timestamp: 1700000060,
		}},
		RevealedScripts: []domain.ScriptReveal{reveal},
	})
	require.NoError(t, err)
	require.Len(t, summary.NewTxids, 1)
	require.Len(t, summary.SpentTxos, 1)
	return tx.TxHash().String()
}

func TestReceive(t *testing.T) {
	store := newTestStore(t)
	txid := fundWallet(t, store, 1000000)

	require.Equal(t, uint64(1000000), store.Balance()[lbtc])
	require.Equal(t, uint32(100), store.Tip().Height)
	require.Equal(t, uint32(1), store.LastUnused(descriptor.External))

	utxos := store.Utxos()
	require.Len(t, utxos, 1)
	require.Equal(t, txid, utxos[0].TxID)
	require.Equal(t, uint64(1000000), utxos[0].Value)

	details, err := store.Tx(txid)
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeIncoming, details.Type)
	require.Equal(t, uint64(26), details.Fee)
	require.Equal(t, int64(1000000), details.NetBalances[lbtc])
	require.True(t, details.IsConfirmed())
}

func TestReapplyingUpdateIsNoop(t *testing.T) {
	store := newTestStore(t)
	reveal, script := revealAt(t, store, descriptor.External, 0)
	_, txHex, err := testutil.NewExplicitTx(
		[]testutil.TxIn{{TxID: testutil.RandomTxID(), VOut: 0}},
		[]testutil.TxOut{
			{Asset: lbtc, Value: 5000, Script: script},
			{Asset: lbtc, Value: 30},
		},
	)
	require.NoError(t, err)

	update := &domain.Update{
		Tip:             domain.BlockTip{Height: 42, Hash: testutil.RandomBlockHash()},
		Txs:             []domain.TxEntry{{TxHex: txHex, Height: testutil.Uint32Ptr(42)}},
		RevealedScripts: []domain.ScriptReveal{reveal},
	}
	first, err := store.ApplyUpdate(update)
	require.NoError(t, err)
	require.False(t, first.IsEmpty())

	second, err := store.ApplyUpdate(update)
	require.NoError(t, err)
	require.True(t, second.IsEmpty())
	require.Equal(t, uint64(5000), store.Balance()[lbtc])
	require.Len(t, store.Utxos(), 1)
}

func TestSendWithChange(t *testing.T) {
	store := newTestStore(t)
	fundingTxid := fundWallet(t, store, 1000000)
	spendTxid := spendWallet(t, store, fundingTxid, 1000000, 100000, 26)

	require.Equal(t, uint64(899974), store.Balance()[lbtc])
	require.Equal(t, uint32(1), store.LastUnused(descriptor.Internal))

	utxos := store.Utxos()
	require.Len(t, utxos, 1)
	require.Equal(t, spendTxid, utxos[0].TxID)
	require.Equal(t, uint64(899974), utxos[0].Value)

	history := store.Transactions(0, 0)
	require.Len(t, history, 2)
	require.Equal(t, spendTxid, history[0].TxID)
	require.Equal(t, fundingTxid, history[1].TxID)

	details, err := store.Tx(spendTxid)
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeOutgoing, details.Type)
	require.Equal(t, uint64(26), details.Fee)
	require.Equal(t, int64(-100026), details.NetBalances[lbtc])
}

func TestTransactionsPagination(t *testing.T) {
	store := newTestStore(t)
	fundingTxid := fundWallet(t, store, 1000000)
	spendTxid := spendWallet(t, store, fundingTxid, 1000000, 100000, 26)

	page := store.Transactions(1, 0)
	require.Len(t, page, 1)
	require.Equal(t, spendTxid, page[0].TxID)

	page = store.Transactions(1, 1)
	require.Len(t, page, 1)
	require.Equal(t, fundingTxid, page[0].TxID)

	require.Nil(t, store.Transactions(10, 2))
}

func TestStaleUpdate(t *testing.T) {
	store := newTestStore(t)
	fundWallet(t, store, 1000)

	_, err := store.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 98, Hash: testutil.RandomBlockHash()},
	})
	require.ErrorIs(t, err, domain.ErrStaleUpdate)
	require.Equal(t, uint32(100), store.Tip().Height)
}

func TestReorgRetractsConfirmations(t *testing.T) {
	store := newTestStore(t)
	txid := fundWallet(t, store, 1000000)

	summary, err := store.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 99, Hash: testutil.RandomBlockHash()},
	})
	require.NoError(t, err)
	require.Contains(t, summary.ReorgedTxids, txid)

	details, err := store.Tx(txid)
	require.NoError(t, err)
	require.False(t, details.IsConfirmed())
	// unblinded data survives the retraction
	require.Equal(t, uint64(1000000), store.Balance()[lbtc])

	// the tx confirms again in the replacing block
	summary, err = store.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 99, Hash: store.Tip().Hash},
		Txs: []domain.TxEntry{{TxID: txid, Height: testutil.Uint32Ptr(99)}},
	})
	require.NoError(t, err)
	require.Contains(t, summary.ConfirmedTxids, txid)

	details, err = store.Tx(txid)
	require.NoError(t, err)
	require.True(t, details.IsConfirmed())
	require.Equal(t, uint32(99), *details.Height)
}

func TestSameHeightDifferentHashIsReorg(t *testing.T) {
	store := newTestStore(t)
	txid := fundWallet(t, store, 1000)

	summary, err := store.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 100, Hash: testutil.RandomBlockHash()},
	})
	require.NoError(t, err)
	require.Contains(t, summary.ReorgedTxids, txid)
}

func TestDroppedSpenderFreesTxo(t *testing.T) {
	store := newTestStore(t)
	fundingTxid := fundWallet(t, store, 1000000)
	spendTxid := spendWallet(t, store, fundingTxid, 1000000, 100000, 26)

	summary, err := store.ApplyUpdate(&domain.Update{
		Tip:          domain.BlockTip{Height: 102, Hash: testutil.RandomBlockHash()},
		DeletedTxids: []string{spendTxid},
	})
	require.NoError(t, err)
	require.Contains(t, summary.DroppedTxids, spendTxid)

	require.Equal(t, uint64(1000000), store.Balance()[lbtc])
	require.Len(t, store.Transactions(0, 0), 1)

	utxos := store.Utxos()
	require.Len(t, utxos, 1)
	require.Equal(t, fundingTxid, utxos[0].TxID)

	_, err = store.Tx(spendTxid)
	require.ErrorIs(t, err, domain.ErrTxNotFound)
}

func TestMalformedUpdateLeavesStoreUntouched(t *testing.T) {
	store := newTestStore(t)
	fundWallet(t, store, 1000)

	mismatched, _ := revealAt(t, store, descriptor.External, 1)
	mismatched.Script = testutil.RandomP2WPKHScript()
	_, err := store.ApplyUpdate(&domain.Update{
		Tip:             domain.BlockTip{Height: 101, Hash: testutil.RandomBlockHash()},
		RevealedScripts: []domain.ScriptReveal{mismatched},
	})
	require.ErrorIs(t, err, domain.ErrMalformedUpdate)

	_, err = store.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 101, Hash: testutil.RandomBlockHash()},
		Txs: []domain.TxEntry{{TxHex: "not-a-transaction"}},
	})
	require.ErrorIs(t, err, domain.ErrMalformedUpdate)

	_, err = store.ApplyUpdate(&domain.Update{
		Tip: domain.BlockTip{Height: 101, Hash: testutil.RandomBlockHash()},
		Txs: []domain.TxEntry{{TxID: testutil.RandomTxID()}},
	})
	require.ErrorIs(t, err, domain.ErrMalformedUpdate)

	// nothing above must have landed, tip included
	require.Equal(t, uint32(100), store.Tip().Height)
	require.Equal(t, uint64(1000), store.Balance()[lbtc])
}

func TestCorruptUpdate(t *testing.T) {
	store := newTestStore(t)
	_, script := revealAt(t, store, descriptor.External, 0)
	reveal, _ := revealAt(t, store, descriptor.External, 0)

	// confidential output on an owned script with commitments that cannot be
	// opened with the wallet's blinding key
	tx := transaction.NewTx(2)
	prevHash, err := bufferutil.TxIDToBytes(testutil.RandomTxID())
	require.NoError(t, err)
	tx.AddInput(transaction.NewTxInput(prevHash, 0))
	out := transaction.NewTxOutput(
		append([]byte{0x0a}, make([]byte, 32)...),
		append([]byte{0x08}, make([]byte, 32)...),
		script,
	)
	out.Nonce = append([]byte{0x02}, make([]byte, 32)...)
	tx.AddOutput(out)
	txHex, err := tx.ToHex()
	require.NoError(t, err)

	_, err = store.ApplyUpdate(&domain.Update{
		Tip:             domain.BlockTip{Height: 100, Hash: testutil.RandomBlockHash()},
		Txs:             []domain.TxEntry{{TxHex: txHex}},
		RevealedScripts: []domain.ScriptReveal{reveal},
	})
	require.ErrorIs(t, err, domain.ErrCorruptUpdate)
	require.Empty(t, store.Balance())
	require.Empty(t, store.Transactions(0, 0))
}

func TestSnapshotRestore(t *testing.T) {
	store := newTestStore(t)
	fundingTxid := fundWallet(t, store, 1000000)
	spendWallet(t, store, fundingTxid, 1000000, 100000, 26)

	data, err := store.Snapshot()
	require.NoError(t, err)

	restored := newTestStore(t)
	require.NoError(t, restored.RestoreSnapshot(data))

	require.Equal(t, store.Tip(), restored.Tip())
	require.Equal(t, store.Balance(), restored.Balance())
	require.Equal(t, store.Utxos(), restored.Utxos())
	require.Equal(t, store.LastUnused(descriptor.External), restored.LastUnused(descriptor.External))
	require.Equal(t, store.LastUnused(descriptor.Internal), restored.LastUnused(descriptor.Internal))
	require.Len(t, restored.Transactions(0, 0), 2)
}

func TestLockTxos(t *testing.T) {
	store := newTestStore(t)
	txid := fundWallet(t, store, 1000000)
	key := domain.TxoKey{TxID: txid, VOut: 0}

	session := uuid.New()
	require.NoError(t, store.LockTxos([]domain.TxoKey{key}, session))
	require.Empty(t, store.SpendableTxos())

	// relocking from the same session is fine, another session is rejected
	require.NoError(t, store.LockTxos([]domain.TxoKey{key}, session))
	err := store.LockTxos([]domain.TxoKey{key}, uuid.New())
	require.ErrorIs(t, err, domain.ErrTxoAlreadyLocked)

	store.UnlockTxos([]domain.TxoKey{key})
	require.Len(t, store.SpendableTxos(), 1)

	err = store.LockTxos([]domain.TxoKey{{TxID: testutil.RandomTxID(), VOut: 3}}, session)
	require.ErrorIs(t, err, domain.ErrTxoNotFound)
}

func TestEnsureScripts(t *testing.T) {
	store := newTestStore(t)

	scripts, err := store.EnsureScripts(descriptor.External, 20)
	require.NoError(t, err)
	require.Len(t, scripts, 20)

	// shrinking never happens, extending is incremental
	scripts, err = store.EnsureScripts(descriptor.External, 5)
	require.NoError(t, err)
	require.Len(t, scripts, 20)

	scripts, err = store.EnsureScripts(descriptor.External, 25)
	require.NoError(t, err)
	require.Len(t, scripts, 25)
	for i, info := range scripts {
		require.Equal(t, uint32(i), info.Index)
		require.Equal(t, descriptor.External, info.Chain)
		require.NotEmpty(t, info.Script)
		require.Len(t, info.BlindingPubkey, 33)
	}
}
