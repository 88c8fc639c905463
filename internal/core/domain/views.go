package domain

import (
	"bytes"
	"sort"

	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/vulpemventures/go-elements/transaction"
)

// Utxo is the projected view of a spendable wallet output.
type Utxo struct {
	TxoKey
	Asset  string
	Value  uint64
	Script []byte
	Height *uint32
}

// Balance returns the confirmed-plus-unconfirmed wallet balance per asset,
// computed from unspent visible txos only.
func (s *Store) Balance() map[string]uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	balance := make(map[string]uint64)
	for _, txo := range s.txos {
		if !s.isUnspentVisible(txo) {
			continue
		}
		balance[txo.Secrets.AssetHash] += txo.Secrets.Value
	}
	return balance
}

// Utxos returns the unspent visible outputs of the wallet, spendable or
// locked alike, sorted by decreasing value with outpoint as tie-break.
func (s *Store) Utxos() []Utxo {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	utxos := make([]Utxo, 0, len(s.txos))
	for _, txo := range s.txos {
		if !s.isUnspentVisible(txo) {
			continue
		}
		utxos = append(utxos, Utxo{
			TxoKey: txo.Key(),
			Asset:  txo.Secrets.AssetHash,
			Value:  txo.Secrets.Value,
			Script: txo.Script,
			Height: s.txs[txo.TxID].Height,
		})
	}
	sortUtxos(utxos)
	return utxos
}

// SpendableTxos returns the unspent visible outputs not reserved by any
// build session, the input set coin selection picks from.
func (s *Store) SpendableTxos() []*Txo {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	txos := make([]*Txo, 0, len(s.txos))
	for _, txo := range s.txos {
		if !s.isUnspentVisible(txo) || txo.IsLocked() {
			continue
		}
		clone := *txo
		txos = append(txos, &clone)
	}
	return txos
}

// Tx returns the projected details of a single wallet transaction.
func (s *Store) Tx(txid string) (*TxDetails, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tx, ok := s.txs[txid]
	if !ok || tx.Dropped {
		return nil, ErrTxNotFound
	}
	return s.txDetails(tx), nil
}

// Transactions returns the visible wallet history, unconfirmed transactions
// first, then by descending block height. limit zero means no limit.
func (s *Store) Transactions(limit, offset int) []*TxDetails {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	txs := make([]*WalletTx, 0, len(s.txs))
	for _, tx := range s.txs {
		if !tx.Dropped {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		ti, tj := txs[i], txs[j]
		if ti.IsConfirmed() != tj.IsConfirmed() {
			return !ti.IsConfirmed()
		}
		if ti.IsConfirmed() && *ti.Height != *tj.Height {
			return *ti.Height > *tj.Height
		}
		return ti.Seq < tj.Seq
	})

	if offset >= len(txs) {
		return nil
	}
	txs = txs[offset:]
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}

	details := make([]*TxDetails, 0, len(txs))
	for _, tx := range txs {
		details = append(details, s.txDetails(tx))
	}
	return details
}

// isUnspentVisible reports whether a txo counts toward balance: its own
// transaction is visible and no visible transaction spends it. A spender
// dropped from the best chain makes the txo spendable again.
func (s *Store) isUnspentVisible(txo *Txo) bool {
	if tx, ok := s.txs[txo.TxID]; !ok || tx.Dropped {
		return false
	}
	if !txo.IsSpent() {
		return true
	}
	spender, ok := s.txs[txo.SpentBy]
	return !ok || spender.Dropped
}

// txDetails computes the per-asset net movement, the network fee and the
// classification of a transaction. Callers must hold at least the read lock.
func (s *Store) txDetails(tx *WalletTx) *TxDetails {
	details := &TxDetails{
		TxID:        tx.TxID,
		TxHex:       tx.TxHex,
		Height:      tx.Height,
		Timestamp:   tx.Timestamp,
		NetBalances: make(map[string]int64),
		Type:        TxTypeUnknown,
	}
	decoded, ok := s.decoded[tx.TxID]
	if !ok {
		return details
	}

	feeAsset := ""
	for _, out := range decoded.Outputs {
		if len(out.Script) > 0 {
			continue
		}
		if bufferutil.IsExplicitValue(out.Value) && bufferutil.IsExplicitAsset(out.Asset) {
			details.Fee += bufferutil.ValueFromBytes(out.Value)
			feeAsset = bufferutil.AssetHashFromBytes(out.Asset)
		}
	}
	for vout := range decoded.Outputs {
		key := TxoKey{TxID: tx.TxID, VOut: uint32(vout)}
		if txo, ok := s.txos[key.String()]; ok {
			details.NetBalances[txo.Secrets.AssetHash] += int64(txo.Secrets.Value)
		}
	}
	for _, in := range decoded.Inputs {
		key := TxoKey{TxID: bufferutil.TxIDFromBytes(in.Hash), VOut: in.Index}
		if txo, ok := s.txos[key.String()]; ok {
			details.NetBalances[txo.Secrets.AssetHash] -= int64(txo.Secrets.Value)
		}
	}

	details.Type = classifyTx(decoded, details, feeAsset)
	return details
}

func classifyTx(tx *transaction.Transaction, details *TxDetails, feeAsset string) string {
	for _, in := range tx.Inputs {
		if in.Issuance == nil {
			continue
		}
		if isReissuance(in.Issuance) {
			return TxTypeReissuance
		}
		return TxTypeIssuance
	}
	for _, out := range tx.Outputs {
		if len(out.Script) > 0 && out.Script[0] == opReturn {
			return TxTypeBurn
		}
	}

	positives, negatives := 0, 0
	for _, net := range details.NetBalances {
		if net > 0 {
			positives++
		}
		if net < 0 {
			negatives++
		}
	}
	switch {
	case negatives == 1 && positives == 0 &&
		details.NetBalances[feeAsset] == -int64(details.Fee):
		return TxTypeRedeposit
	case positives > 0 && negatives == 0:
		return TxTypeIncoming
	case negatives > 0:
		return TxTypeOutgoing
	default:
		return TxTypeUnknown
	}
}

const opReturn = 0x6a

func isReissuance(issuance *transaction.TxIssuance) bool {
	return !bytes.Equal(issuance.AssetBlindingNonce, make([]byte, 32))
}

func sortUtxos(utxos []Utxo) {
	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].Value != utxos[j].Value {
			return utxos[i].Value > utxos[j].Value
		}
		if utxos[i].TxID != utxos[j].TxID {
			return utxos[i].TxID < utxos[j].TxID
		}
		return utxos[i].VOut < utxos[j].VOut
	})
}
