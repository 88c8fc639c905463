package domain

// Transaction type classification, derived from the per-asset net balances
// and from issuance/burn markers on the wire transaction.
const (
	TxTypeIncoming   = "incoming"
	TxTypeOutgoing   = "outgoing"
	TxTypeRedeposit  = "redeposit"
	TxTypeIssuance   = "issuance"
	TxTypeReissuance = "reissuance"
	TxTypeBurn       = "burn"
	TxTypeUnknown    = "unknown"
)

// WalletTx is a transaction relevant to the wallet: either it moves wallet
// funds or it is the prevout source of one that does. Once recorded it is
// never deleted, only dropped from the visible set when the backend evicts
// it from the best chain.
type WalletTx struct {
	TxID      string  `json:"txid"`
	TxHex     string  `json:"txHex"`
	Height    *uint32 `json:"height,omitempty"`
	Timestamp uint32  `json:"timestamp,omitempty"`
	// Seq is the insertion order, the stable tie-break for same-height
	// transaction listing.
	Seq     uint64 `json:"seq"`
	Dropped bool   `json:"dropped,omitempty"`
}

// IsConfirmed returns whether the transaction is included in a block.
func (t *WalletTx) IsConfirmed() bool {
	return t.Height != nil
}

// Confirm records the inclusion of the transaction in a block.
func (t *WalletTx) Confirm(height uint32, timestamp uint32) {
	t.Height = &height
	if timestamp > 0 {
		t.Timestamp = timestamp
	}
}

// Unconfirm puts the transaction back to the mempool state, typically after
// a reorg. Unblinded data is not touched so balances stay correct if the
// transaction is confirmed again later.
func (t *WalletTx) Unconfirm() {
	t.Height = nil
}

// Drop hides the transaction from all projections while keeping it recorded
// for auditability.
func (t *WalletTx) Drop() {
	t.Dropped = true
	t.Height = nil
}

// Restore makes a dropped transaction visible again, used when the backend
// reports it anew after an eviction.
func (t *WalletTx) Restore() {
	t.Dropped = false
}

// TxDetails is the projected view of a wallet transaction: the per-asset net
// movement of wallet funds, the network fee and the classification.
type TxDetails struct {
	TxID        string
	TxHex       string
	Height      *uint32
	Timestamp   uint32
	Fee         uint64
	NetBalances map[string]int64
	Type        string
}

// IsConfirmed returns whether the transaction is included in a block.
func (t *TxDetails) IsConfirmed() bool {
	return t.Height != nil
}
