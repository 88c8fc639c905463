package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tdex-network/liquid-wallet/pkg/unblinder"
)

// TxoKey is the outpoint identifying a transaction output.
type TxoKey struct {
	TxID string `json:"txid"`
	VOut uint32 `json:"vout"`
}

func (k TxoKey) String() string {
	return fmt.Sprintf("%s:%d", k.TxID, k.VOut)
}

// Txo is a transaction output the wallet owns, along with its unblinded
// secrets and its spend status. A txo is never deleted: once spent it is
// excluded from the spendable set but kept for history.
type Txo struct {
	TxID            string             `json:"txid"`
	VOut            uint32             `json:"vout"`
	Script          []byte             `json:"script"`
	Secrets         *unblinder.Secrets `json:"secrets"`
	SpentBy         string             `json:"spentBy,omitempty"`
	LockedBy        *uuid.UUID         `json:"lockedBy,omitempty"`
	ValueCommitment []byte             `json:"valueCommitment,omitempty"`
	AssetCommitment []byte             `json:"assetCommitment,omitempty"`
	Nonce           []byte             `json:"nonce,omitempty"`
	RangeProof      []byte             `json:"rangeProof,omitempty"`
	SurjectionProof []byte             `json:"surjectionProof,omitempty"`
}

// Key returns the outpoint of the txo.
func (t *Txo) Key() TxoKey {
	return TxoKey{TxID: t.TxID, VOut: t.VOut}
}

// IsSpent returns whether a transaction spending the txo has been observed.
// The spender may have been dropped from the best chain since, so the
// visibility of the spending tx must be checked by the caller.
func (t *Txo) IsSpent() bool {
	return t.SpentBy != ""
}

// IsConfidential returns whether the output was blinded on the wire.
func (t *Txo) IsConfidential() bool {
	return len(t.RangeProof) > 0
}

// IsLocked returns whether the txo is reserved by an in-flight transaction
// build session.
func (t *Txo) IsLocked() bool {
	return t.LockedBy != nil
}

// Lock reserves the txo for the given session. Locking an already locked txo
// is allowed only for the same session.
func (t *Txo) Lock(sessionID *uuid.UUID) error {
	if t.IsLocked() {
		if t.LockedBy.String() != sessionID.String() {
			return ErrTxoAlreadyLocked
		}
		return nil
	}
	t.LockedBy = sessionID
	return nil
}

// Unlock releases the txo reservation.
func (t *Txo) Unlock() {
	t.LockedBy = nil
}
