package domain

import (
	"encoding/hex"

	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
)

// BlockTip is the height and hash of the best block known to the backend at
// the time an update was produced.
type BlockTip struct {
	Height uint32 `json:"height"`
	Hash   string `json:"hash"`
}

// TxEntry is a new or changed transaction inside an update. TxHex may be
// empty for a pure confirmation-status change of a transaction the store
// already holds. A nil Height means unconfirmed.
type TxEntry struct {
	TxID      string  `json:"txid"`
	TxHex     string  `json:"txHex,omitempty"`
	Height    *uint32 `json:"height,omitempty"`
	Timestamp uint32  `json:"timestamp,omitempty"`
}

// ScriptReveal extends the wallet's scanned script range with a script the
// backend derived (or was told) at the given coordinates.
type ScriptReveal struct {
	Chain          descriptor.Chain `json:"chain"`
	Index          uint32           `json:"index"`
	Script         []byte           `json:"script"`
	BlindingPubkey []byte           `json:"blindingPubkey,omitempty"`
}

// Update is the atomic batch of blockchain facts produced by one backend
// scan. Applying the same update twice is a no-op; applying an update with a
// shorter best chain retracts confirmations (reorg).
type Update struct {
	Tip             BlockTip       `json:"tip"`
	Txs             []TxEntry      `json:"txs"`
	DeletedTxids    []string       `json:"deletedTxids,omitempty"`
	RevealedScripts []ScriptReveal `json:"revealedScripts,omitempty"`
}

// IsEmpty returns whether the update carries only a tip change.
func (u *Update) IsEmpty() bool {
	return len(u.Txs) == 0 && len(u.DeletedTxids) == 0 &&
		len(u.RevealedScripts) == 0
}

// Validate performs the structural checks that do not require decoding
// transactions. Full validation happens inside Store.ApplyUpdate.
func (u *Update) Validate() error {
	for _, entry := range u.Txs {
		if entry.TxID == "" && entry.TxHex == "" {
			return ErrMalformedUpdate
		}
		if entry.TxID != "" && !isHexHash(entry.TxID) {
			return ErrMalformedUpdate
		}
	}
	for _, txid := range u.DeletedTxids {
		if !isHexHash(txid) {
			return ErrMalformedUpdate
		}
	}
	for _, reveal := range u.RevealedScripts {
		if len(reveal.Script) == 0 {
			return ErrMalformedUpdate
		}
		if reveal.Chain != descriptor.External && reveal.Chain != descriptor.Internal {
			return ErrMalformedUpdate
		}
	}
	return nil
}

func isHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
