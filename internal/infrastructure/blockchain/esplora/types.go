package esplora

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// txItem is an entry of a scripthash history as esplora returns it.
type txItem struct {
	Txid   string   `json:"txid"`
	Status txStatus `json:"status"`
}

// txStatus is the confirmation status of a transaction.
type txStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   uint32 `json:"block_time"`
}

func (s txStatus) height() *uint32 {
	if !s.Confirmed {
		return nil
	}
	height := s.BlockHeight
	return &height
}

func parseTxItems(body string) ([]txItem, error) {
	items := make([]txItem, 0)
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func parseTxStatus(body string) (*txStatus, error) {
	status := &txStatus{}
	if err := json.Unmarshal([]byte(body), status); err != nil {
		return nil, err
	}
	return status, nil
}

// scriptHash returns the esplora identifier of an output script, the hex
// encoded sha256 of the script bytes.
func scriptHash(script []byte) string {
	hash := sha256.Sum256(script)
	return hex.EncodeToString(hash[:])
}
