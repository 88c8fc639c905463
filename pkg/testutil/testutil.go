// Package testutil provides fixtures shared by the wallet test suites:
// deterministic descriptors and synthetic explicit transactions.
package testutil

import (
	"fmt"

	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/thanhpk/randstr"
	"github.com/vulpemventures/go-elements/transaction"
)

// LbtcRegtest is the regtest policy (L-BTC) asset id.
const LbtcRegtest = "5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225"

// BlindingKey is a fixed SLIP-77 master blinding key for tests.
const BlindingKey = "9c8e4f05c7711a98c838be228bcb84924d4570ca53f35fa1c793e58841d47023"

// Xpubs are the BIP32 test vector master public keys.
var Xpubs = []string{
	"xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
	"xpub661MyMwAqRbcFW31YEwpkMuc5THy2PSt5bDMsktWQcFF8syAmRUapSCGu8ED9W6oDMSgv6Zz8idoc4a6mr8BDzTJY47LJhkJ8UB7WEGuduB",
}

// SingleSigDescriptor returns a checksum-less single-sig CT descriptor.
func SingleSigDescriptor() string {
	return fmt.Sprintf("ct(slip77(%s),elwpkh(%s/*))", BlindingKey, Xpubs[0])
}

// MultiSigDescriptor returns a checksum-less 2-of-2 CT descriptor.
func MultiSigDescriptor() string {
	return fmt.Sprintf(
		"ct(slip77(%s),elwsh(multi(2,%s/*,%s/*)))",
		BlindingKey, Xpubs[0], Xpubs[1],
	)
}

// RandomTxID returns a random transaction id in hex.
func RandomTxID() string {
	return randstr.Hex(32)
}

// RandomBlockHash returns a random block hash in hex.
func RandomBlockHash() string {
	return randstr.Hex(32)
}

// RandomP2WPKHScript returns a valid-shaped witness program paying nobody in
// particular, used as a foreign recipient script.
func RandomP2WPKHScript() []byte {
	return append([]byte{0x00, 0x14}, randstr.Bytes(20)...)
}

// TxOut describes an explicit output for NewExplicitTx. An empty Script
// produces a fee output.
type TxOut struct {
	Asset  string
	Value  uint64
	Script []byte
}

// TxIn references a prevout for NewExplicitTx.
type TxIn struct {
	TxID string
	VOut uint32
}

// NewExplicitTx assembles a fully explicit (unblinded) transaction spending
// the given prevouts, returning the decoded transaction and its hex.
func NewExplicitTx(ins []TxIn, outs []TxOut) (*transaction.Transaction, string, error) {
	tx := transaction.NewTx(2)
	for _, in := range ins {
		hash, err := bufferutil.TxIDToBytes(in.TxID)
		if err != nil {
			return nil, "", err
		}
		tx.AddInput(transaction.NewTxInput(hash, in.VOut))
	}
	for _, out := range outs {
		asset, err := bufferutil.AssetHashToBytes(out.Asset)
		if err != nil {
			return nil, "", err
		}
		value, err := bufferutil.ValueToBytes(out.Value)
		if err != nil {
			return nil, "", err
		}
		tx.AddOutput(transaction.NewTxOutput(asset, value, out.Script))
	}
	txHex, err := tx.ToHex()
	if err != nil {
		return nil, "", err
	}
	return tx, txHex, nil
}

// Uint32Ptr is a height literal helper.
func Uint32Ptr(v uint32) *uint32 {
	return &v
}
