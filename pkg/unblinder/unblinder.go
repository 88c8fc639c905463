// Package unblinder recovers the plaintext asset and amount of confidential
// transaction outputs. It is the only place where blinding private key
// material is used and it never logs nor retains the derived secrets.
package unblinder

import (
	"encoding/hex"
	"errors"

	"github.com/tdex-network/liquid-wallet/pkg/bufferutil"
	"github.com/vulpemventures/go-elements/confidential"
	"github.com/vulpemventures/go-elements/elementsutil"
	"github.com/vulpemventures/go-elements/transaction"
)

// MaxSatoshi is the maximum representable amount of any asset.
const MaxSatoshi = uint64(21_000_000 * 100_000_000)

var (
	// ErrUnblindFailed means the output does not open with the provided
	// blinding key: either it belongs to another wallet or its proofs are
	// malformed. It is not fatal for the caller.
	ErrUnblindFailed = errors.New("output cannot be unblinded with the provided key")
)

// Secrets is the revealed plaintext of an output: the asset, the amount and
// the blinding factors proving the commitments open to them.
type Secrets struct {
	AssetHash    string `json:"asset"`
	Value        uint64 `json:"value"`
	AssetBlinder []byte `json:"assetBlinder,omitempty"`
	ValueBlinder []byte `json:"valueBlinder,omitempty"`
}

// IsConfidential returns whether both commitments of the output are blinded.
// Fee outputs and issuance outputs of unblinded transactions are explicit.
func IsConfidential(out *transaction.TxOutput) bool {
	return !bufferutil.IsExplicitAsset(out.Asset) ||
		!bufferutil.IsExplicitValue(out.Value)
}

// UnblindOutput reveals the secrets of the given output with the given
// blinding private key. Explicit outputs bypass unblinding and are returned
// as-is with zero blinding factors.
func UnblindOutput(
	out *transaction.TxOutput, blindingPrivkey []byte,
) (*Secrets, error) {
	if !IsConfidential(out) {
		value, err := elementsutil.ValueFromBytes(out.Value)
		if err != nil {
			return nil, ErrUnblindFailed
		}
		return &Secrets{
			AssetHash: bufferutil.AssetHashFromBytes(out.Asset),
			Value:     value,
		}, nil
	}

	// a nil key fails the ECDH nonce derivation and the output stays
	// unrevealed, exactly like a wrong key would
	revealed, err := confidential.UnblindOutputWithKey(out, blindingPrivkey)
	if err != nil || revealed == nil {
		return nil, ErrUnblindFailed
	}
	if revealed.Value > MaxSatoshi {
		return nil, ErrUnblindFailed
	}

	return &Secrets{
		AssetHash:    hex.EncodeToString(elementsutil.ReverseBytes(revealed.Asset)),
		Value:        revealed.Value,
		AssetBlinder: revealed.AssetBlindingFactor,
		ValueBlinder: revealed.ValueBlindingFactor,
	}, nil
}

// UnblindOutputWithKeys tries each candidate blinding private key in order
// and returns the first successful reveal.
func UnblindOutputWithKeys(
	out *transaction.TxOutput, blindingPrivkeys [][]byte,
) (*Secrets, error) {
	for _, key := range blindingPrivkeys {
		secrets, err := UnblindOutput(out, key)
		if err == nil {
			return secrets, nil
		}
	}
	return nil, ErrUnblindFailed
}
