// Package estimator computes the virtual size and network fee of Elements
// transactions before they are blinded and signed. Confidential proof sizes
// are fixed upper bounds, so estimates never undershoot the final size.
package estimator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Script types of the inputs and outputs this wallet can produce.
const (
	P2WPKH = iota
	P2WSH
)

const (
	// inBaseSize is hash + index + sequence.
	inBaseSize = 40
	// outBaseSize is asset + value + nonce commitments.
	outBaseSize = 33 + 33 + 33
	// feeOutBaseSize is explicit asset + explicit value + empty script +
	// empty nonce.
	feeOutBaseSize = 33 + 9 + 1 + 1
	// outProofsSize is size(range proof) + proof + size(surjection proof) +
	// proof for a blinded output.
	outProofsSize = 3 + 4174 + 1 + 131
	// p2wpkhWitnessSize is len + witness[sig,pubkey] + no issuance proof +
	// no token proof + no pegin.
	p2wpkhWitnessSize = 1 + 107 + 1 + 1 + 1
)

// Input describes a transaction input for size estimation purposes.
type Input struct {
	Type int
	// WitnessSize is required for P2WSH inputs and ignored otherwise.
	WitnessSize int
}

// Output describes a transaction output for size estimation purposes. The
// final fee output must not be included, it is always accounted for.
type Output struct {
	Type int
}

// MultisigWitnessSize returns the worst-case witness size of a k-of-n
// CHECKMULTISIG P2WSH input.
func MultisigWitnessSize(threshold, numKeys int) int {
	// OP_0 + k signatures
	witnessSize := 1 + (1+72)*threshold
	// witness script: k + n compressed keys + n + CHECKMULTISIG
	scriptLen := 1 + (1+33)*numKeys + 1 + 1
	return witnessSize + varIntSerializeSize(uint64(scriptLen)) + scriptLen +
		// no issuance proof + no token proof + no pegin witness
		3
}

// EstimateVSize returns the virtual size of a transaction with the given
// inputs and outputs plus the trailing unblinded fee output.
func EstimateVSize(ins []Input, outs []Output) int {
	baseSize := calcBaseSize(ins, outs)
	totalSize := baseSize + calcWitnessSize(ins, outs)

	weight := baseSize*3 + totalSize
	return (weight + 3) / 4
}

// FeeAmount returns the fee in satoshis for the given virtual size at the
// given rate, rounded up.
func FeeAmount(vsize, milliSatsPerByte int) uint64 {
	fee := decimal.NewFromInt(int64(vsize)).
		Mul(decimal.NewFromInt(int64(milliSatsPerByte))).
		Div(decimal.NewFromInt(1000)).
		Ceil()
	return uint64(fee.IntPart())
}

func calcBaseSize(ins []Input, outs []Output) int {
	insSize := 0
	for range ins {
		// scriptsig is empty for segwit inputs, its length byte remains
		insSize += inBaseSize + 1
	}

	outsSize := 0
	for _, out := range outs {
		scriptSize := 23 // len + OP_0 + push + 20 byte hash
		if out.Type == P2WSH {
			scriptSize = 35 // len + OP_0 + push + 32 byte hash
		}
		outsSize += outBaseSize + scriptSize
	}
	outsSize += feeOutBaseSize

	return 9 +
		varIntSerializeSize(uint64(len(ins))) +
		varIntSerializeSize(uint64(len(outs)+1)) +
		insSize + outsSize
}

func calcWitnessSize(ins []Input, outs []Output) int {
	insSize := 0
	for _, in := range ins {
		if in.Type == P2WSH {
			insSize += in.WitnessSize
			continue
		}
		insSize += p2wpkhWitnessSize
	}

	// proofs of the blinded outputs, plus the empty proofs of the fee output
	return insSize + outProofsSize*len(outs) + 1 + 1
}

func varIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= math.MaxUint16 {
		return 3
	}
	if val <= math.MaxUint32 {
		return 5
	}
	return 9
}
