package estimator_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/liquid-wallet/pkg/estimator"
)

func TestEstimateVSizeGrowsWithInputsAndOutputs(t *testing.T) {
	in := estimator.Input{Type: estimator.P2WPKH}
	out := estimator.Output{Type: estimator.P2WPKH}

	base := estimator.EstimateVSize(
		[]estimator.Input{in}, []estimator.Output{out},
	)
	require.Greater(t, base, 0)

	moreIns := estimator.EstimateVSize(
		[]estimator.Input{in, in}, []estimator.Output{out},
	)
	require.Greater(t, moreIns, base)

	moreOuts := estimator.EstimateVSize(
		[]estimator.Input{in}, []estimator.Output{out, out},
	)
	require.Greater(t, moreOuts, base)
	// a blinded output with its proofs weighs far more than an input
	require.Greater(t, moreOuts, moreIns)
}

func TestEstimateVSizeScriptTypes(t *testing.T) {
	witnessSize := estimator.MultisigWitnessSize(2, 3)
	require.Greater(t, witnessSize, 0)

	wpkh := estimator.EstimateVSize(
		[]estimator.Input{{Type: estimator.P2WPKH}},
		[]estimator.Output{{Type: estimator.P2WPKH}},
	)
	wsh := estimator.EstimateVSize(
		[]estimator.Input{{Type: estimator.P2WSH, WitnessSize: witnessSize}},
		[]estimator.Output{{Type: estimator.P2WSH}},
	)
	require.Greater(t, wsh, wpkh)
}

func TestMultisigWitnessSizeGrowsWithSigners(t *testing.T) {
	twoOfThree := estimator.MultisigWitnessSize(2, 3)
	threeOfThree := estimator.MultisigWitnessSize(3, 3)
	twoOfFive := estimator.MultisigWitnessSize(2, 5)
	require.Greater(t, threeOfThree, twoOfThree)
	require.Greater(t, twoOfFive, twoOfThree)
}

func TestFeeAmount(t *testing.T) {
	// 100 msat/byte is 0.1 sat/byte
	require.Equal(t, uint64(100), estimator.FeeAmount(1000, 100))
	// rounded up
	require.Equal(t, uint64(101), estimator.FeeAmount(1001, 100))
	require.Equal(t, uint64(1), estimator.FeeAmount(1, 100))
	require.Equal(t, uint64(250), estimator.FeeAmount(1000, 250))
}
