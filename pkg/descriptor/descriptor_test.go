package descriptor_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/testutil"
	"github.com/vulpemventures/go-elements/network"
)

// the private counterpart of the first BIP32 test vector xpub
const xprv1 = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"

var (
	xpub1 = testutil.Xpubs[0]
	xpub2 = testutil.Xpubs[1]
)

func TestParseSingleSig(t *testing.T) {
	d, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)
	require.Equal(t, descriptor.WPKH, d.Template())
	require.Equal(t, 1, d.Threshold())
	require.Equal(t, 1, d.NumKeys())

	// the canonical string carries a checksum and round-trips
	require.Contains(t, d.String(), "#")
	reparsed, err := descriptor.Parse(d.String())
	require.NoError(t, err)
	require.Equal(t, d.String(), reparsed.String())
}

func TestParseMultiSig(t *testing.T) {
	d, err := descriptor.Parse(testutil.MultiSigDescriptor())
	require.NoError(t, err)
	require.Equal(t, descriptor.WSHMulti, d.Template())
	require.Equal(t, 2, d.Threshold())
	require.Equal(t, 2, d.NumKeys())

	script, _, err := d.DeriveScript(0, descriptor.External)
	require.NoError(t, err)
	// P2WSH program
	require.Len(t, script, 34)
	require.Equal(t, byte(0x00), script[0])
	require.Equal(t, byte(0x20), script[1])
}

func TestParseWithDerivationPrefix(t *testing.T) {
	desc := fmt.Sprintf(
		"ct(slip77(%s),elwpkh(%s/3/4/*))", testutil.BlindingKey, xpub1,
	)
	d, err := descriptor.Parse(desc)
	require.NoError(t, err)

	plain, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)

	prefixed, _, err := d.DeriveScript(0, descriptor.External)
	require.NoError(t, err)
	bare, _, err := plain.DeriveScript(0, descriptor.External)
	require.NoError(t, err)
	require.NotEqual(t, bare, prefixed)
}

func TestDeriveScriptIsDeterministic(t *testing.T) {
	d, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)

	script1, blind1, err := d.DeriveScript(5, descriptor.External)
	require.NoError(t, err)
	script2, blind2, err := d.DeriveScript(5, descriptor.External)
	require.NoError(t, err)
	require.Equal(t, script1, script2)
	require.Equal(t, blind1.SerializeCompressed(), blind2.SerializeCompressed())

	// P2WPKH program
	require.Len(t, script1, 22)
	require.Equal(t, byte(0x00), script1[0])
	require.Equal(t, byte(0x14), script1[1])

	other, _, err := d.DeriveScript(6, descriptor.External)
	require.NoError(t, err)
	require.NotEqual(t, script1, other)

	internal, _, err := d.DeriveScript(5, descriptor.Internal)
	require.NoError(t, err)
	require.NotEqual(t, script1, internal)
}

func TestElip151Blinding(t *testing.T) {
	policy := fmt.Sprintf("elwpkh(%s/*)", xpub1)
	d1, err := descriptor.Parse(fmt.Sprintf("ct(elip151,%s)", policy))
	require.NoError(t, err)
	d2, err := descriptor.Parse(fmt.Sprintf("ct(elip151,%s)", policy))
	require.NoError(t, err)

	// the blinding material is a pure function of the policy
	script1, blind1, err := d1.DeriveScript(0, descriptor.External)
	require.NoError(t, err)
	script2, blind2, err := d2.DeriveScript(0, descriptor.External)
	require.NoError(t, err)
	require.Equal(t, script1, script2)
	require.Equal(t, blind1.SerializeCompressed(), blind2.SerializeCompressed())

	// a fixed slip77 key produces the same scripts but other blinding keys
	slip, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)
	script3, blind3, err := slip.DeriveScript(0, descriptor.External)
	require.NoError(t, err)
	require.Equal(t, script1, script3)
	require.NotEqual(t, blind1.SerializeCompressed(), blind3.SerializeCompressed())
}

func TestAddress(t *testing.T) {
	d, err := descriptor.Parse(testutil.SingleSigDescriptor())
	require.NoError(t, err)

	addr, err := d.Address(0, descriptor.External, &network.Regtest)
	require.NoError(t, err)
	require.NotEmpty(t, addr)

	again, err := d.Address(0, descriptor.External, &network.Regtest)
	require.NoError(t, err)
	require.Equal(t, addr, again)

	change, err := d.Address(0, descriptor.Internal, &network.Regtest)
	require.NoError(t, err)
	require.NotEqual(t, addr, change)

	mainnet, err := d.Address(0, descriptor.External, &network.Liquid)
	require.NoError(t, err)
	require.NotEqual(t, addr, mainnet)
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		desc string
		err  error
	}{
		{
			name: "not a ct expression",
			desc: fmt.Sprintf("elwpkh(%s/*)", xpub1),
			err:  descriptor.ErrMalformedDescriptor,
		},
		{
			name: "missing wildcard",
			desc: fmt.Sprintf("ct(slip77(%s),elwpkh(%s))", testutil.BlindingKey, xpub1),
			err:  descriptor.ErrMissingWildcard,
		},
		{
			name: "hardened step",
			desc: fmt.Sprintf("ct(slip77(%s),elwpkh(%s/0h/*))", testutil.BlindingKey, xpub1),
			err:  descriptor.ErrHardenedDerivation,
		},
		{
			name: "private key",
			desc: fmt.Sprintf("ct(slip77(%s),elwpkh(%s/*))", testutil.BlindingKey, xprv1),
			err:  descriptor.ErrPrivateKeyInDescriptor,
		},
		{
			name: "bad extended key",
			desc: fmt.Sprintf("ct(slip77(%s),elwpkh(xpubnotakey/*))", testutil.BlindingKey),
			err:  descriptor.ErrInvalidExtendedKey,
		},
		{
			name: "unsupported template",
			desc: fmt.Sprintf("ct(slip77(%s),elpkh(%s/*))", testutil.BlindingKey, xpub1),
			err:  descriptor.ErrUnsupportedTemplate,
		},
		{
			name: "threshold above signer count",
			desc: fmt.Sprintf(
				"ct(slip77(%s),elwsh(multi(3,%s/*,%s/*)))",
				testutil.BlindingKey, xpub1, xpub2,
			),
			err: descriptor.ErrInvalidThreshold,
		},
		{
			name: "duplicated key",
			desc: fmt.Sprintf(
				"ct(slip77(%s),elwsh(multi(2,%s/*,%s/*)))",
				testutil.BlindingKey, xpub1, xpub1,
			),
			err: descriptor.ErrDuplicatedKey,
		},
		{
			name: "bad blinding spec",
			desc: fmt.Sprintf("ct(slip77(beef),elwpkh(%s/*))", xpub1),
			err:  descriptor.ErrInvalidBlindingSpec,
		},
		{
			name: "bad checksum",
			desc: testutil.SingleSigDescriptor() + "#00000000",
			err:  descriptor.ErrInvalidChecksum,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := descriptor.Parse(tt.desc)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	desc := testutil.SingleSigDescriptor()
	checksum, err := descriptor.Checksum(desc)
	require.NoError(t, err)
	require.Len(t, checksum, 8)

	_, err = descriptor.Parse(desc + "#" + checksum)
	require.NoError(t, err)

	_, err = descriptor.Checksum("not allowed chars ~~ …")
	require.ErrorIs(t, err, descriptor.ErrInvalidCharacter)
}
