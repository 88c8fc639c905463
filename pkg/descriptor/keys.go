package descriptor

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// extendedKey is an xpub with an optional unhardened derivation prefix, as it
// appears in a key expression like "xpub.../1/2/*".
type extendedKey struct {
	xpub *hdkeychain.ExtendedKey
	raw  string
	path []uint32
}

// parseKeyExpression parses "<xpub>[/<step>...]/*". The trailing wildcard is
// mandatory and stands for the chain (0 external, 1 internal) followed by the
// address index.
func parseKeyExpression(expr string) (*extendedKey, error) {
	if !strings.HasSuffix(expr, "/*") {
		return nil, ErrMissingWildcard
	}
	expr = strings.TrimSuffix(expr, "/*")

	elems := strings.Split(expr, "/")
	xpub, err := hdkeychain.NewKeyFromString(elems[0])
	if err != nil {
		return nil, ErrInvalidExtendedKey
	}
	if xpub.IsPrivate() {
		return nil, ErrPrivateKeyInDescriptor
	}

	path := make([]uint32, 0, len(elems)-1)
	for _, elem := range elems[1:] {
		if strings.HasSuffix(elem, "h") || strings.HasSuffix(elem, "'") {
			// hardened steps cannot be derived from a public key
			return nil, ErrHardenedDerivation
		}
		step, err := strconv.ParseUint(elem, 10, 32)
		if err != nil || step >= hdkeychain.HardenedKeyStart {
			return nil, ErrInvalidDerivationStep
		}
		path = append(path, uint32(step))
	}

	return &extendedKey{
		xpub: xpub,
		raw:  expr,
		path: path,
	}, nil
}

// derive returns the public key at prefix-path/chain/index.
func (k *extendedKey) derive(index uint32, chain Chain) (*btcec.PublicKey, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return nil, ErrIndexOutOfRange
	}

	node := k.xpub
	var err error
	for _, step := range k.path {
		if node, err = node.Derive(step); err != nil {
			return nil, err
		}
	}
	if node, err = node.Derive(uint32(chain)); err != nil {
		return nil, err
	}
	if node, err = node.Derive(index); err != nil {
		return nil, err
	}
	return node.ECPubKey()
}

// deterministicBlindingTag separates the blinding key domain from any other
// use of sha256 over the policy expression.
const deterministicBlindingTag = "ct-blinding-key/1.0"

// deterministicMasterBlindingKey derives the SLIP-77 master blinding key of
// an "elip151" descriptor as the tagged hash of its spending policy, so that
// the blinding material is a pure function of the spending keys.
func deterministicMasterBlindingKey(policy string) []byte {
	tag := sha256.Sum256([]byte(deterministicBlindingTag))
	h := sha256.New()
	h.Write(tag[:])
	h.Write(tag[:])
	h.Write([]byte(policy))
	return h.Sum(nil)
}
