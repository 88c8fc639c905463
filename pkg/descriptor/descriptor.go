// Package descriptor implements parsing and derivation of confidential
// transaction (CT) descriptors: a spending policy over extended public keys
// paired with a blinding key specification. A descriptor deterministically
// maps every (index, chain) pair to exactly one output script and one
// blinding key, and is the identity of the wallet watching it.
package descriptor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/slip77"
)

var (
	// ErrMalformedDescriptor ...
	ErrMalformedDescriptor = errors.New("descriptor must be in the form ct(<blinding>,<policy>)")
	// ErrUnsupportedTemplate ...
	ErrUnsupportedTemplate = errors.New("unsupported script template, must be elwpkh or elwsh(multi(...))")
	// ErrInvalidBlindingSpec ...
	ErrInvalidBlindingSpec = errors.New("blinding spec must be slip77(<64 hex chars>) or elip151")
	// ErrInvalidThreshold ...
	ErrInvalidThreshold = errors.New("multisig threshold must be within signer count bounds")
	// ErrDuplicatedKey ...
	ErrDuplicatedKey = errors.New("descriptor must not contain duplicated extended keys")
	// ErrMissingWildcard ...
	ErrMissingWildcard = errors.New("key expression must end with the /* wildcard")
	// ErrInvalidExtendedKey ...
	ErrInvalidExtendedKey = errors.New("invalid extended public key")
	// ErrPrivateKeyInDescriptor ...
	ErrPrivateKeyInDescriptor = errors.New("descriptor must not contain private keys")
	// ErrHardenedDerivation ...
	ErrHardenedDerivation = errors.New("hardened derivation steps are not allowed in watch-only descriptors")
	// ErrInvalidDerivationStep ...
	ErrInvalidDerivationStep = errors.New("derivation steps must be unhardened indexes")
	// ErrIndexOutOfRange ...
	ErrIndexOutOfRange = errors.New("address index out of range")
	// ErrInvalidChecksum ...
	ErrInvalidChecksum = errors.New("invalid descriptor checksum")
	// ErrInvalidCharacter ...
	ErrInvalidCharacter = errors.New("invalid character in descriptor")
)

// Chain discriminates external (receive) from internal (change) scripts.
type Chain uint32

const (
	// External is the chain of receive addresses.
	External Chain = 0
	// Internal is the chain of change addresses.
	Internal Chain = 1
)

func (c Chain) String() string {
	if c == Internal {
		return "internal"
	}
	return "external"
}

// ScriptTemplate is the closed set of supported spending policy templates.
type ScriptTemplate int

const (
	// WPKH is a single-key P2WPKH policy (elwpkh).
	WPKH ScriptTemplate = iota
	// WSHMulti is a k-of-n P2WSH multisig policy (elwsh(multi(...))).
	WSHMulti
)

// BlindingMode is the way the master blinding key of a descriptor is
// obtained.
type BlindingMode int

const (
	// Slip77 uses a fixed master blinding key given in the descriptor.
	Slip77 BlindingMode = iota
	// Elip151 derives the master blinding key from the spending policy.
	Elip151
)

// Descriptor is an immutable, parsed CT descriptor. All methods are pure and
// safe for concurrent use.
type Descriptor struct {
	template          ScriptTemplate
	threshold         int
	keys              []*extendedKey
	blindingMode      BlindingMode
	masterBlindingKey []byte
	canonical         string
}

// Parse validates the provided descriptor string, including its optional
// trailing checksum, and returns the immutable Descriptor.
func Parse(desc string) (*Descriptor, error) {
	expr, err := verifyChecksum(strings.TrimSpace(desc))
	if err != nil {
		return nil, err
	}

	inner, ok := unwrap(expr, "ct")
	if !ok {
		return nil, ErrMalformedDescriptor
	}
	args := splitTopLevel(inner)
	if len(args) != 2 {
		return nil, ErrMalformedDescriptor
	}

	d := &Descriptor{}
	if err := d.parsePolicy(args[1]); err != nil {
		return nil, err
	}
	if err := d.parseBlinding(args[0]); err != nil {
		return nil, err
	}

	d.canonical = fmt.Sprintf("ct(%s,%s)", d.blindingExpression(), d.policyExpression())
	checksum, err := Checksum(d.canonical)
	if err != nil {
		return nil, err
	}
	d.canonical = fmt.Sprintf("%s#%s", d.canonical, checksum)
	return d, nil
}

func (d *Descriptor) parsePolicy(expr string) error {
	if inner, ok := unwrap(expr, "elwpkh"); ok {
		key, err := parseKeyExpression(inner)
		if err != nil {
			return err
		}
		d.template = WPKH
		d.threshold = 1
		d.keys = []*extendedKey{key}
		return nil
	}

	inner, ok := unwrap(expr, "elwsh")
	if !ok {
		return ErrUnsupportedTemplate
	}
	inner, ok = unwrap(inner, "multi")
	if !ok {
		return ErrUnsupportedTemplate
	}

	args := splitTopLevel(inner)
	if len(args) < 2 {
		return ErrUnsupportedTemplate
	}
	threshold, err := strconv.Atoi(args[0])
	if err != nil {
		return ErrUnsupportedTemplate
	}
	keys := make([]*extendedKey, 0, len(args)-1)
	seen := make(map[string]struct{})
	for _, arg := range args[1:] {
		key, err := parseKeyExpression(arg)
		if err != nil {
			return err
		}
		if _, ok := seen[key.raw]; ok {
			return ErrDuplicatedKey
		}
		seen[key.raw] = struct{}{}
		keys = append(keys, key)
	}
	if threshold < 1 || threshold > len(keys) {
		return ErrInvalidThreshold
	}

	d.template = WSHMulti
	d.threshold = threshold
	d.keys = keys
	return nil
}

func (d *Descriptor) parseBlinding(expr string) error {
	if expr == "elip151" {
		d.blindingMode = Elip151
		d.masterBlindingKey = deterministicMasterBlindingKey(d.policyExpression())
		return nil
	}
	inner, ok := unwrap(expr, "slip77")
	if !ok {
		return ErrInvalidBlindingSpec
	}
	key, err := hex.DecodeString(inner)
	if err != nil || len(key) != 32 {
		return ErrInvalidBlindingSpec
	}
	d.blindingMode = Slip77
	d.masterBlindingKey = key
	return nil
}

func (d *Descriptor) policyExpression() string {
	switch d.template {
	case WPKH:
		return fmt.Sprintf("elwpkh(%s/*)", d.keys[0].raw)
	default:
		keys := make([]string, 0, len(d.keys))
		for _, k := range d.keys {
			keys = append(keys, k.raw+"/*")
		}
		return fmt.Sprintf("elwsh(multi(%d,%s))", d.threshold, strings.Join(keys, ","))
	}
}

func (d *Descriptor) blindingExpression() string {
	if d.blindingMode == Elip151 {
		return "elip151"
	}
	return fmt.Sprintf("slip77(%s)", hex.EncodeToString(d.masterBlindingKey))
}

// String returns the canonical descriptor string with its checksum. Two
// descriptors are the same wallet if and only if their strings are equal.
func (d *Descriptor) String() string {
	return d.canonical
}

// Template returns the spending policy template of the descriptor.
func (d *Descriptor) Template() ScriptTemplate {
	return d.template
}

// Threshold returns the number of required signers.
func (d *Descriptor) Threshold() int {
	return d.threshold
}

// NumKeys returns the number of extended keys of the policy.
func (d *Descriptor) NumKeys() int {
	return len(d.keys)
}

// DeriveScript returns the output script and the blinding public key at the
// given index of the given chain.
func (d *Descriptor) DeriveScript(index uint32, chain Chain) ([]byte, *btcec.PublicKey, error) {
	script, err := d.outputScript(index, chain)
	if err != nil {
		return nil, nil, err
	}
	_, blindingPubkey, err := d.DeriveBlindingKeyPair(script)
	if err != nil {
		return nil, nil, err
	}
	return script, blindingPubkey, nil
}

// DeriveBlindingKeyPair returns the SLIP-77 blinding key pair for the given
// output script. The private key must reach the unblinder only.
func (d *Descriptor) DeriveBlindingKeyPair(script []byte) (*btcec.PrivateKey, *btcec.PublicKey, error) {
	slip77Node, err := slip77.FromMasterKey(d.masterBlindingKey)
	if err != nil {
		return nil, nil, err
	}
	return slip77Node.DeriveKey(script)
}

// Address returns the confidential address at the given index of the given
// chain for the provided network.
func (d *Descriptor) Address(index uint32, chain Chain, net *network.Network) (string, error) {
	script, err := d.outputScript(index, chain)
	if err != nil {
		return "", err
	}
	_, blindingPubkey, err := d.DeriveBlindingKeyPair(script)
	if err != nil {
		return "", err
	}

	switch d.template {
	case WPKH:
		pubkey, err := d.keys[0].derive(index, chain)
		if err != nil {
			return "", err
		}
		return payment.FromPublicKey(pubkey, net, blindingPubkey).
			ConfidentialWitnessPubKeyHash()
	default:
		pubkeys, err := d.childKeys(index, chain)
		if err != nil {
			return "", err
		}
		pay, err := payment.FromPublicKeys(pubkeys, d.threshold, net, blindingPubkey)
		if err != nil {
			return "", err
		}
		return pay.ConfidentialWitnessScriptHash()
	}
}

func (d *Descriptor) outputScript(index uint32, chain Chain) ([]byte, error) {
	switch d.template {
	case WPKH:
		pubkey, err := d.keys[0].derive(index, chain)
		if err != nil {
			return nil, err
		}
		pubkeyHash := btcutil.Hash160(pubkey.SerializeCompressed())
		return append([]byte{0x00, byte(len(pubkeyHash))}, pubkeyHash...), nil
	default:
		witnessScript, err := d.witnessScript(index, chain)
		if err != nil {
			return nil, err
		}
		scriptHash := sha256.Sum256(witnessScript)
		return append([]byte{0x00, byte(len(scriptHash))}, scriptHash[:]...), nil
	}
}

// witnessScript builds the k-of-n CHECKMULTISIG witness script, with keys in
// descriptor order so that derivation stays stable across calls.
func (d *Descriptor) witnessScript(index uint32, chain Chain) ([]byte, error) {
	pubkeys, err := d.childKeys(index, chain)
	if err != nil {
		return nil, err
	}
	builder := txscript.NewScriptBuilder().AddInt64(int64(d.threshold))
	for _, pubkey := range pubkeys {
		builder.AddData(pubkey.SerializeCompressed())
	}
	builder.AddInt64(int64(len(pubkeys))).AddOp(txscript.OP_CHECKMULTISIG)
	return builder.Script()
}

func (d *Descriptor) childKeys(index uint32, chain Chain) ([]*btcec.PublicKey, error) {
	pubkeys := make([]*btcec.PublicKey, 0, len(d.keys))
	for _, key := range d.keys {
		pubkey, err := key.derive(index, chain)
		if err != nil {
			return nil, err
		}
		pubkeys = append(pubkeys, pubkey)
	}
	return pubkeys, nil
}

// unwrap strips "name(...)" returning the inner expression.
func unwrap(expr, name string) (string, bool) {
	if !strings.HasPrefix(expr, name+"(") || !strings.HasSuffix(expr, ")") {
		return "", false
	}
	return expr[len(name)+1 : len(expr)-1], true
}

// splitTopLevel splits on commas that are not nested inside parentheses.
func splitTopLevel(expr string) []string {
	args := make([]string, 0, 2)
	depth, start := 0, 0
	for i, ch := range expr {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, expr[start:i])
				start = i + 1
			}
		}
	}
	return append(args, expr[start:])
}
