package bufferutil

import (
	"encoding/hex"
	"fmt"

	"github.com/vulpemventures/go-elements/elementsutil"
)

// AssetHashFromBytes returns the hex asset id for an explicit (prefix 0x01)
// asset buffer of a transaction output.
func AssetHashFromBytes(buffer []byte) string {
	// the first byte tells whether the asset is confidential or explicit and
	// is not part of the hash
	return hex.EncodeToString(elementsutil.ReverseBytes(buffer[1:]))
}

// AssetHashToBytes serializes an hex asset id to the explicit wire format.
func AssetHashToBytes(str string) ([]byte, error) {
	buffer, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	if len(buffer) != 32 {
		return nil, fmt.Errorf("asset must be a 32 byte array in hex format")
	}
	buffer = elementsutil.ReverseBytes(buffer)
	buffer = append([]byte{0x01}, buffer...)
	return buffer, nil
}

// ValueFromBytes returns the satoshi amount of an explicit value buffer.
func ValueFromBytes(buffer []byte) uint64 {
	value, _ := elementsutil.ValueFromBytes(buffer)
	return value
}

// ValueToBytes serializes a satoshi amount to the explicit wire format.
func ValueToBytes(val uint64) ([]byte, error) {
	return elementsutil.ValueToBytes(val)
}

// TxIDFromBytes returns the hex txid for the little-endian hash of a
// transaction input.
func TxIDFromBytes(buffer []byte) string {
	return hex.EncodeToString(elementsutil.ReverseBytes(buffer))
}

// TxIDToBytes returns the little-endian hash for an hex txid.
func TxIDToBytes(str string) ([]byte, error) {
	buffer, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	if len(buffer) != 32 {
		return nil, fmt.Errorf("txid must be a 32 byte array in hex format")
	}
	return elementsutil.ReverseBytes(buffer), nil
}

// CommitmentFromBytes returns the hex encoding of an asset or value
// commitment.
func CommitmentFromBytes(buffer []byte) string {
	return hex.EncodeToString(buffer)
}

// CommitmentToBytes decodes an hex encoded asset or value commitment.
func CommitmentToBytes(str string) ([]byte, error) {
	return hex.DecodeString(str)
}

// IsExplicitAsset returns whether the asset buffer of an output is in
// explicit (unblinded) form.
func IsExplicitAsset(buffer []byte) bool {
	return len(buffer) == 33 && buffer[0] == 0x01
}

// IsExplicitValue returns whether the value buffer of an output is in
// explicit (unblinded) form.
func IsExplicitValue(buffer []byte) bool {
	return len(buffer) == 9 && buffer[0] == 0x01
}
