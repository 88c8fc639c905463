package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
)

// ScriptStatus is the usage lifecycle of a derived script.
type ScriptStatus int

const (
	// ScriptUnused means no output paying the script has been seen.
	ScriptUnused ScriptStatus = iota
	// ScriptUsed means at least one output pays the script.
	ScriptUsed
	// ScriptSpentFrom means at least one output paying the script has been
	// spent.
	ScriptSpentFrom
)

func (s ScriptStatus) String() string {
	switch s {
	case ScriptUsed:
		return "used"
	case ScriptSpentFrom:
		return "spent-from"
	default:
		return "unused"
	}
}

// ScriptInfo is a script derived from the wallet descriptor at a given index
// of a given chain. Entries are created lazily as the scanned range extends
// and are never deleted.
type ScriptInfo struct {
	Index          uint32           `json:"index"`
	Chain          descriptor.Chain `json:"chain"`
	Script         []byte           `json:"script"`
	BlindingPubkey []byte           `json:"blindingPubkey"`
	Status         ScriptStatus     `json:"status"`
}

// ScriptHex returns the hex encoded script, used as map key.
func (i *ScriptInfo) ScriptHex() string {
	return hex.EncodeToString(i.Script)
}

// PathKey identifies the script by its derivation coordinates.
func (i *ScriptInfo) PathKey() string {
	return scriptPathKey(i.Chain, i.Index)
}

func scriptPathKey(chain descriptor.Chain, index uint32) string {
	return fmt.Sprintf("%d/%d", chain, index)
}
