package ports

import (
	"context"

	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
)

// ScanRequest tells a backend what to look at: the scripts already derived
// per chain, the transactions already known (to detect confirmations and
// evictions) and the tip the wallet last saw.
type ScanRequest struct {
	Scripts    map[descriptor.Chain][]domain.ScriptInfo
	KnownTxids []string
	LastTip    domain.BlockTip
	// GapLimit is the number of consecutive unused scripts to probe beyond
	// the highest used index before the scan stops extending a chain.
	GapLimit uint32
	// ToIndex forces the scan to cover at least this many scripts per chain
	// regardless of the gap heuristic. Account types with many pre-allocated
	// unused addresses set it to their known high-water mark.
	ToIndex map[descriptor.Chain]uint32
	// Derive extends the scanned range past the scripts above. Backends call
	// it when activity is found near the end of a chain and put the returned
	// reveal in the update so the store records the extension.
	Derive func(chain descriptor.Chain, index uint32) (domain.ScriptReveal, error)
}

// BlockchainBackend is the pluggable source of chain facts. Implementations
// produce update batches the store merges; they never touch wallet state
// directly.
type BlockchainBackend interface {
	// Scan walks the wallet scripts with gap-limit extension and returns the
	// resulting update batch, empty Txs included when nothing changed.
	Scan(ctx context.Context, req ScanRequest) (*domain.Update, error)
	// Broadcast publishes a signed transaction and returns its txid.
	Broadcast(ctx context.Context, txHex string) (string, error)
	// Close releases the backend resources.
	Close()
}
