package application

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/internal/core/ports"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/vulpemventures/go-elements/network"
)

// WalletService is the watch-only wallet facade: it owns the chain-state
// store, keeps it synced through a blockchain backend and persists it
// through a key-value store after every applied update.
type WalletService interface {
	// Sync asks the backend for news and merges them into the wallet state.
	Sync(ctx context.Context) (*domain.ChangeSummary, error)
	// SyncToIndex is like Sync but forces the scan to cover at least the
	// given number of scripts per chain regardless of the gap heuristic, for
	// account types with many pre-allocated unused addresses.
	SyncToIndex(
		ctx context.Context, toIndex map[descriptor.Chain]uint32,
	) (*domain.ChangeSummary, error)
	// Address returns the confidential address at the first unused external
	// index, along with the index itself.
	Address(ctx context.Context) (string, uint32, error)
	// AddressAt returns the confidential address at an arbitrary derivation.
	AddressAt(ctx context.Context, chain descriptor.Chain, index uint32) (string, error)
	// Balance returns the wallet balance per asset.
	Balance(ctx context.Context) (map[string]uint64, error)
	// Transactions returns the wallet history, newest first.
	Transactions(ctx context.Context, limit, offset int) ([]*domain.TxDetails, error)
	// Utxos returns the unspent wallet outputs.
	Utxos(ctx context.Context) ([]domain.Utxo, error)
	// NewTransaction starts a transaction build against the current state.
	NewTransaction() *TxBuilder
	// Broadcast publishes a signed transaction and releases the coin locks
	// of the originating build session.
	Broadcast(ctx context.Context, txHex string, selected []domain.TxoKey) (string, error)
	// ReleaseTxos gives up the coin locks of an abandoned build session.
	ReleaseTxos(selected []domain.TxoKey)
	// Tip returns the best block known to the wallet.
	Tip(ctx context.Context) (domain.BlockTip, error)
	// Close persists the state one last time and releases every resource.
	Close()
}

// WalletServiceOpts is the set of dependencies and parameters to create a
// WalletService.
type WalletServiceOpts struct {
	Descriptor  string
	Backend     ports.BlockchainBackend
	Repo        ports.KVStore
	Network     *network.Network
	GapLimit    uint32
	DustAmount  uint64
	MsatPerByte int
}

func (o WalletServiceOpts) validate() error {
	if o.Descriptor == "" {
		return fmt.Errorf("missing wallet descriptor")
	}
	if o.Backend == nil {
		return fmt.Errorf("missing blockchain backend")
	}
	if o.Network == nil {
		return fmt.Errorf("missing network")
	}
	if o.GapLimit == 0 {
		return fmt.Errorf("gap limit must be positive")
	}
	if o.DustAmount == 0 {
		return fmt.Errorf("dust amount must be positive")
	}
	if o.MsatPerByte < 100 {
		return fmt.Errorf("fee rate too low")
	}
	return nil
}

type walletService struct {
	store       *domain.Store
	backend     ports.BlockchainBackend
	repo        ports.KVStore
	net         *network.Network
	gapLimit    uint32
	dustAmount  uint64
	msatPerByte int

	// serializes sync-and-persist cycles
	syncMtx sync.Mutex
}

// NewWalletService parses the descriptor, restores any persisted state for
// it and returns the ready service.
func NewWalletService(opts WalletServiceOpts) (WalletService, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid wallet service opts: %s", err)
	}

	desc, err := descriptor.Parse(opts.Descriptor)
	if err != nil {
		return nil, err
	}

	svc := &walletService{
		store:       domain.NewStore(desc),
		backend:     opts.Backend,
		repo:        opts.Repo,
		net:         opts.Network,
		gapLimit:    opts.GapLimit,
		dustAmount:  opts.DustAmount,
		msatPerByte: opts.MsatPerByte,
	}
	if err := svc.restore(); err != nil {
		return nil, err
	}
	return svc, nil
}

// stateKey namespaces the persisted snapshot by descriptor so that several
// wallets can share one database.
func (s *walletService) stateKey() string {
	return fmt.Sprintf("wallet:state:%s", s.store.Descriptor().String())
}

func (s *walletService) restore() error {
	if s.repo == nil {
		return nil
	}
	data, err := s.repo.Get(s.stateKey())
	if err != nil {
		if err == ports.ErrKeyNotFound {
			return nil
		}
		return err
	}
	if err := s.store.RestoreSnapshot(data); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"tip":   s.store.Tip().Height,
		"utxos": len(s.store.Utxos()),
	}).Info("wallet state restored")
	return nil
}

// persist write-through snapshots the state; without a repo the wallet is
// in-memory only.
func (s *walletService) persist() error {
	if s.repo == nil {
		return nil
	}
	data, err := s.store.Snapshot()
	if err != nil {
		return err
	}
	return s.repo.Put(s.stateKey(), data)
}

func (s *walletService) Sync(ctx context.Context) (*domain.ChangeSummary, error) {
	return s.sync(ctx, nil)
}

func (s *walletService) SyncToIndex(
	ctx context.Context, toIndex map[descriptor.Chain]uint32,
) (*domain.ChangeSummary, error) {
	return s.sync(ctx, toIndex)
}

func (s *walletService) sync(
	ctx context.Context, toIndex map[descriptor.Chain]uint32,
) (*domain.ChangeSummary, error) {
	s.syncMtx.Lock()
	defer s.syncMtx.Unlock()

	scripts := make(map[descriptor.Chain][]domain.ScriptInfo)
	for _, chain := range []descriptor.Chain{descriptor.External, descriptor.Internal} {
		// always watch at least one gap of scripts past the used range
		target := s.store.LastUnused(chain) + s.gapLimit
		if toIndex[chain] > target {
			target = toIndex[chain]
		}
		derived, err := s.store.EnsureScripts(chain, target)
		if err != nil {
			return nil, err
		}
		scripts[chain] = derived
	}

	knownTxids := make([]string, 0)
	for _, tx := range s.store.Transactions(0, 0) {
		knownTxids = append(knownTxids, tx.TxID)
	}

	update, err := s.backend.Scan(ctx, ports.ScanRequest{
		Scripts:    scripts,
		KnownTxids: knownTxids,
		LastTip:    s.store.Tip(),
		GapLimit:   s.gapLimit,
		ToIndex:    toIndex,
		Derive:     s.deriveReveal,
	})
	if err != nil {
		return nil, err
	}

	summary, err := s.store.ApplyUpdate(update)
	if err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *walletService) deriveReveal(
	chain descriptor.Chain, index uint32,
) (domain.ScriptReveal, error) {
	script, blindingPubkey, err := s.store.Descriptor().DeriveScript(index, chain)
	if err != nil {
		return domain.ScriptReveal{}, err
	}
	return domain.ScriptReveal{
		Chain:          chain,
		Index:          index,
		Script:         script,
		BlindingPubkey: blindingPubkey.SerializeCompressed(),
	}, nil
}

func (s *walletService) Address(_ context.Context) (string, uint32, error) {
	index := s.store.LastUnused(descriptor.External)
	addr, err := s.store.Descriptor().Address(index, descriptor.External, s.net)
	if err != nil {
		return "", 0, err
	}
	return addr, index, nil
}

func (s *walletService) AddressAt(
	_ context.Context, chain descriptor.Chain, index uint32,
) (string, error) {
	return s.store.Descriptor().Address(index, chain, s.net)
}

func (s *walletService) Balance(_ context.Context) (map[string]uint64, error) {
	return s.store.Balance(), nil
}

func (s *walletService) Transactions(
	_ context.Context, limit, offset int,
) ([]*domain.TxDetails, error) {
	return s.store.Transactions(limit, offset), nil
}

func (s *walletService) Utxos(_ context.Context) ([]domain.Utxo, error) {
	return s.store.Utxos(), nil
}

func (s *walletService) NewTransaction() *TxBuilder {
	return newTxBuilder(s.store, s.net, s.dustAmount, s.msatPerByte)
}

func (s *walletService) Broadcast(
	ctx context.Context, txHex string, selected []domain.TxoKey,
) (string, error) {
	txid, err := s.backend.Broadcast(ctx, txHex)
	if err != nil {
		return "", err
	}
	s.store.UnlockTxos(selected)
	log.WithField("txid", txid).Info("transaction broadcast")
	return txid, nil
}

func (s *walletService) ReleaseTxos(selected []domain.TxoKey) {
	s.store.UnlockTxos(selected)
}

func (s *walletService) Tip(_ context.Context) (domain.BlockTip, error) {
	return s.store.Tip(), nil
}

func (s *walletService) Close() {
	s.syncMtx.Lock()
	defer s.syncMtx.Unlock()

	if err := s.persist(); err != nil {
		log.WithError(err).Warn("could not persist wallet state on close")
	}
	s.backend.Close()
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			log.WithError(err).Warn("could not close storage")
		}
	}
}
