package esplora

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/liquid-wallet/internal/core/domain"
	"github.com/tdex-network/liquid-wallet/internal/core/ports"
	"github.com/tdex-network/liquid-wallet/pkg/descriptor"
	"github.com/tdex-network/liquid-wallet/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Scan walks both script chains with gap-limit extension, rechecks the
// status of the transactions the wallet already knows and assembles the
// resulting update batch.
func (s *service) Scan(
	ctx context.Context, req ports.ScanRequest,
) (*domain.Update, error) {
	gapLimit := req.GapLimit
	if s.gapLimit > 0 {
		gapLimit = s.gapLimit
	}
	if gapLimit == 0 {
		gapLimit = 20
	}

	tipHeight, err := s.tipHeight()
	if err != nil {
		return nil, err
	}
	tipHash, err := s.tipHash()
	if err != nil {
		return nil, err
	}

	update := &domain.Update{
		Tip: domain.BlockTip{Height: tipHeight, Hash: tipHash},
	}

	known := make(map[string]struct{}, len(req.KnownTxids))
	for _, txid := range req.KnownTxids {
		known[txid] = struct{}{}
	}

	found := make(map[string]txStatus)
	for _, chain := range []descriptor.Chain{descriptor.External, descriptor.Internal} {
		if err := s.scanChain(ctx, chain, req, gapLimit, found, update); err != nil {
			return nil, err
		}
	}

	deleted, statusChanges, err := s.recheckKnown(ctx, req.KnownTxids, found)
	if err != nil {
		return nil, err
	}
	update.DeletedTxids = deleted
	update.Txs = append(update.Txs, statusChanges...)

	newTxs, err := s.fetchNewTxs(ctx, found, known)
	if err != nil {
		return nil, err
	}
	update.Txs = append(update.Txs, newTxs...)

	log.WithFields(log.Fields{
		"tip":     tipHeight,
		"txs":     len(update.Txs),
		"deleted": len(update.DeletedTxids),
		"scripts": len(update.RevealedScripts),
	}).Debug("scan completed")
	return update, nil
}

// scanChain queries the history of every derived script of a chain and keeps
// extending the range until gapLimit consecutive scripts show no activity.
func (s *service) scanChain(
	ctx context.Context,
	chain descriptor.Chain,
	req ports.ScanRequest,
	gapLimit uint32,
	found map[string]txStatus,
	update *domain.Update,
) error {
	derived := req.Scripts[chain]
	emptyRun := uint32(0)

	// pre-allocated account types scan at least to their high-water mark
	// before the gap heuristic may stop the walk
	minIndex := uint32(len(derived))
	if toIndex := req.ToIndex[chain]; toIndex > minIndex {
		minIndex = toIndex
	}

	for i := uint32(0); ; i++ {
		if i >= minIndex && emptyRun >= gapLimit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var script []byte
		if i < uint32(len(derived)) {
			script = derived[i].Script
		} else {
			if req.Derive == nil {
				return nil
			}
			reveal, err := req.Derive(chain, i)
			if err != nil {
				return err
			}
			script = reveal.Script
			update.RevealedScripts = append(update.RevealedScripts, reveal)
		}

		body, err := s.get(fmt.Sprintf("%s/scripthash/%s/txs", s.apiURL, scriptHash(script)))
		if err != nil {
			return err
		}
		items, err := parseTxItems(body)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			emptyRun++
			continue
		}
		emptyRun = 0
		for _, item := range items {
			found[item.Txid] = item.Status
		}
	}
}

// recheckKnown asks for the status of every transaction the wallet already
// holds and was not seen during the script walk: confirmations move, and an
// http 404 means the transaction was evicted from the mempool.
func (s *service) recheckKnown(
	ctx context.Context, knownTxids []string, found map[string]txStatus,
) ([]string, []domain.TxEntry, error) {
	deleted := make([]string, 0)
	changes := make([]domain.TxEntry, 0)

	for _, txid := range knownTxids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		status, ok := found[txid]
		if !ok {
			body, missing, err := s.getMaybeMissing(
				fmt.Sprintf("%s/tx/%s/status", s.apiURL, txid),
			)
			if err != nil {
				return nil, nil, err
			}
			if missing {
				deleted = append(deleted, txid)
				continue
			}
			parsed, err := parseTxStatus(body)
			if err != nil {
				return nil, nil, err
			}
			status = *parsed
		}
		changes = append(changes, domain.TxEntry{
			TxID:      txid,
			Height:    status.height(),
			Timestamp: status.BlockTime,
		})
	}
	return deleted, changes, nil
}

// fetchNewTxs downloads the hex of the transactions discovered by the script
// walk, bounded by the configured concurrency.
func (s *service) fetchNewTxs(
	ctx context.Context, found map[string]txStatus, known map[string]struct{},
) ([]domain.TxEntry, error) {
	txids := make([]string, 0, len(found))
	for txid := range found {
		if _, ok := known[txid]; !ok {
			txids = append(txids, txid)
		}
	}

	entries := make([]domain.TxEntry, len(txids))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.fetchConcurrency)

	for i, txid := range txids {
		i, txid := i, txid
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			txHex, err := s.get(fmt.Sprintf("%s/tx/%s/hex", s.apiURL, txid))
			if err != nil {
				return err
			}
			status := found[txid]
			entries[i] = domain.TxEntry{
				TxID:      txid,
				TxHex:     strings.TrimSpace(txHex),
				Height:    status.height(),
				Timestamp: status.BlockTime,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Broadcast publishes a signed transaction and returns the txid assigned by
// the network.
func (s *service) Broadcast(ctx context.Context, txHex string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	result, err := s.breaker.Execute(func() (interface{}, error) {
		s.limiter.Take()
		status, resp, err := util.NewHTTPRequest(
			"POST", fmt.Sprintf("%s/tx", s.apiURL), txHex, nil,
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("broadcast failed: %s", resp)
		}
		return strings.TrimSpace(resp), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
