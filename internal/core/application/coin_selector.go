package application

import (
	"fmt"
	"sort"

	"github.com/tdex-network/liquid-wallet/internal/core/domain"
)

// selectCoins picks spendable txos of the given asset covering the target
// amount, largest first with the outpoint as deterministic tie-break, and
// returns the selection along with the leftover above the target.
func selectCoins(
	available []*domain.Txo, asset string, target uint64,
) ([]*domain.Txo, uint64, error) {
	if target == 0 {
		return nil, 0, nil
	}

	coins := make([]*domain.Txo, 0, len(available))
	total := uint64(0)
	for _, txo := range available {
		if txo.Secrets.AssetHash != asset {
			continue
		}
		coins = append(coins, txo)
		total += txo.Secrets.Value
	}
	if total < target {
		return nil, 0, fmt.Errorf(
			"%w: asset %s, target %d, available %d",
			ErrInsufficientFunds, asset, target, total,
		)
	}

	sort.Slice(coins, func(i, j int) bool {
		ci, cj := coins[i], coins[j]
		if ci.Secrets.Value != cj.Secrets.Value {
			return ci.Secrets.Value > cj.Secrets.Value
		}
		if ci.TxID != cj.TxID {
			return ci.TxID < cj.TxID
		}
		return ci.VOut < cj.VOut
	})

	selected := make([]*domain.Txo, 0, len(coins))
	covered := uint64(0)
	for _, txo := range coins {
		selected = append(selected, txo)
		covered += txo.Secrets.Value
		if covered >= target {
			break
		}
	}
	return selected, covered - target, nil
}
