package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/granarybot/granary/internal/model"
	"github.com/granarybot/granary/internal/repository"
)

const leaderboardKeyPrefix = "granary:top:"

// TopBalances returns the configured number of accounts ranked by balance,
// descending, ties broken by id. When a cache is configured the ranking is
// served read-through with the configured TTL; cache trouble falls back to
// the store.
func (l *Ledger) TopBalances(ctx context.Context) ([]model.BalanceEntry, error) {
	if l.cache != nil {
		if entries, err := l.cachedTopBalances(ctx); err == nil {
			return entries, nil
		}
	}

	var entries []model.BalanceEntry
	err := l.store.View(ctx, func(tx repository.Tx) error {
		var err error
		entries, err = tx.TopBalances(l.topLimit)
		return err
	})
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			l.cache.Set(ctx, l.leaderboardKey(), payload, l.cacheTTL)
		}
	}
	return entries, nil
}

func (l *Ledger) leaderboardKey() string {
	return fmt.Sprintf("%s%d", leaderboardKeyPrefix, l.topLimit)
}

func (l *Ledger) cachedTopBalances(ctx context.Context) ([]model.BalanceEntry, error) {
	payload, err := l.cache.Get(ctx, l.leaderboardKey()).Result()
	if err != nil {
		return nil, err
	}
	var entries []model.BalanceEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
