package service

import (
	"context"
	"fmt"

	"github.com/granarybot/granary/internal/model"
	"github.com/granarybot/granary/internal/repository"
)

const (
	yieldNormal      int64 = 100
	yieldLucky       int64 = 777
	yieldUnfortunate int64 = 5
)

// tierForLuck maps a uniform draw in [0,1) to a reward tier: 10% lucky,
// 10% unfortunate, the rest normal. Both thresholds are exclusive.
func tierForLuck(luck float64) (model.Tier, int64) {
	switch {
	case luck > 0.9:
		return model.TierLucky, yieldLucky
	case luck < 0.1:
		return model.TierUnfortunate, yieldUnfortunate
	default:
		return model.TierNormal, yieldNormal
	}
}

// Dole issues the rate-limited daily reward. The claim-time read, cooldown
// check, mint transfer, and claim-time write run inside one storage unit,
// so two concurrent claims for the same account cannot both pass the check.
func (l *Ledger) Dole(ctx context.Context, id string) (*model.DoleReceipt, error) {
	var receipt model.DoleReceipt
	err := l.store.Update(ctx, func(tx repository.Tx) error {
		last, claimed, err := tx.LastDoledAt(id)
		if err != nil {
			return err
		}
		now := l.now()
		if claimed {
			if next := last.Add(l.cooldown); now.Before(next) {
				return &AlreadyDoledError{Remaining: next.Sub(now)}
			}
		}

		tier, amount := tierForLuck(l.luck())
		r, err := l.apply(tx, l.issuing, id, amount)
		if err != nil {
			return fmt.Errorf("%w: mint transfer failed: %v", ErrUnknown, err)
		}
		if err := tx.SetLastDoledAt(id, now); err != nil {
			return fmt.Errorf("%w: recording claim failed: %v", ErrUnknown, err)
		}

		receipt = model.DoleReceipt{
			Tier:    tier,
			Amount:  amount,
			Balance: r.DestinationBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
