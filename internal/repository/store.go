package repository

import (
	"context"
	"errors"
	"time"

	"github.com/granarybot/granary/internal/model"
)

var ErrAccountNotFound = errors.New("account not found")

// Store is the transactional storage collaborator the ledger issues
// statements against. Update runs fn as one atomic read-write unit: either
// every effect staged by fn commits, or (on a non-nil error) none do. View
// runs fn read-only. Units for the same rows are serialized by the backend.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the statement set available inside a storage unit. Inside an Update,
// Balance and LastDoledAt acquire the backing row so concurrent units for
// the same account serialize.
type Tx interface {
	// EnsureAccount creates a zero-balance row if absent. Idempotent.
	EnsureAccount(id string) error
	Balance(id string) (int64, error)
	AdjustBalance(id string, delta int64) error
	LogTransfer(source, destination string, amount int64, at time.Time) error
	// LastDoledAt reports the last successful claim time; ok is false when
	// the account has never claimed.
	LastDoledAt(id string) (at time.Time, ok bool, err error)
	SetLastDoledAt(id string, at time.Time) error
	TopBalances(limit int) ([]model.BalanceEntry, error)
}
