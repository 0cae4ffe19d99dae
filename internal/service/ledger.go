package service

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/exp/rand"

	"github.com/granarybot/granary/internal/model"
	"github.com/granarybot/granary/internal/repository"
)

const (
	DefaultIssuingAccount = "BANK"
	DefaultCooldown       = 23 * time.Hour
	DefaultTopLimit       = 10
)

// Ledger is the virtual-currency core. All balance mutations funnel through
// a single transfer step applied inside one storage unit, so the issuing
// account stays the sole source and sink of net new value.
type Ledger struct {
	store    repository.Store
	issuing  string
	cooldown time.Duration
	topLimit int
	now      func() time.Time
	luck     func() float64
	cache    *redis.Client
	cacheTTL time.Duration
}

type Option func(*Ledger)

// WithIssuingAccount overrides the reserved money-supply account id.
func WithIssuingAccount(id string) Option {
	return func(l *Ledger) { l.issuing = id }
}

// WithCooldown overrides the wait between successful dole claims.
func WithCooldown(d time.Duration) Option {
	return func(l *Ledger) { l.cooldown = d }
}

// WithTopLimit sets how many rows TopBalances returns.
func WithTopLimit(n int) Option {
	return func(l *Ledger) { l.topLimit = n }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLuck injects the random source for the dole tier draw. The function
// must return values in [0,1) and be safe for concurrent use.
func WithLuck(luck func() float64) Option {
	return func(l *Ledger) { l.luck = luck }
}

// WithLeaderboardCache serves TopBalances through a Redis read-through
// cache with the given TTL.
func WithLeaderboardCache(client *redis.Client, ttl time.Duration) Option {
	return func(l *Ledger) {
		l.cache = client
		l.cacheTTL = ttl
	}
}

func NewLedger(store repository.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		issuing:  DefaultIssuingAccount,
		cooldown: DefaultCooldown,
		topLimit: DefaultTopLimit,
		now:      time.Now,
		luck:     rand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IssuingAccount returns the reserved money-supply account id.
func (l *Ledger) IssuingAccount() string {
	return l.issuing
}

// Balance returns the current balance for id, creating the account with a
// zero balance on first reference.
func (l *Ledger) Balance(ctx context.Context, id string) (int64, error) {
	var balance int64
	err := l.store.Update(ctx, func(tx repository.Tx) error {
		if err := tx.EnsureAccount(id); err != nil {
			return err
		}
		b, err := tx.Balance(id)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Transfer moves amount from source to destination as one atomic unit:
// debit, credit, and audit record apply together or not at all. The issuing
// account may overdraw; everyone else needs the funds.
func (l *Ledger) Transfer(ctx context.Context, source, destination string, amount int64) (*model.TransferReceipt, error) {
	var receipt model.TransferReceipt
	err := l.store.Update(ctx, func(tx repository.Tx) error {
		r, err := l.apply(tx, source, destination, amount)
		if err != nil {
			return err
		}
		receipt = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// apply is the single mutation path shared by Transfer and Dole.
func (l *Ledger) apply(tx repository.Tx, source, destination string, amount int64) (*model.TransferReceipt, error) {
	if err := tx.EnsureAccount(source); err != nil {
		return nil, err
	}
	if err := tx.EnsureAccount(destination); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	sourceBalance, err := tx.Balance(source)
	if err != nil {
		return nil, err
	}
	if source != l.issuing && sourceBalance < amount {
		return nil, ErrInsufficientFunds
	}
	if err := tx.AdjustBalance(source, -amount); err != nil {
		return nil, err
	}
	if err := tx.AdjustBalance(destination, amount); err != nil {
		return nil, err
	}
	if err := tx.LogTransfer(source, destination, amount, l.now()); err != nil {
		return nil, err
	}
	sourceAfter, err := tx.Balance(source)
	if err != nil {
		return nil, err
	}
	destinationAfter, err := tx.Balance(destination)
	if err != nil {
		return nil, err
	}
	return &model.TransferReceipt{
		SourceBalance:      sourceAfter,
		DestinationBalance: destinationAfter,
	}, nil
}
