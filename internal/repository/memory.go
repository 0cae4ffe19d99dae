package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/granarybot/granary/internal/model"
)

var errReadOnlyUnit = errors.New("write inside read-only unit")

// MemoryStore keeps the whole ledger in process memory. Updates run under an
// exclusive lock and stage their effects in an overlay that is merged only
// when the closure succeeds, so a failed unit leaves no partial state.
// Suitable for tests and ephemeral setups; durability is PostgresStore's job.
type MemoryStore struct {
	mu       sync.RWMutex
	balances map[string]int64
	claims   map[string]time.Time
	log      []model.TransferRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[string]int64),
		claims:   make(map[string]time.Time),
	}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s, writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{store: s})
}

// TransferLog returns a copy of the audit log, oldest first.
func (s *MemoryStore) TransferLog() []model.TransferRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TransferRecord, len(s.log))
	copy(out, s.log)
	return out
}

type memTx struct {
	store    *MemoryStore
	writable bool

	// staged effects, merged on commit
	balances map[string]int64
	claims   map[string]time.Time
	log      []model.TransferRecord
}

func (t *memTx) commit() {
	for id, b := range t.balances {
		t.store.balances[id] = b
	}
	for id, at := range t.claims {
		t.store.claims[id] = at
	}
	t.store.log = append(t.store.log, t.log...)
}

func (t *memTx) EnsureAccount(id string) error {
	if !t.writable {
		return errReadOnlyUnit
	}
	if _, ok := t.balance(id); !ok {
		if t.balances == nil {
			t.balances = make(map[string]int64)
		}
		t.balances[id] = 0
	}
	return nil
}

func (t *memTx) balance(id string) (int64, bool) {
	if b, ok := t.balances[id]; ok {
		return b, true
	}
	b, ok := t.store.balances[id]
	return b, ok
}

func (t *memTx) Balance(id string) (int64, error) {
	b, ok := t.balance(id)
	if !ok {
		return 0, ErrAccountNotFound
	}
	return b, nil
}

func (t *memTx) AdjustBalance(id string, delta int64) error {
	if !t.writable {
		return errReadOnlyUnit
	}
	b, ok := t.balance(id)
	if !ok {
		return ErrAccountNotFound
	}
	if t.balances == nil {
		t.balances = make(map[string]int64)
	}
	t.balances[id] = b + delta
	return nil
}

func (t *memTx) LogTransfer(source, destination string, amount int64, at time.Time) error {
	if !t.writable {
		return errReadOnlyUnit
	}
	t.log = append(t.log, model.TransferRecord{
		ID:            uint64(len(t.store.log)+len(t.log)) + 1,
		Source:        source,
		Destination:   destination,
		Amount:        amount,
		TransferredAt: at,
	})
	return nil
}

func (t *memTx) LastDoledAt(id string) (time.Time, bool, error) {
	if at, ok := t.claims[id]; ok {
		return at, true, nil
	}
	at, ok := t.store.claims[id]
	return at, ok, nil
}

func (t *memTx) SetLastDoledAt(id string, at time.Time) error {
	if !t.writable {
		return errReadOnlyUnit
	}
	if t.claims == nil {
		t.claims = make(map[string]time.Time)
	}
	t.claims[id] = at
	return nil
}

func (t *memTx) TopBalances(limit int) ([]model.BalanceEntry, error) {
	merged := make(map[string]int64, len(t.store.balances)+len(t.balances))
	for id, b := range t.store.balances {
		merged[id] = b
	}
	for id, b := range t.balances {
		merged[id] = b
	}

	entries := make([]model.BalanceEntry, 0, len(merged))
	for id, b := range merged {
		entries = append(entries, model.BalanceEntry{ID: id, Balance: b})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return entries[i].ID < entries[j].ID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
