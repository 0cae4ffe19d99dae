package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granarybot/granary/internal/model"
	"github.com/granarybot/granary/internal/repository"
)

func fixedLuck(v float64) Option {
	return WithLuck(func() float64 { return v })
}

func TestDoleTiers(t *testing.T) {
	tests := []struct {
		name       string
		luck       float64
		wantTier   model.Tier
		wantAmount int64
	}{
		{name: "normal", luck: 0.5, wantTier: model.TierNormal, wantAmount: 100},
		{name: "lucky", luck: 0.95, wantTier: model.TierLucky, wantAmount: 777},
		{name: "unfortunate", luck: 0.05, wantTier: model.TierUnfortunate, wantAmount: 5},
		{name: "lucky threshold is exclusive", luck: 0.9, wantTier: model.TierNormal, wantAmount: 100},
		{name: "unfortunate threshold is exclusive", luck: 0.1, wantTier: model.TierNormal, wantAmount: 100},
		{name: "floor of the draw", luck: 0, wantTier: model.TierUnfortunate, wantAmount: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			led, _ := newTestLedger(t, fixedLuck(tt.luck))

			receipt, err := led.Dole(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, receipt.Tier)
			assert.Equal(t, tt.wantAmount, receipt.Amount)
			assert.Equal(t, tt.wantAmount, receipt.Balance)

			bankBalance, err := led.Balance(ctx, "BANK")
			require.NoError(t, err)
			assert.Equal(t, -tt.wantAmount, bankBalance)
		})
	}
}

func TestDoleCooldown(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	led, _ := newTestLedger(t,
		fixedLuck(0.5),
		WithClock(func() time.Time { return now }),
	)

	_, err := led.Dole(ctx, "alice")
	require.NoError(t, err)

	now = t0.Add(22 * time.Hour)
	receipt, err := led.Dole(ctx, "alice")
	assert.Nil(t, receipt)

	var doled *AlreadyDoledError
	require.ErrorAs(t, err, &doled)
	assert.Equal(t, time.Hour, doled.Remaining)
	h, m, s := doled.Countdown()
	assert.Equal(t, 1, h)
	assert.Equal(t, 0, m)
	assert.Equal(t, 0, s)

	// rejected claim left the balance alone
	balance, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	// exactly at the boundary the window has elapsed
	now = t0.Add(23 * time.Hour)
	receipt, err = led.Dole(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(200), receipt.Balance)
}

func TestDoleRejectedClaimKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	led, _ := newTestLedger(t,
		fixedLuck(0.5),
		WithClock(func() time.Time { return now }),
	)

	_, err := led.Dole(ctx, "alice")
	require.NoError(t, err)

	// the rejection must not push the window forward
	now = t0.Add(10 * time.Hour)
	_, err = led.Dole(ctx, "alice")
	var doled *AlreadyDoledError
	require.ErrorAs(t, err, &doled)

	now = t0.Add(23 * time.Hour)
	_, err = led.Dole(ctx, "alice")
	require.NoError(t, err)
}

func TestDoleConcurrentClaimsSingleWinner(t *testing.T) {
	ctx := context.Background()
	led, _ := newTestLedger(t, fixedLuck(0.5))

	const claims = 8
	var wg sync.WaitGroup
	errs := make([]error, claims)
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = led.Dole(ctx, "alice")
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var doled *AlreadyDoledError
		require.ErrorAs(t, err, &doled)
		rejections++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, claims-1, rejections)

	balance, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

// failingTx breaks the balance adjustment to exercise the claim's
// no-partial-effect guarantee.
type failingTx struct {
	repository.Tx
}

func (t *failingTx) AdjustBalance(id string, delta int64) error {
	return errors.New("adjust refused")
}

type failingStore struct {
	inner repository.Store
}

func (s *failingStore) Update(ctx context.Context, fn func(repository.Tx) error) error {
	return s.inner.Update(ctx, func(tx repository.Tx) error {
		return fn(&failingTx{Tx: tx})
	})
}

func (s *failingStore) View(ctx context.Context, fn func(repository.Tx) error) error {
	return s.inner.View(ctx, fn)
}

func TestDoleInternalTransferFailure(t *testing.T) {
	ctx := context.Background()
	base := repository.NewMemoryStore()
	broken := NewLedger(&failingStore{inner: base}, fixedLuck(0.5))

	receipt, err := broken.Dole(ctx, "alice")
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Nil(t, receipt)

	// nothing stuck: balance untouched and no claim recorded, so a healthy
	// ledger over the same store grants immediately
	healthy := NewLedger(base, fixedLuck(0.5))
	balance, err := healthy.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = healthy.Dole(ctx, "alice")
	require.NoError(t, err)
}
