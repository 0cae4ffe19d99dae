package model

import "time"

// Account is a per-user balance row. Accounts are created lazily on first
// reference and never deleted. Balances are whole units, no minor currency.
type Account struct {
	ID        string    `json:"id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransferRecord is an append-only audit entry, one per successful transfer.
type TransferRecord struct {
	ID            uint64    `json:"id"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	Amount        int64     `json:"amount"`
	TransferredAt time.Time `json:"transferred_at"`
}

// DoleClaim tracks the last successful daily-reward claim for one account.
type DoleClaim struct {
	AccountID   string    `json:"account_id"`
	LastDoledAt time.Time `json:"last_doled_at"`
}

// Tier is the randomized dole outcome.
type Tier string

const (
	TierNormal      Tier = "NORMAL"
	TierLucky       Tier = "LUCKY"
	TierUnfortunate Tier = "UNFORTUNATE"
)

// TransferReceipt reports the post-transfer balances of both parties.
type TransferReceipt struct {
	SourceBalance      int64 `json:"sourceBalance"`
	DestinationBalance int64 `json:"destinationBalance"`
}

// DoleReceipt reports a successful claim: the drawn tier, the amount it
// granted, and the claimant's resulting balance.
type DoleReceipt struct {
	Tier    Tier  `json:"tier"`
	Amount  int64 `json:"amount"`
	Balance int64 `json:"balance"`
}

// BalanceEntry is one leaderboard row.
type BalanceEntry struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}
