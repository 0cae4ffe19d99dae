package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/granarybot/granary/internal/model"
)

// PostgresStore backs the ledger with Postgres. Every Update maps to one DB
// transaction; balance and claim reads inside it take row locks so that
// concurrent units touching the same account serialize on commit order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{ctx: ctx, tx: tx, writable: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type pgTx struct {
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

func (t *pgTx) EnsureAccount(id string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

func (t *pgTx) Balance(id string) (int64, error) {
	query := `SELECT balance FROM accounts WHERE id = $1`
	if t.writable {
		query += ` FOR UPDATE`
	}
	var balance int64
	err := t.tx.QueryRowContext(t.ctx, query, id).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (t *pgTx) AdjustBalance(id string, delta int64) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) LogTransfer(source, destination string, amount int64, at time.Time) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO transfers (source_id, destination_id, amount, transferred_at)
		 VALUES ($1, $2, $3, $4)`,
		source, destination, amount, at,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			return fmt.Errorf("transfer amount rejected by audit constraint: %w", err)
		}
		return fmt.Errorf("failed to log transfer: %w", err)
	}
	return nil
}

// LastDoledAt locks the claim row inside a writable unit. The row is
// created with a NULL timestamp on first sight so there is always something
// to lock; a NULL reads back as "never claimed".
func (t *pgTx) LastDoledAt(id string) (time.Time, bool, error) {
	query := `SELECT last_doled_at FROM dole_claims WHERE account_id = $1`
	if t.writable {
		_, err := t.tx.ExecContext(t.ctx,
			`INSERT INTO dole_claims (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`,
			id,
		)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("failed to ensure claim row: %w", err)
		}
		query += ` FOR UPDATE`
	}
	var at sql.NullTime
	err := t.tx.QueryRowContext(t.ctx, query, id).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last claim: %w", err)
	}
	if !at.Valid {
		return time.Time{}, false, nil
	}
	return at.Time, true, nil
}

func (t *pgTx) SetLastDoledAt(id string, at time.Time) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO dole_claims (account_id, last_doled_at) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO UPDATE SET last_doled_at = EXCLUDED.last_doled_at`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to record claim: %w", err)
	}
	return nil
}

func (t *pgTx) TopBalances(limit int) ([]model.BalanceEntry, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT id, balance FROM accounts ORDER BY balance DESC, id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read top balances: %w", err)
	}
	defer rows.Close()

	var entries []model.BalanceEntry
	for rows.Next() {
		var e model.BalanceEntry
		if err := rows.Scan(&e.ID, &e.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan top balance row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top balances: %w", err)
	}
	return entries, nil
}
