package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// Resource names tracked in sync_state.
const (
	ResourceExpenses   = "expenses"
	ResourceLendBorrow = "lendborrow"
)

// SyncState records the last completed refresh for one upstream resource.
type SyncState struct {
	Resource string
	Sequence uint64
	SyncedAt time.Time
}

// SQLiteRepository is the local read mirror of the upstream services.
// Amounts are stored as decimal strings to avoid float drift.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceTransactions swaps the mirrored expense set for one owner in a
// single transaction so readers never observe a partial refresh.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, ownerID string, txs []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, title, amount, category, year, month, day, owner_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.Title, t.Amount.String(), t.Category,
			t.Date.Year, t.Date.Month, t.Date.Day, ownerID)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns the mirrored expenses for one owner, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, amount, category, year, month, day
		FROM transactions
		WHERE owner_id = ?
		ORDER BY year DESC, month DESC, day DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.Title, &amount, &t.Category, &t.Date.Year, &t.Date.Month, &t.Date.Day); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount for transaction %s: %w", t.ID, err)
		}
		t.OwnerID = ownerID
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// ReplaceEntries swaps the mirrored lend-borrow set for one owner.
func (r *SQLiteRepository) ReplaceEntries(ctx context.Context, ownerID string, entries []core.LendBorrowEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lend_borrow_entries WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lend_borrow_entries (id, friend_name, friend_id, amount, type, reason, year, month, day, status, owner_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		status := e.Status
		if status == "" {
			status = core.StatusPending
		}
		_, err := stmt.ExecContext(ctx,
			e.ID, e.CounterpartyName, e.CounterpartyID, e.Amount.String(),
			string(e.Type), e.Reason, e.Date.Year, e.Date.Month, e.Date.Day,
			string(status), ownerID)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// ListEntries returns the mirrored lend-borrow entries for one owner, newest first.
func (r *SQLiteRepository) ListEntries(ctx context.Context, ownerID string) ([]core.LendBorrowEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, friend_name, friend_id, amount, type, reason, year, month, day, status
		FROM lend_borrow_entries
		WHERE owner_id = ?
		ORDER BY year DESC, month DESC, day DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LendBorrowEntry
	for rows.Next() {
		var e core.LendBorrowEntry
		var amount, entryType, status string
		if err := rows.Scan(&e.ID, &e.CounterpartyName, &e.CounterpartyID, &amount, &entryType, &e.Reason,
			&e.Date.Year, &e.Date.Month, &e.Date.Day, &status); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount for entry %s: %w", e.ID, err)
		}
		e.Type = core.EntryType(entryType)
		e.Status = core.EntryStatus(status)
		e.OwnerID = ownerID
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// GetSyncState returns the last recorded refresh for a resource, or nil if
// the resource has never been synced.
func (r *SQLiteRepository) GetSyncState(ctx context.Context, resource string) (*SyncState, error) {
	var state SyncState
	var syncedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT resource, sequence, synced_at FROM sync_state WHERE resource = ?`, resource).
		Scan(&state.Resource, &state.Sequence, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sync state: %w", err)
	}

	state.SyncedAt, err = parseSQLiteTime(syncedAt)
	if err != nil {
		return nil, fmt.Errorf("parse synced_at for %s: %w", resource, err)
	}

	return &state, nil
}

// SetSyncState records a completed refresh for a resource.
func (r *SQLiteRepository) SetSyncState(ctx context.Context, resource string, seq uint64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (resource, sequence, synced_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(resource) DO UPDATE SET sequence = excluded.sequence, synced_at = CURRENT_TIMESTAMP`,
		resource, seq)
	if err != nil {
		return fmt.Errorf("set sync state: %w", err)
	}
	return nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
