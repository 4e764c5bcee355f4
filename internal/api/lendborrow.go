package api

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// EntryInput is the payload for creating a lend/borrow entry. Entries are
// always created pending; the status field is owned by the service.
type EntryInput struct {
	CounterpartyName string          `json:"friendName"`
	CounterpartyID   string          `json:"friendId,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Type             core.EntryType  `json:"type"`
	Reason           string          `json:"reason,omitempty"`
	Date             core.Date       `json:"date,omitempty"`
}

// ListEntries fetches the authenticated user's lend/borrow entries,
// validating each record at the boundary.
func (c *Client) ListEntries(ctx context.Context) ([]core.LendBorrowEntry, error) {
	var entries []core.LendBorrowEntry
	if err := c.get(ctx, c.lendBorrowURL, &entries); err != nil {
		return nil, fmt.Errorf("list lend/borrow entries: %w", err)
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.ID, err)
		}
	}
	return entries, nil
}

// CreateEntry records a new lend/borrow entry and returns it as stored.
func (c *Client) CreateEntry(ctx context.Context, in EntryInput) (core.LendBorrowEntry, error) {
	var created core.LendBorrowEntry
	if err := c.post(ctx, c.lendBorrowURL, in, &created); err != nil {
		return core.LendBorrowEntry{}, fmt.Errorf("create entry: %w", err)
	}
	return created, nil
}

// SettleEntry marks an entry settled. The transition is one-way; there is no
// un-settle.
func (c *Client) SettleEntry(ctx context.Context, id string) (core.LendBorrowEntry, error) {
	body := map[string]string{"status": string(core.StatusSettled)}
	var updated core.LendBorrowEntry
	if err := c.put(ctx, c.lendBorrowURL+"/"+id, body, &updated); err != nil {
		return core.LendBorrowEntry{}, fmt.Errorf("settle entry %s: %w", id, err)
	}
	return updated, nil
}

// DeleteEntry removes an entry by id.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if err := c.delete(ctx, c.lendBorrowURL+"/"+id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return nil
}
