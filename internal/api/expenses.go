package api

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TransactionInput is the payload for creating or updating an expense.
type TransactionInput struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     core.Date       `json:"date"`
}

// ListExpenses fetches the authenticated user's expenses. Each record is
// validated at this boundary: a non-positive or malformed amount is rejected
// with a ValidationError instead of silently summing as zero downstream.
func (c *Client) ListExpenses(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.get(ctx, c.expensesURL, &txs); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d (%s): %w", i, tx.ID, err)
		}
	}
	return txs, nil
}

// CreateExpense records a new expense and returns it as stored.
func (c *Client) CreateExpense(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	var created core.Transaction
	if err := c.post(ctx, c.expensesURL, in, &created); err != nil {
		return core.Transaction{}, fmt.Errorf("create expense: %w", err)
	}
	return created, nil
}

// UpdateExpense replaces an expense's fields.
func (c *Client) UpdateExpense(ctx context.Context, id string, in TransactionInput) (core.Transaction, error) {
	var updated core.Transaction
	if err := c.put(ctx, c.expensesURL+"/"+id, in, &updated); err != nil {
		return core.Transaction{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	return updated, nil
}

// DeleteExpense removes an expense by id.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if err := c.delete(ctx, c.expensesURL+"/"+id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}
