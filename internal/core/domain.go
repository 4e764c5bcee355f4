package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TypeLent     EntryType = "lent"
	TypeBorrowed EntryType = "borrowed"

	StatusPending EntryStatus = "pending"
	StatusSettled EntryStatus = "settled"
)

type (
	// EntryType says which direction the money went.
	EntryType string

	// EntryStatus is the settlement state of a lend/borrow entry.
	// Transitions one way only: pending -> settled.
	EntryStatus string

	// Transaction is a single recorded expense.
	Transaction struct {
		ID       string          `json:"_id"`
		Title    string          `json:"title"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Date     Date            `json:"date"`
		OwnerID  string          `json:"ownerId,omitempty"`
	}

	// LendBorrowEntry records money lent to or borrowed from a counterparty.
	LendBorrowEntry struct {
		ID               string          `json:"_id"`
		CounterpartyName string          `json:"friendName"`
		CounterpartyID   string          `json:"friendId,omitempty"`
		Amount           decimal.Decimal `json:"amount"`
		Type             EntryType       `json:"type"`
		Reason           string          `json:"reason,omitempty"`
		Date             Date            `json:"date"`
		Status           EntryStatus     `json:"status"`
		OwnerID          string          `json:"ownerId,omitempty"`
	}

	// User is the profile cached alongside the session token.
	User struct {
		ID       string `json:"_id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// Session holds the bearer credential and the optional cached profile.
	Session struct {
		Token string `json:"token"`
		User  *User  `json:"user,omitempty"`
	}

	// CategorySummary is a derived rollup of amounts per category.
	CategorySummary struct {
		Category string          `json:"category"`
		Total    decimal.Decimal `json:"total"`
	}

	// MonthSummary is a derived rollup of amounts per "Jan 2006" bucket.
	MonthSummary struct {
		Month string          `json:"month"`
		Total decimal.Decimal `json:"total"`
	}

	// PendingBalances summarizes unsettled lend/borrow entries. Settled
	// entries are excluded from the pending sums; all-time totals are the
	// plain sum over every entry.
	PendingBalances struct {
		LentPending     decimal.Decimal `json:"lentPending"`
		BorrowedPending decimal.Decimal `json:"borrowedPending"`
		UnsettledCount  int             `json:"unsettledCount"`
	}
)

var (
	ErrEmptyTitle        = errors.New("empty title")
	ErrEmptyCounterparty = errors.New("empty counterparty name")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidEntryType  = errors.New("entry type must be lent or borrowed")
	ErrInvalidStatus     = errors.New("status must be pending or settled")
	ErrEmptyDate         = errors.New("date cannot be empty")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
)

// ValidationError marks a record rejected at an ingestion boundary. It wraps
// one of the sentinel errors above so callers can still match with errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if err := t.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	return nil
}

func (e LendBorrowEntry) Validate() error {
	if strings.TrimSpace(e.CounterpartyName) == "" {
		return &ValidationError{Field: "friendName", Err: ErrEmptyCounterparty}
	}
	if !e.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if e.Type != TypeLent && e.Type != TypeBorrowed {
		return &ValidationError{Field: "type", Err: ErrInvalidEntryType}
	}
	if e.Status != "" && e.Status != StatusPending && e.Status != StatusSettled {
		return &ValidationError{Field: "status", Err: ErrInvalidStatus}
	}
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	return nil
}

// Settled reports whether the entry has been marked settled. Anything else,
// including a missing status, counts as pending.
func (e LendBorrowEntry) Settled() bool {
	return e.Status == StatusSettled
}
