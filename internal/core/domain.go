package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Asset-like account types hold money; their balance grows with inflows.
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCash     AccountType = "cash"
	// Liability-like account types accumulate debt; their stored balance is
	// still uniformly signed, presentation negates it (see Account.Debt).
	AccountCreditCard AccountType = "credit_card"
	AccountLoan       AccountType = "loan"
)

const (
	StatusUncleared  ClearingStatus = "uncleared"
	StatusCleared    ClearingStatus = "cleared"
	StatusReconciled ClearingStatus = "reconciled"
)

type (
	AccountType    string
	ClearingStatus string

	// Plan is the unit of sharing: it owns all accounts, categories, ledger
	// entries and envelopes. Plan-wide aggregates are derived, never stored.
	Plan struct {
		ID        uuid.UUID
		Name      string
		CreatedAt time.Time
	}

	Account struct {
		ID       uuid.UUID
		PlanID   uuid.UUID
		Name     string
		Type     AccountType
		Balance  Money
		OnBudget bool
		Closed   bool
	}

	CategoryGroup struct {
		ID       uuid.UUID
		PlanID   uuid.UUID
		Name     string
		Position int
		Hidden   bool
	}

	Category struct {
		ID       uuid.UUID
		PlanID   uuid.UUID
		GroupID  uuid.UUID
		Name     string
		Position int
		Hidden   bool
	}

	// LedgerEntry is a single recorded money movement. A negative amount is
	// an outflow from the source account, a positive amount an inflow.
	// A non-nil ToAccountID marks the entry as a transfer.
	LedgerEntry struct {
		ID            uuid.UUID
		PlanID        uuid.UUID
		Date          time.Time
		Amount        Money
		Payee         string
		Memo          string
		FromAccountID uuid.UUID
		ToAccountID   *uuid.UUID
		CategoryID    *uuid.UUID
		Status        ClearingStatus
		Flag          string
	}

	// Envelope tracks planned vs. consumed money for one (plan, category,
	// month) triple. Available is maintained incrementally and always equals
	// Budgeted minus Activity.
	Envelope struct {
		PlanID     uuid.UUID
		CategoryID uuid.UUID
		Month      Month
		Budgeted   Money
		Activity   Money
		Available  Money
	}

	// EnvelopeRow is an envelope joined with its category, as fetched for
	// month views and aggregate computation.
	EnvelopeRow struct {
		Envelope
		CategoryName string
		Hidden       bool
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidDate    = errors.New("invalid date")
	ErrMissingAccount = errors.New("missing source account")
	ErrSelfTransfer   = errors.New("transfer source and destination are the same account")
	ErrInvalidStatus  = errors.New("invalid clearing status")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
)

// IsLiability reports whether the account type accumulates debt.
func (t AccountType) IsLiability() bool {
	return t == AccountCreditCard || t == AccountLoan
}

// Valid reports whether the type is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCash, AccountCreditCard, AccountLoan:
		return true
	}
	return false
}

// Valid reports whether the status is one of the known clearing states.
func (s ClearingStatus) Valid() bool {
	switch s {
	case StatusUncleared, StatusCleared, StatusReconciled:
		return true
	}
	return false
}

// Debt returns the account's debt as a positive magnitude for liability-like
// accounts, and zero otherwise. The stored balance stays uniformly signed;
// only presentation uses this.
func (a Account) Debt() Money {
	if a.Type.IsLiability() && a.Balance.Cents < 0 {
		return a.Balance.Neg()
	}
	return Money{}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return fmt.Errorf("%w: account name too long (max 100 characters)", ErrInvalidInput)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown account type", ErrInvalidInput)
	}
	return nil
}

func (g CategoryGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.GroupID == uuid.Nil {
		return fmt.Errorf("%w: category requires a group", ErrInvalidInput)
	}
	return nil
}

// IsTransfer reports whether the entry moves money between two accounts.
func (e LedgerEntry) IsTransfer() bool {
	return e.ToAccountID != nil
}

// TouchesEnvelope reports whether applying the entry must move an envelope:
// only regular categorized entries do. Transfers never touch envelopes even
// when a category is set.
func (e LedgerEntry) TouchesEnvelope() bool {
	return e.ToAccountID == nil && e.CategoryID != nil
}

// Validate rejects entries before any effect is applied. All failures here
// are fully recoverable and surfaced to the caller immediately.
func (e LedgerEntry) Validate() error {
	if e.FromAccountID == uuid.Nil {
		return ErrMissingAccount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if e.ToAccountID != nil && *e.ToAccountID == e.FromAccountID {
		return ErrSelfTransfer
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}
	if len(e.Payee) > 200 {
		return fmt.Errorf("%w: payee too long (max 200 characters)", ErrInvalidInput)
	}
	if len(e.Memo) > 500 {
		return fmt.Errorf("%w: memo too long (max 500 characters)", ErrInvalidInput)
	}
	return nil
}
