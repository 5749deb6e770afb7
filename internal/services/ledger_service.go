// Package services orchestrates ledger operations across SQLite and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"envelope/internal/amqp"
	"envelope/internal/core"
	"envelope/internal/storage"

	"github.com/google/uuid"
)

// LedgerService owns the write path for ledger entries. The entry record is
// the single authoritative write: once it lands, the operation has succeeded.
// Account balances and envelopes are propagated best-effort afterwards, each
// as its own atomic increment; a failed propagation is logged and absorbed,
// never retried and never surfaced.
type LedgerService struct {
	storage *storage.Repository
	events  *amqp.Client
}

func NewLedgerService(storage *storage.Repository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		storage: storage,
		events:  events,
	}
}

// CreateEntry validates and records a new entry, then propagates its effects.
// The returned entry carries the assigned id.
func (s *LedgerService) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = core.StatusUncleared
	}
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	if err := s.storage.InsertEntry(ctx, e); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}

	s.applyEffects(ctx, e)
	s.publishEvent(ctx, e, amqp.ActionCreated)
	return e, nil
}

// UpdateEntry replaces a stored entry. The old record's effects are reversed
// from a snapshot of what was actually stored, then the new record's effects
// are applied, so client input can never corrupt the reversal.
func (s *LedgerService) UpdateEntry(ctx context.Context, e core.LedgerEntry) error {
	snapshot, err := s.storage.GetEntry(ctx, e.PlanID, e.ID)
	if err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = core.StatusUncleared
	}
	if err := e.Validate(); err != nil {
		return err
	}

	if err := s.storage.UpdateEntry(ctx, e); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	s.reverseEffects(ctx, snapshot)
	s.applyEffects(ctx, e)
	s.publishEvent(ctx, e, amqp.ActionUpdated)
	return nil
}

// DeleteEntry reverses a stored entry's effects and removes the record.
func (s *LedgerService) DeleteEntry(ctx context.Context, planID, id uuid.UUID) error {
	snapshot, err := s.storage.GetEntry(ctx, planID, id)
	if err != nil {
		return err
	}

	s.reverseEffects(ctx, snapshot)

	if err := s.storage.DeleteEntry(ctx, planID, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.publishEvent(ctx, snapshot, amqp.ActionDeleted)
	return nil
}

// GetEntry fetches one entry.
func (s *LedgerService) GetEntry(ctx context.Context, planID, id uuid.UUID) (core.LedgerEntry, error) {
	return s.storage.GetEntry(ctx, planID, id)
}

// ListEntries returns the plan's entries for one month, newest first.
func (s *LedgerService) ListEntries(ctx context.Context, planID uuid.UUID, month core.Month) ([]core.LedgerEntry, error) {
	return s.storage.ListEntriesByMonth(ctx, planID, month)
}

// applyEffects propagates an entry into account balances and, for regular
// categorized entries, into the envelope of the entry's month. Envelope
// activity is recorded as a magnitude regardless of the entry's sign.
func (s *LedgerService) applyEffects(ctx context.Context, e core.LedgerEntry) {
	if err := s.storage.AdjustBalance(ctx, e.PlanID, e.FromAccountID, e.Amount); err != nil {
		slog.ErrorContext(ctx, "Failed to adjust source account balance",
			"entry_id", e.ID, "account_id", e.FromAccountID, "error", err)
	}
	if e.IsTransfer() {
		if err := s.storage.AdjustBalance(ctx, e.PlanID, *e.ToAccountID, e.Amount.Neg()); err != nil {
			slog.ErrorContext(ctx, "Failed to adjust destination account balance",
				"entry_id", e.ID, "account_id", *e.ToAccountID, "error", err)
		}
	}
	if e.TouchesEnvelope() {
		month := core.MonthOf(e.Date)
		if err := s.storage.ApplyActivity(ctx, e.PlanID, *e.CategoryID, month, e.Amount.Abs()); err != nil {
			slog.ErrorContext(ctx, "Failed to apply envelope activity",
				"entry_id", e.ID, "category_id", *e.CategoryID, "month", month, "error", err)
		}
	}
}

// reverseEffects undoes applyEffects for a previously stored entry.
func (s *LedgerService) reverseEffects(ctx context.Context, e core.LedgerEntry) {
	if err := s.storage.AdjustBalance(ctx, e.PlanID, e.FromAccountID, e.Amount.Neg()); err != nil {
		slog.ErrorContext(ctx, "Failed to reverse source account balance",
			"entry_id", e.ID, "account_id", e.FromAccountID, "error", err)
	}
	if e.IsTransfer() {
		if err := s.storage.AdjustBalance(ctx, e.PlanID, *e.ToAccountID, e.Amount); err != nil {
			slog.ErrorContext(ctx, "Failed to reverse destination account balance",
				"entry_id", e.ID, "account_id", *e.ToAccountID, "error", err)
		}
	}
	if e.TouchesEnvelope() {
		month := core.MonthOf(e.Date)
		if err := s.storage.ReverseActivity(ctx, e.PlanID, *e.CategoryID, month, e.Amount.Abs()); err != nil {
			slog.ErrorContext(ctx, "Failed to reverse envelope activity",
				"entry_id", e.ID, "category_id", *e.CategoryID, "month", month, "error", err)
		}
	}
}

func (s *LedgerService) publishEvent(ctx context.Context, e core.LedgerEntry, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntryEvent(ctx, amqp.NewEntryEvent(e.ID, e.PlanID, action)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"entry_id", e.ID, "action", action, "error", err)
	}
}

// Close releases storage and broker connections.
func (s *LedgerService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
