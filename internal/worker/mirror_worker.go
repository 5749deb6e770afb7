// Package worker exports ledger entries to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"envelope/internal/amqp"
	"envelope/internal/core"
	"envelope/internal/sheets"
	"envelope/internal/storage"
)

// MirrorWorker copies ledger entries into an external sheet. The mirror is a
// best-effort append-only log: a failed export marks the entry failed and
// moves on, it never blocks or retries into the ledger's write path. Updating
// an entry re-queues it for export.
type MirrorWorker struct {
	storage   *storage.Repository
	mirror    sheets.EntryMirror
	batchSize int
}

func NewMirrorWorker(storage *storage.Repository, mirror sheets.EntryMirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleEntryEvent exports the entry named by one AMQP event. Only storage
// errors are returned (and redelivered); a mirror failure is recorded on the
// entry and absorbed.
func (w *MirrorWorker) HandleEntryEvent(ctx context.Context, event *amqp.EntryEvent) error {
	if event.Action == amqp.ActionDeleted {
		// The mirror is append-only; deletions stay in the sheet history.
		slog.InfoContext(ctx, "Skipping mirror for deleted entry", "entry_id", event.EntryID)
		return nil
	}

	entry, err := w.storage.GetEntry(ctx, event.PlanID, event.EntryID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Entry vanished before mirroring", "entry_id", event.EntryID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entry for mirror: %w", err)
	}

	w.mirrorEntry(ctx, entry)
	return nil
}

// ProcessPending sweeps entries the event path missed, for example writes
// made while the broker was down. It returns how many entries were exported.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	entries, err := w.storage.ListPendingMirror(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending mirror entries: %w", err)
	}

	exported := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if w.mirrorEntry(ctx, entry) {
			exported++
		}
	}
	if exported > 0 {
		slog.InfoContext(ctx, "Mirror sweep finished",
			"exported", exported, "batch", len(entries))
	}
	return exported, nil
}

func (w *MirrorWorker) mirrorEntry(ctx context.Context, entry core.LedgerEntry) bool {
	ref, err := w.mirror.AppendEntry(ctx, entry)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to mirror entry",
			"entry_id", entry.ID, "error", err)
		if err := w.storage.SetMirrorStatus(ctx, entry.ID, storage.MirrorFailed); err != nil {
			slog.ErrorContext(ctx, "Failed to record mirror failure",
				"entry_id", entry.ID, "error", err)
		}
		return false
	}

	if err := w.storage.SetMirrorStatus(ctx, entry.ID, storage.MirrorDone); err != nil {
		slog.ErrorContext(ctx, "Failed to record mirror success",
			"entry_id", entry.ID, "error", err)
	}
	slog.InfoContext(ctx, "Entry mirrored", "entry_id", entry.ID, "row", ref)
	return true
}
