package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"envelope/internal/core"

	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

// Mirror states for the spreadsheet mirror worker. New entries start pending;
// the worker moves them to mirrored or failed.
const (
	MirrorPending = 0
	MirrorDone    = 1
	MirrorFailed  = 2
)

// InsertEntry writes the authoritative ledger-entry record. Account and
// envelope effects are applied separately by the caller.
func (r *Repository) InsertEntry(ctx context.Context, e core.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, plan_id, date, amount, payee, memo,
		                      from_account_id, to_account_id, category_id, status, flag)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.PlanID.String(), e.Date.Format(dateFormat), e.Amount.Cents,
		e.Payee, e.Memo, e.FromAccountID.String(),
		uuidOrNil(e.ToAccountID), uuidOrNil(e.CategoryID), string(e.Status), e.Flag)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry recorded",
		"id", e.ID, "amount", e.Amount, "payee", e.Payee)
	return nil
}

// GetEntry fetches one entry. Callers snapshot the stored row through this
// before updating or deleting it, so reversal works from what was actually
// applied rather than from client input.
func (r *Repository) GetEntry(ctx context.Context, planID, id uuid.UUID) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, plan_id, date, amount, payee, memo,
		        from_account_id, to_account_id, category_id, status, flag
		 FROM entries WHERE plan_id = ? AND id = ?`,
		planID.String(), id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// UpdateEntry overwrites the stored record and resets its mirror state so the
// mirror worker picks the new version up again.
func (r *Repository) UpdateEntry(ctx context.Context, e core.LedgerEntry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entries
		 SET date = ?, amount = ?, payee = ?, memo = ?,
		     from_account_id = ?, to_account_id = ?, category_id = ?,
		     status = ?, flag = ?, mirror_status = ?
		 WHERE plan_id = ? AND id = ?`,
		e.Date.Format(dateFormat), e.Amount.Cents, e.Payee, e.Memo,
		e.FromAccountID.String(), uuidOrNil(e.ToAccountID), uuidOrNil(e.CategoryID),
		string(e.Status), e.Flag, MirrorPending,
		e.PlanID.String(), e.ID.String())
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", e.ID, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Entry updated", "id", e.ID, "amount", e.Amount)
	return nil
}

// DeleteEntry removes the authoritative record.
func (r *Repository) DeleteEntry(ctx context.Context, planID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE plan_id = ? AND id = ?`,
		planID.String(), id.String())
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Entry deleted", "id", id)
	return nil
}

// ListEntriesByMonth returns a plan's entries dated inside the month, newest
// first.
func (r *Repository) ListEntriesByMonth(ctx context.Context, planID uuid.UUID, month core.Month) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, date, amount, payee, memo,
		        from_account_id, to_account_id, category_id, status, flag
		 FROM entries
		 WHERE plan_id = ? AND date >= ? AND date < ?
		 ORDER BY date DESC, id`,
		planID.String(), month.Key(), month.Next().Key())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthIncome sums the month's inflows: positive amounts of regular
// uncategorized entries landing on open on-budget accounts. Transfers and
// categorized inflows are excluded, the latter already count as negative
// envelope activity.
func (r *Repository) MonthIncome(ctx context.Context, planID uuid.UUID, month core.Month) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(e.amount), 0)
		 FROM entries e
		 JOIN accounts a ON a.id = e.from_account_id
		 WHERE e.plan_id = ? AND e.date >= ? AND e.date < ?
		   AND e.amount > 0
		   AND e.to_account_id IS NULL
		   AND e.category_id IS NULL
		   AND a.on_budget = 1
		   AND a.closed = 0`,
		planID.String(), month.Key(), month.Next().Key(),
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("month income: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// ListPendingMirror returns up to limit entries the mirror worker has not
// exported yet, oldest first.
func (r *Repository) ListPendingMirror(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, date, amount, payee, memo,
		        from_account_id, to_account_id, category_id, status, flag
		 FROM entries WHERE mirror_status = ?
		 ORDER BY date, id LIMIT ?`,
		MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetMirrorStatus records the outcome of a mirror attempt.
func (r *Repository) SetMirrorStatus(ctx context.Context, id uuid.UUID, status int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET mirror_status = ? WHERE id = ?`,
		status, id.String())
	if err != nil {
		return fmt.Errorf("set mirror status: %w", err)
	}
	return nil
}

func scanEntry(row rowScanner) (core.LedgerEntry, error) {
	var e core.LedgerEntry
	var id, planStr, date, from, status string
	var to, category sql.NullString
	if err := row.Scan(&id, &planStr, &date, &e.Amount.Cents, &e.Payee, &e.Memo,
		&from, &to, &category, &status, &e.Flag); err != nil {
		return core.LedgerEntry{}, err
	}
	e.ID = uuid.MustParse(id)
	e.PlanID = uuid.MustParse(planStr)
	e.FromAccountID = uuid.MustParse(from)
	e.Status = core.ClearingStatus(status)

	d, err := time.Parse(dateFormat, date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse entry date %q: %w", date, err)
	}
	e.Date = d

	if to.Valid {
		u := uuid.MustParse(to.String)
		e.ToAccountID = &u
	}
	if category.Valid {
		u := uuid.MustParse(category.String)
		e.CategoryID = &u
	}
	return e, nil
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
