package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"envelope/internal/core"

	"github.com/google/uuid"
)

// ApplyActivity adds a positive activity magnitude to the envelope of
// (plan, category, month), creating it on first touch with budgeted zero.
// Available moves down by the same magnitude so that
// available = budgeted - activity keeps holding.
func (r *Repository) ApplyActivity(ctx context.Context, planID, categoryID uuid.UUID, month core.Month, magnitude core.Money) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO envelopes (plan_id, category_id, month, budgeted, activity, available)
		 VALUES (?, ?, ?, 0, ?, ?)
		 ON CONFLICT(plan_id, category_id, month) DO UPDATE SET
		     activity  = activity + excluded.activity,
		     available = available - excluded.activity`,
		planID.String(), categoryID.String(), month.Key(),
		magnitude.Cents, -magnitude.Cents)
	if err != nil {
		return fmt.Errorf("apply envelope activity: %w", err)
	}
	return nil
}

// ReverseActivity subtracts a previously applied activity magnitude. It is a
// plain update: when the envelope row never got created the statement affects
// nothing, which is exactly the right outcome for reversing an effect that
// never landed.
func (r *Repository) ReverseActivity(ctx context.Context, planID, categoryID uuid.UUID, month core.Month, magnitude core.Money) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE envelopes
		 SET activity = activity - ?, available = available + ?
		 WHERE plan_id = ? AND category_id = ? AND month = ?`,
		magnitude.Cents, magnitude.Cents,
		planID.String(), categoryID.String(), month.Key())
	if err != nil {
		return fmt.Errorf("reverse envelope activity: %w", err)
	}
	return nil
}

// SetBudgeted overwrites the budgeted figure of one envelope, creating it if
// missing. Available moves by the budgeted delta so the stored row keeps
// available = budgeted - activity.
func (r *Repository) SetBudgeted(ctx context.Context, planID, categoryID uuid.UUID, month core.Month, amount core.Money) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO envelopes (plan_id, category_id, month, budgeted, activity, available)
		 VALUES (?, ?, ?, ?, 0, ?)
		 ON CONFLICT(plan_id, category_id, month) DO UPDATE SET
		     available = available + (excluded.budgeted - budgeted),
		     budgeted  = excluded.budgeted`,
		planID.String(), categoryID.String(), month.Key(),
		amount.Cents, amount.Cents)
	if err != nil {
		return fmt.Errorf("set budgeted: %w", err)
	}
	slog.InfoContext(ctx, "Budgeted amount set",
		"category", categoryID, "month", month, "amount", amount)
	return nil
}

// GetEnvelope fetches one envelope row. A missing row is reported as
// core.ErrNotFound; callers treat that as an all-zero envelope.
func (r *Repository) GetEnvelope(ctx context.Context, planID, categoryID uuid.UUID, month core.Month) (core.Envelope, error) {
	var e core.Envelope
	err := r.db.QueryRowContext(ctx,
		`SELECT budgeted, activity, available
		 FROM envelopes WHERE plan_id = ? AND category_id = ? AND month = ?`,
		planID.String(), categoryID.String(), month.Key(),
	).Scan(&e.Budgeted.Cents, &e.Activity.Cents, &e.Available.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Envelope{}, fmt.Errorf("envelope %s/%s: %w", categoryID, month, core.ErrNotFound)
	}
	if err != nil {
		return core.Envelope{}, fmt.Errorf("get envelope: %w", err)
	}
	e.PlanID = planID
	e.CategoryID = categoryID
	e.Month = month
	return e, nil
}

// ListEnvelopes returns the month's envelopes joined with their category.
// Categories without an envelope row produce an all-zero row, so the month
// view always shows every visible category.
func (r *Repository) ListEnvelopes(ctx context.Context, planID uuid.UUID, month core.Month) ([]core.EnvelopeRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name,
		        (c.hidden != 0 OR g.hidden != 0) AS hidden,
		        COALESCE(e.budgeted, 0), COALESCE(e.activity, 0), COALESCE(e.available, 0)
		 FROM categories c
		 JOIN category_groups g ON g.id = c.group_id
		 LEFT JOIN envelopes e
		   ON e.plan_id = c.plan_id AND e.category_id = c.id AND e.month = ?
		 WHERE c.plan_id = ?
		 ORDER BY g.position, c.position, c.name`,
		month.Key(), planID.String())
	if err != nil {
		return nil, fmt.Errorf("list envelopes: %w", err)
	}
	defer rows.Close()

	var out []core.EnvelopeRow
	for rows.Next() {
		var row core.EnvelopeRow
		var categoryID string
		var hidden int
		if err := rows.Scan(&categoryID, &row.CategoryName, &hidden,
			&row.Budgeted.Cents, &row.Activity.Cents, &row.Available.Cents); err != nil {
			return nil, fmt.Errorf("scan envelope row: %w", err)
		}
		row.PlanID = planID
		row.CategoryID = uuid.MustParse(categoryID)
		row.Month = month
		row.Hidden = hidden != 0
		out = append(out, row)
	}
	return out, rows.Err()
}
