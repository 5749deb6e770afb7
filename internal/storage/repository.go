// Package storage persists the ledger domain in SQLite.
//
// Aggregate mutations (account balances, envelope fields) are issued as
// single-statement atomic increments; no transaction ever spans an account
// write and an envelope write. That matches the engine's best-effort
// propagation model: the ledger-entry row is the authoritative record, and
// derived aggregates are adjusted one statement at a time.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"envelope/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultPlanID is the plan seeded by the initial migration. Requests that
// carry no explicit plan id fall back to it.
var DefaultPlanID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
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

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetPlan looks up a plan by id.
func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (core.Plan, error) {
	var p core.Plan
	var idStr, created string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM plans WHERE id = ?`, id.String(),
	).Scan(&idStr, &p.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Plan{}, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Plan{}, fmt.Errorf("get plan: %w", err)
	}
	p.ID = id
	return p, nil
}

// CreateAccount inserts a new account with a zero balance.
func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, plan_id, name, type, balance, on_budget, closed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.PlanID.String(), a.Name, string(a.Type),
		a.Balance.Cents, boolToInt(a.OnBudget), boolToInt(a.Closed))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created",
		"id", a.ID, "name", a.Name, "type", a.Type)
	return nil
}

// GetAccount looks up an account within a plan.
func (r *Repository) GetAccount(ctx context.Context, planID, id uuid.UUID) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, plan_id, name, type, balance, on_budget, closed
		 FROM accounts WHERE plan_id = ? AND id = ?`,
		planID.String(), id.String())
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns all accounts of a plan ordered by name.
func (r *Repository) ListAccounts(ctx context.Context, planID uuid.UUID) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, name, type, balance, on_budget, closed
		 FROM accounts WHERE plan_id = ? ORDER BY name`, planID.String())
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CloseAccount marks an account as closed. The balance is left untouched.
func (r *Repository) CloseAccount(ctx context.Context, planID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET closed = 1 WHERE plan_id = ? AND id = ?`,
		planID.String(), id.String())
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// AdjustBalance applies a signed delta to one account's balance as a single
// atomic increment.
func (r *Repository) AdjustBalance(ctx context.Context, planID, accountID uuid.UUID, delta core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + ? WHERE plan_id = ? AND id = ?`,
		delta.Cents, planID.String(), accountID.String())
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", accountID, core.ErrNotFound)
	}
	return nil
}

// CreateCategoryGroup inserts a category group.
func (r *Repository) CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO category_groups (id, plan_id, name, position, hidden)
		 VALUES (?, ?, ?, ?, ?)`,
		g.ID.String(), g.PlanID.String(), g.Name, g.Position, boolToInt(g.Hidden))
	if err != nil {
		return fmt.Errorf("create category group: %w", err)
	}
	return nil
}

// ListCategoryGroups returns a plan's groups in display order.
func (r *Repository) ListCategoryGroups(ctx context.Context, planID uuid.UUID) ([]core.CategoryGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_id, name, position, hidden
		 FROM category_groups WHERE plan_id = ? ORDER BY position, name`,
		planID.String())
	if err != nil {
		return nil, fmt.Errorf("list category groups: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryGroup
	for rows.Next() {
		var g core.CategoryGroup
		var id, planStr string
		var hidden int
		if err := rows.Scan(&id, &planStr, &g.Name, &g.Position, &hidden); err != nil {
			return nil, fmt.Errorf("scan category group: %w", err)
		}
		g.ID = uuid.MustParse(id)
		g.PlanID = uuid.MustParse(planStr)
		g.Hidden = hidden != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category under an existing group.
func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, plan_id, group_id, name, position, hidden)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.PlanID.String(), c.GroupID.String(), c.Name, c.Position, boolToInt(c.Hidden))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetCategory looks up a category within a plan.
func (r *Repository) GetCategory(ctx context.Context, planID, id uuid.UUID) (core.Category, error) {
	var c core.Category
	var idStr, planStr, groupStr string
	var hidden int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, plan_id, group_id, name, position, hidden
		 FROM categories WHERE plan_id = ? AND id = ?`,
		planID.String(), id.String(),
	).Scan(&idStr, &planStr, &groupStr, &c.Name, &c.Position, &hidden)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.ID = uuid.MustParse(idStr)
	c.PlanID = uuid.MustParse(planStr)
	c.GroupID = uuid.MustParse(groupStr)
	c.Hidden = hidden != 0
	return c, nil
}

// ListCategories returns a plan's categories in display order. When
// includeHidden is false, hidden categories and categories of hidden
// groups are filtered out.
func (r *Repository) ListCategories(ctx context.Context, planID uuid.UUID, includeHidden bool) ([]core.Category, error) {
	query := `SELECT c.id, c.plan_id, c.group_id, c.name, c.position, c.hidden
		 FROM categories c
		 JOIN category_groups g ON g.id = c.group_id
		 WHERE c.plan_id = ?`
	if !includeHidden {
		query += ` AND c.hidden = 0 AND g.hidden = 0`
	}
	query += ` ORDER BY g.position, c.position, c.name`

	rows, err := r.db.QueryContext(ctx, query, planID.String())
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var id, planStr, groupStr string
		var hidden int
		if err := rows.Scan(&id, &planStr, &groupStr, &c.Name, &c.Position, &hidden); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = uuid.MustParse(id)
		c.PlanID = uuid.MustParse(planStr)
		c.GroupID = uuid.MustParse(groupStr)
		c.Hidden = hidden != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var id, planStr, typ string
	var onBudget, closed int
	if err := row.Scan(&id, &planStr, &a.Name, &typ, &a.Balance.Cents, &onBudget, &closed); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.MustParse(id)
	a.PlanID = uuid.MustParse(planStr)
	a.Type = core.AccountType(typ)
	a.OnBudget = onBudget != 0
	a.Closed = closed != 0
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
