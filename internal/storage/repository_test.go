package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"envelope/internal/core"

	"github.com/google/uuid"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedAccount(t *testing.T, repo *Repository, name string, typ core.AccountType) core.Account {
	t.Helper()
	a := core.Account{
		ID:       uuid.New(),
		PlanID:   DefaultPlanID,
		Name:     name,
		Type:     typ,
		OnBudget: true,
	}
	if err := repo.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func seedCategory(t *testing.T, repo *Repository, name string) core.Category {
	t.Helper()
	ctx := context.Background()
	g := core.CategoryGroup{ID: uuid.New(), PlanID: DefaultPlanID, Name: name + " group"}
	if err := repo.CreateCategoryGroup(ctx, g); err != nil {
		t.Fatalf("CreateCategoryGroup: %v", err)
	}
	c := core.Category{ID: uuid.New(), PlanID: DefaultPlanID, GroupID: g.ID, Name: name}
	if err := repo.CreateCategory(ctx, c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

func TestDefaultPlanSeeded(t *testing.T) {
	repo := testRepo(t)

	plan, err := repo.GetPlan(context.Background(), DefaultPlanID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan.Name != "Default plan" {
		t.Errorf("plan name = %q, want %q", plan.Name, "Default plan")
	}
}

func TestAccountLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := seedAccount(t, repo, "Checking", core.AccountChecking)

	got, err := repo.GetAccount(ctx, DefaultPlanID, a.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Name != "Checking" || !got.OnBudget || got.Closed {
		t.Errorf("unexpected account: %+v", got)
	}

	if err := repo.AdjustBalance(ctx, DefaultPlanID, a.ID, core.Money{Cents: -4250}); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if err := repo.AdjustBalance(ctx, DefaultPlanID, a.ID, core.Money{Cents: 10000}); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	got, _ = repo.GetAccount(ctx, DefaultPlanID, a.ID)
	if got.Balance.Cents != 5750 {
		t.Errorf("balance = %d, want 5750", got.Balance.Cents)
	}

	if err := repo.CloseAccount(ctx, DefaultPlanID, a.ID); err != nil {
		t.Fatalf("CloseAccount: %v", err)
	}
	got, _ = repo.GetAccount(ctx, DefaultPlanID, a.ID)
	if !got.Closed {
		t.Error("account not closed")
	}
}

func TestAdjustBalanceUnknownAccount(t *testing.T) {
	repo := testRepo(t)

	err := repo.AdjustBalance(context.Background(), DefaultPlanID, uuid.New(), core.Money{Cents: 100})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := seedAccount(t, repo, "Checking", core.AccountChecking)
	c := seedCategory(t, repo, "Groceries")

	e := core.LedgerEntry{
		ID:            uuid.New(),
		PlanID:        DefaultPlanID,
		Date:          time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Amount:        core.Money{Cents: -4250},
		Payee:         "Supermarket",
		Memo:          "weekly shop",
		FromAccountID: a.ID,
		CategoryID:    &c.ID,
		Status:        core.StatusUncleared,
	}
	if err := repo.InsertEntry(ctx, e); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	got, err := repo.GetEntry(ctx, DefaultPlanID, e.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Amount.Cents != -4250 || got.Payee != "Supermarket" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.CategoryID == nil || *got.CategoryID != c.ID {
		t.Errorf("category = %v, want %s", got.CategoryID, c.ID)
	}
	if got.ToAccountID != nil {
		t.Errorf("to account = %v, want nil", got.ToAccountID)
	}
	if !got.Date.Equal(e.Date) {
		t.Errorf("date = %v, want %v", got.Date, e.Date)
	}

	got.Amount = core.Money{Cents: -5000}
	got.CategoryID = nil
	if err := repo.UpdateEntry(ctx, got); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	got, _ = repo.GetEntry(ctx, DefaultPlanID, e.ID)
	if got.Amount.Cents != -5000 || got.CategoryID != nil {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repo.DeleteEntry(ctx, DefaultPlanID, e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := repo.GetEntry(ctx, DefaultPlanID, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
}

func TestListEntriesByMonth(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := seedAccount(t, repo, "Checking", core.AccountChecking)

	dates := []time.Time{
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		e := core.LedgerEntry{
			ID:            uuid.New(),
			PlanID:        DefaultPlanID,
			Date:          d,
			Amount:        core.Money{Cents: -100},
			FromAccountID: a.ID,
			Status:        core.StatusUncleared,
		}
		if err := repo.InsertEntry(ctx, e); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	march := core.NewMonth(2025, 3)
	got, err := repo.ListEntriesByMonth(ctx, DefaultPlanID, march)
	if err != nil {
		t.Fatalf("ListEntriesByMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if !got[0].Date.After(got[1].Date) {
		t.Error("entries not ordered newest first")
	}
}

func TestMonthIncome(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	checking := seedAccount(t, repo, "Checking", core.AccountChecking)
	savings := seedAccount(t, repo, "Savings", core.AccountSavings)
	offBudget := core.Account{ID: uuid.New(), PlanID: DefaultPlanID, Name: "Brokerage", Type: core.AccountSavings}
	if err := repo.CreateAccount(ctx, offBudget); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	c := seedCategory(t, repo, "Groceries")

	march := core.NewMonth(2025, 3)
	add := func(amount int64, from uuid.UUID, to, category *uuid.UUID) {
		t.Helper()
		e := core.LedgerEntry{
			ID:            uuid.New(),
			PlanID:        DefaultPlanID,
			Date:          march.Time,
			Amount:        core.Money{Cents: amount},
			FromAccountID: from,
			ToAccountID:   to,
			CategoryID:    category,
			Status:        core.StatusUncleared,
		}
		if err := repo.InsertEntry(ctx, e); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	add(250000, checking.ID, nil, nil)         // salary, counts
	add(-4250, checking.ID, nil, &c.ID)        // expense, ignored
	add(1500, checking.ID, nil, &c.ID)         // categorized inflow, ignored
	add(5000, checking.ID, &savings.ID, nil)   // transfer, ignored
	add(9999, offBudget.ID, nil, nil)          // off-budget inflow, ignored
	add(3000, savings.ID, nil, nil)            // interest, counts

	income, err := repo.MonthIncome(ctx, DefaultPlanID, march)
	if err != nil {
		t.Fatalf("MonthIncome: %v", err)
	}
	if income.Cents != 253000 {
		t.Errorf("income = %d, want 253000", income.Cents)
	}
}

func TestMonthIncomeExcludesClosedAccounts(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	checking := seedAccount(t, repo, "Checking", core.AccountChecking)

	march := core.NewMonth(2025, 3)
	e := core.LedgerEntry{
		ID:            uuid.New(),
		PlanID:        DefaultPlanID,
		Date:          march.Time,
		Amount:        core.Money{Cents: 250000},
		FromAccountID: checking.ID,
		Status:        core.StatusUncleared,
	}
	if err := repo.InsertEntry(ctx, e); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	income, err := repo.MonthIncome(ctx, DefaultPlanID, march)
	if err != nil {
		t.Fatalf("MonthIncome: %v", err)
	}
	if income.Cents != 250000 {
		t.Fatalf("income = %d, want 250000", income.Cents)
	}

	if err := repo.CloseAccount(ctx, DefaultPlanID, checking.ID); err != nil {
		t.Fatalf("CloseAccount: %v", err)
	}
	income, err = repo.MonthIncome(ctx, DefaultPlanID, march)
	if err != nil {
		t.Fatalf("MonthIncome: %v", err)
	}
	if income.Cents != 0 {
		t.Errorf("income after closing account = %d, want 0", income.Cents)
	}
}

func TestApplyActivityCreatesEnvelope(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	c := seedCategory(t, repo, "Groceries")
	march := core.NewMonth(2025, 3)

	if err := repo.ApplyActivity(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 4250}); err != nil {
		t.Fatalf("ApplyActivity: %v", err)
	}
	env, err := repo.GetEnvelope(ctx, DefaultPlanID, c.ID, march)
	if err != nil {
		t.Fatalf("GetEnvelope: %v", err)
	}
	if env.Budgeted.Cents != 0 || env.Activity.Cents != 4250 || env.Available.Cents != -4250 {
		t.Errorf("envelope after first touch = %+v", env)
	}

	// Second touch accumulates instead of resetting.
	if err := repo.ApplyActivity(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 1000}); err != nil {
		t.Fatalf("ApplyActivity: %v", err)
	}
	env, _ = repo.GetEnvelope(ctx, DefaultPlanID, c.ID, march)
	if env.Activity.Cents != 5250 || env.Available.Cents != -5250 {
		t.Errorf("envelope after second touch = %+v", env)
	}
}

func TestReverseActivityRestoresEnvelope(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	c := seedCategory(t, repo, "Groceries")
	march := core.NewMonth(2025, 3)

	if err := repo.SetBudgeted(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 10000}); err != nil {
		t.Fatalf("SetBudgeted: %v", err)
	}
	if err := repo.ApplyActivity(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 4250}); err != nil {
		t.Fatalf("ApplyActivity: %v", err)
	}
	if err := repo.ReverseActivity(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 4250}); err != nil {
		t.Fatalf("ReverseActivity: %v", err)
	}

	env, err := repo.GetEnvelope(ctx, DefaultPlanID, c.ID, march)
	if err != nil {
		t.Fatalf("GetEnvelope: %v", err)
	}
	if env.Budgeted.Cents != 10000 || env.Activity.Cents != 0 || env.Available.Cents != 10000 {
		t.Errorf("envelope after reversal = %+v", env)
	}
}

func TestReverseActivityWithoutEnvelopeIsNoop(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	c := seedCategory(t, repo, "Groceries")
	march := core.NewMonth(2025, 3)

	if err := repo.ReverseActivity(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 4250}); err != nil {
		t.Fatalf("ReverseActivity: %v", err)
	}
	if _, err := repo.GetEnvelope(ctx, DefaultPlanID, c.ID, march); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound (no row should be created)", err)
	}
}

func TestSetBudgetedPreservesIdentity(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	c := seedCategory(t, repo, "Groceries")
	march := core.NewMonth(2025, 3)

	if err := repo.ApplyActivity(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 4250}); err != nil {
		t.Fatalf("ApplyActivity: %v", err)
	}
	if err := repo.SetBudgeted(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 10000}); err != nil {
		t.Fatalf("SetBudgeted: %v", err)
	}
	if err := repo.SetBudgeted(ctx, DefaultPlanID, c.ID, march, core.Money{Cents: 6000}); err != nil {
		t.Fatalf("SetBudgeted: %v", err)
	}

	env, err := repo.GetEnvelope(ctx, DefaultPlanID, c.ID, march)
	if err != nil {
		t.Fatalf("GetEnvelope: %v", err)
	}
	if env.Budgeted.Cents != 6000 {
		t.Errorf("budgeted = %d, want 6000", env.Budgeted.Cents)
	}
	if env.Available.Cents != env.Budgeted.Cents-env.Activity.Cents {
		t.Errorf("available = %d, want budgeted-activity = %d",
			env.Available.Cents, env.Budgeted.Cents-env.Activity.Cents)
	}
}

func TestListEnvelopesIncludesUntouchedCategories(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	groceries := seedCategory(t, repo, "Groceries")
	seedCategory(t, repo, "Rent")
	march := core.NewMonth(2025, 3)

	if err := repo.ApplyActivity(ctx, DefaultPlanID, groceries.ID, march, core.Money{Cents: 4250}); err != nil {
		t.Fatalf("ApplyActivity: %v", err)
	}

	rows, err := repo.ListEnvelopes(ctx, DefaultPlanID, march)
	if err != nil {
		t.Fatalf("ListEnvelopes: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	byName := map[string]core.EnvelopeRow{}
	for _, row := range rows {
		byName[row.CategoryName] = row
	}
	if byName["Groceries"].Activity.Cents != 4250 {
		t.Errorf("groceries activity = %d, want 4250", byName["Groceries"].Activity.Cents)
	}
	if row := byName["Rent"]; row.Budgeted.Cents != 0 || row.Activity.Cents != 0 || row.Available.Cents != 0 {
		t.Errorf("untouched category row = %+v, want all zero", row)
	}
}

func TestMirrorStatusFlow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	a := seedAccount(t, repo, "Checking", core.AccountChecking)

	e := core.LedgerEntry{
		ID:            uuid.New(),
		PlanID:        DefaultPlanID,
		Date:          time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        core.Money{Cents: -4250},
		FromAccountID: a.ID,
		Status:        core.StatusUncleared,
	}
	if err := repo.InsertEntry(ctx, e); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	pending, err := repo.ListPendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingMirror: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != e.ID {
		t.Fatalf("pending = %v, want the inserted entry", pending)
	}

	if err := repo.SetMirrorStatus(ctx, e.ID, MirrorDone); err != nil {
		t.Fatalf("SetMirrorStatus: %v", err)
	}
	pending, _ = repo.ListPendingMirror(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending after mirror = %d entries, want 0", len(pending))
	}

	// An update re-queues the entry for mirroring.
	e.Amount = core.Money{Cents: -5000}
	if err := repo.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	pending, _ = repo.ListPendingMirror(ctx, 10)
	if len(pending) != 1 {
		t.Errorf("pending after update = %d entries, want 1", len(pending))
	}
}

func TestListCategoriesFiltersHidden(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	g := core.CategoryGroup{ID: uuid.New(), PlanID: DefaultPlanID, Name: "Monthly"}
	if err := repo.CreateCategoryGroup(ctx, g); err != nil {
		t.Fatalf("CreateCategoryGroup: %v", err)
	}

	visible := core.Category{ID: uuid.New(), PlanID: DefaultPlanID, GroupID: g.ID, Name: "Groceries"}
	hidden := core.Category{ID: uuid.New(), PlanID: DefaultPlanID, GroupID: g.ID, Name: "Old stuff", Hidden: true}
	for _, c := range []core.Category{visible, hidden} {
		if err := repo.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
	}

	got, err := repo.ListCategories(ctx, DefaultPlanID, false)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Groceries" {
		t.Errorf("visible categories = %v, want only Groceries", got)
	}

	all, err := repo.ListCategories(ctx, DefaultPlanID, true)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all categories = %d, want 2", len(all))
	}
}
