package services

import (
	"context"
	"fmt"

	"envelope/internal/core"
	"envelope/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BudgetService owns envelopes and plan-level budget views. Aggregates are
// derived from envelope rows on every read; nothing plan-wide is stored.
type BudgetService struct {
	storage *storage.Repository
}

func NewBudgetService(storage *storage.Repository) *BudgetService {
	return &BudgetService{storage: storage}
}

// MonthView is one month of the budget: every visible category's envelope
// plus the derived plan summary.
type MonthView struct {
	Month     core.Month
	Envelopes []core.EnvelopeRow
	Summary   core.MonthSummary
}

// MonthBudget assembles the month view. Envelope rows and the month's income
// are fetched concurrently.
func (s *BudgetService) MonthBudget(ctx context.Context, planID uuid.UUID, month core.Month) (MonthView, error) {
	if err := month.Validate(); err != nil {
		return MonthView{}, err
	}

	var (
		rows   []core.EnvelopeRow
		income core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.storage.ListEnvelopes(gctx, planID, month)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.storage.MonthIncome(gctx, planID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return MonthView{}, fmt.Errorf("month budget: %w", err)
	}

	visible := make([]core.EnvelopeRow, 0, len(rows))
	for _, row := range rows {
		if !row.Hidden {
			visible = append(visible, row)
		}
	}
	return MonthView{
		Month:     month,
		Envelopes: visible,
		Summary:   core.ComputeMonthSummary(month, income, rows),
	}, nil
}

// SetBudgeted overwrites the budgeted figure of one envelope, creating it on
// first touch. The category must exist; the month may be any month.
func (s *BudgetService) SetBudgeted(ctx context.Context, planID, categoryID uuid.UUID, month core.Month, amount core.Money) error {
	if err := month.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetCategory(ctx, planID, categoryID); err != nil {
		return err
	}
	return s.storage.SetBudgeted(ctx, planID, categoryID, month, amount)
}

// CreateCategoryGroup validates and stores a new category group.
func (s *BudgetService) CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) (core.CategoryGroup, error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if err := g.Validate(); err != nil {
		return core.CategoryGroup{}, err
	}
	if err := s.storage.CreateCategoryGroup(ctx, g); err != nil {
		return core.CategoryGroup{}, err
	}
	return g, nil
}

// ListCategoryGroups returns the plan's groups in display order.
func (s *BudgetService) ListCategoryGroups(ctx context.Context, planID uuid.UUID) ([]core.CategoryGroup, error) {
	return s.storage.ListCategoryGroups(ctx, planID)
}

// CreateCategory validates and stores a new category under an existing group.
func (s *BudgetService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// ListCategories returns the plan's visible categories in display order.
func (s *BudgetService) ListCategories(ctx context.Context, planID uuid.UUID) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, planID, false)
}

// Templates lists the built-in allocation templates.
func (s *BudgetService) Templates() []core.AllocationTemplate {
	return core.Templates()
}

// PreviewTemplate distributes a target income across the plan's visible
// categories per the named template, without writing anything.
func (s *BudgetService) PreviewTemplate(ctx context.Context, planID uuid.UUID, name string, target core.Money) (core.AllocationPreview, error) {
	if target.Cents <= 0 {
		return core.AllocationPreview{}, core.ErrInvalidAmount
	}
	template, err := core.TemplateByName(name)
	if err != nil {
		return core.AllocationPreview{}, err
	}
	categories, err := s.storage.ListCategories(ctx, planID, false)
	if err != nil {
		return core.AllocationPreview{}, fmt.Errorf("preview template: %w", err)
	}
	return core.DistributeTemplate(template, target, categories), nil
}

// ApplyResult reports the outcome of applying an allocation preview. Lines
// are written independently; a failed line never rolls back the others.
type ApplyResult struct {
	Preview core.AllocationPreview
	Applied int
	Failed  []uuid.UUID
}

// ApplyTemplate previews the named template and writes each line's budgeted
// amount for the given month.
func (s *BudgetService) ApplyTemplate(ctx context.Context, planID uuid.UUID, name string, month core.Month, target core.Money) (ApplyResult, error) {
	if err := month.Validate(); err != nil {
		return ApplyResult{}, err
	}
	preview, err := s.PreviewTemplate(ctx, planID, name, target)
	if err != nil {
		return ApplyResult{}, err
	}

	result := ApplyResult{Preview: preview}
	for _, line := range preview.Lines {
		if err := s.storage.SetBudgeted(ctx, planID, line.CategoryID, month, line.Budgeted); err != nil {
			result.Failed = append(result.Failed, line.CategoryID)
			continue
		}
		result.Applied++
	}
	return result, nil
}
