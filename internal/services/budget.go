package services

import (
	"context"
	"fmt"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/storage"
)

// CategoryBudgetStatus is one row of the month's budget-vs-actual report.
type CategoryBudgetStatus struct {
	CategoryID string     `json:"category_id"`
	Name       string     `json:"name"`
	Budgeted   core.Money `json:"budgeted_cents"`
	Spent      core.Money `json:"spent_cents"`
	Remaining  core.Money `json:"remaining_cents"` // negative = overspent
}

type BudgetService struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewBudgetService(repo *storage.SQLiteRepository, logger *log.Logger) *BudgetService {
	return &BudgetService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentBudget),
	}
}

// Set validates the target category and writes the month's amount. Budgets
// on categories failing budgetable && affects_cashflow are rejected.
func (s *BudgetService) Set(ctx context.Context, b core.Budget) error {
	target, err := s.repo.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return err
	}
	if err := core.ValidateBudget(b, target); err != nil {
		return core.NewValidationError("budget", err)
	}
	return s.repo.SetBudget(ctx, b)
}

// Status computes budget-vs-actual for one month. Spent is the sum of outflow
// magnitudes of the category's non-ignored transactions inside the month;
// inflows never reduce it. Categories without a budget row are absent. Each
// month stands alone, so last month's surplus or deficit never shows up here.
func (s *BudgetService) Status(ctx context.Context, year, month int) ([]CategoryBudgetStatus, error) {
	if month < 1 || month > 12 {
		return nil, core.NewValidationError("month", fmt.Errorf("month %d out of range", month))
	}

	budgets, err := s.repo.ListBudgets(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	from := core.NewDate(year, month, 1)
	to := core.DateOf(from.AddDate(0, 1, 0))
	spent, err := s.repo.SpentByCategory(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryBudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		cat, err := s.repo.GetCategory(ctx, b.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("budget category %s: %w", b.CategoryID, err)
		}
		if !cat.BudgetEligible() {
			continue
		}
		sp := spent[b.CategoryID]
		out = append(out, CategoryBudgetStatus{
			CategoryID: b.CategoryID,
			Name:       cat.Name,
			Budgeted:   b.Amount,
			Spent:      sp,
			Remaining:  b.Amount.Add(sp.Neg()),
		})
	}
	return out, nil
}
