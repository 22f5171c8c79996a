package services

import (
	"context"
	"testing"
	"time"

	"cashflow/internal/core"
)

func TestPlanBreakdownOrder(t *testing.T) {
	repo := newRepo(t)
	logger := testLogger()
	bills := NewBillTracker(repo, logger)
	budgets := NewBudgetService(repo, logger)
	liquidity := NewLiquidity(repo, logger)
	planner := NewPlanner(repo, bills, budgets, liquidity, logger)
	r := NewReconciler(repo, logger)
	edits := NewEdits(repo, logger)
	ctx := context.Background()

	// An unpaid bill due in 3 days needing 400.00.
	mustBill(t, bills, core.Bill{
		ID: "rent", Name: "Rent", Amount: core.Money{Cents: 40000},
		Currency: "USD", Frequency: core.Monthly, DayOfMonth: 28,
	})

	// A budget gap of 200.00 in groceries.
	mustCategory(t, repo, core.Category{ID: "groceries", Name: "Groceries", AffectsCashflow: true, Budgetable: true})
	if err := budgets.Set(ctx, core.Budget{CategoryID: "groceries", Year: 2026, Month: 3, Amount: core.Money{Cents: 30000}}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	mustReconcile(t, r, record(1, "2026-03-10", "-100.00"))
	if _, _, err := edits.Apply(ctx, EditRequest{LMID: 1, Field: "category", Value: "groceries"}); err != nil {
		t.Fatalf("categorize: %v", err)
	}

	asOf := core.NewDate(2026, 3, 25)
	result, err := planner.Breakdown(ctx, core.Money{Cents: 50000}, asOf, 7)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}

	if len(result.Allocations) != 2 {
		t.Fatalf("expected bill then budget allocations, got %+v", result.Allocations)
	}
	first, second := result.Allocations[0], result.Allocations[1]
	if first.Kind != "bill" || first.Target != "rent" || first.Amount.Cents != 40000 {
		t.Errorf("first allocation must fill the bill: %+v", first)
	}
	if second.Kind != "budget" || second.Target != "groceries" || second.Amount.Cents != 10000 {
		t.Errorf("second allocation must chip at the budget gap: %+v", second)
	}
	if result.Leftover.Cents != 0 {
		t.Errorf("leftover: want 0, got %d", result.Leftover.Cents)
	}
}

func TestPlanBreakdownLeftoverAndEF(t *testing.T) {
	repo := newRepo(t)
	logger := testLogger()
	bills := NewBillTracker(repo, logger)
	budgets := NewBudgetService(repo, logger)
	liquidity := NewLiquidity(repo, logger)
	planner := NewPlanner(repo, bills, budgets, liquidity, logger)
	r := NewReconciler(repo, logger)
	edits := NewEdits(repo, logger)
	ctx := context.Background()

	mustCategory(t, repo, core.Category{ID: "salary", Name: "Salary", AffectsCashflow: true, Budgetable: false, IsIncome: true})

	// Outflow history creates an EF need; income caps the recommendation at
	// 5% of 2000.00 = 100.00.
	mustReconcile(t, r, record(1, "2026-02-10", "-900.00"))
	mustReconcile(t, r, record(2, "2026-03-05", "2000.00"))
	if _, _, err := edits.Apply(ctx, EditRequest{LMID: 2, Field: "category", Value: "salary"}); err != nil {
		t.Fatalf("categorize income: %v", err)
	}

	seedAccount(t, repo, "chk", true)
	seedSnapshot(t, repo, "chk", 10000, "USD", time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC))

	asOf := core.NewDate(2026, 3, 20)
	result, err := planner.Breakdown(ctx, core.Money{Cents: 25000}, asOf, 7)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}

	if len(result.Allocations) != 1 {
		t.Fatalf("expected a single EF allocation, got %+v", result.Allocations)
	}
	ef := result.Allocations[0]
	if ef.Kind != "emergency_fund" || ef.Amount.Cents != 10000 {
		t.Errorf("EF allocation must honor the income cap: %+v", ef)
	}
	if result.Leftover.Cents != 15000 {
		t.Errorf("leftover: want 15000, got %d", result.Leftover.Cents)
	}
}

func TestPlanBreakdownRejectsNonPositiveInflow(t *testing.T) {
	repo := newRepo(t)
	logger := testLogger()
	planner := NewPlanner(repo,
		NewBillTracker(repo, logger),
		NewBudgetService(repo, logger),
		NewLiquidity(repo, logger),
		logger)

	_, err := planner.Breakdown(context.Background(), core.Money{Cents: -1}, core.NewDate(2026, 3, 1), 7)
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
