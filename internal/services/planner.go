package services

import (
	"context"
	"fmt"
	"sort"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/storage"
)

// Allocation is one slice of a planned inflow.
type Allocation struct {
	Kind   string     `json:"kind"` // bill, budget, emergency_fund
	Target string     `json:"target"`
	Amount core.Money `json:"amount_cents"`
}

// PlanResult is the full breakdown of one inflow.
type PlanResult struct {
	Inflow      core.Money   `json:"inflow_cents"`
	Allocations []Allocation `json:"allocations"`
	Leftover    core.Money   `json:"leftover_cents"`
}

type Planner struct {
	repo      *storage.SQLiteRepository
	bills     *BillTracker
	budgets   *BudgetService
	liquidity *Liquidity
	logger    *log.Logger
}

func NewPlanner(repo *storage.SQLiteRepository, bills *BillTracker, budgets *BudgetService, liquidity *Liquidity, logger *log.Logger) *Planner {
	return &Planner{
		repo:      repo,
		bills:     bills,
		budgets:   budgets,
		liquidity: liquidity,
		logger:    logger.WithComponent(log.ComponentBudget),
	}
}

// Breakdown allocates an inflow in strict order: unpaid bills due within
// dueSoonDays by priority, then the month's budget gaps biggest first, then
// the emergency fund up to its capped recommendation. Whatever survives all
// three rounds is leftover.
func (p *Planner) Breakdown(ctx context.Context, inflow core.Money, asOf core.Date, dueSoonDays int) (PlanResult, error) {
	if inflow.Cents <= 0 {
		return PlanResult{}, core.NewValidationError("inflow",
			fmt.Errorf("inflow must be positive, got %d cents", inflow.Cents))
	}
	if dueSoonDays <= 0 {
		dueSoonDays = 7
	}

	result := PlanResult{Inflow: inflow}
	left := inflow.Cents

	window := core.DateOf(asOf.AddDate(0, 0, dueSoonDays))
	occurrences, err := p.bills.Occurrences(ctx, asOf, window, dueSoonDays)
	if err != nil {
		return result, err
	}
	for _, occ := range occurrences {
		if left <= 0 {
			break
		}
		if occ.Paid || occ.Remaining.Cents <= 0 {
			continue
		}
		take := min64(occ.Remaining.Cents, left)
		result.Allocations = append(result.Allocations, Allocation{
			Kind:   "bill",
			Target: occ.BillID,
			Amount: core.Money{Cents: take},
		})
		left -= take
	}

	if left > 0 {
		statuses, err := p.budgets.Status(ctx, asOf.Year(), asOf.Month())
		if err != nil {
			return result, err
		}
		gaps := make([]CategoryBudgetStatus, 0, len(statuses))
		for _, s := range statuses {
			if s.Remaining.Cents > 0 {
				gaps = append(gaps, s)
			}
		}
		sort.SliceStable(gaps, func(i, j int) bool {
			return gaps[i].Remaining.Cents > gaps[j].Remaining.Cents
		})
		for _, g := range gaps {
			if left <= 0 {
				break
			}
			take := min64(g.Remaining.Cents, left)
			result.Allocations = append(result.Allocations, Allocation{
				Kind:   "budget",
				Target: g.CategoryID,
				Amount: core.Money{Cents: take},
			})
			left -= take
		}
	}

	if left > 0 {
		ef, err := p.liquidity.EmergencyFund(ctx, asOf.Time)
		if err != nil {
			return result, err
		}
		if ef.Recommended.Cents > 0 {
			take := min64(ef.Recommended.Cents, left)
			result.Allocations = append(result.Allocations, Allocation{
				Kind:   "emergency_fund",
				Target: "emergency_fund",
				Amount: core.Money{Cents: take},
			})
			left -= take
		}
	}

	result.Leftover = core.Money{Cents: left}
	p.logger.InfoContext(ctx, "Inflow breakdown planned",
		"inflow_cents", inflow.Cents,
		"allocations", len(result.Allocations),
		"leftover_cents", left)
	return result, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
