package services

import (
	"context"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/storage"
)

// AccountSnapshot is one row of the balances report.
type AccountSnapshot struct {
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	IsLiquid  bool       `json:"is_liquid"`
	Balance   core.Money `json:"balance_cents"`
	Currency  string     `json:"currency"`
	AsOf      time.Time  `json:"as_of"`
}

// BalancesReport groups the latest snapshots with per-currency totals.
type BalancesReport struct {
	Accounts        []AccountSnapshot     `json:"accounts"`
	LiquidTotals    map[string]core.Money `json:"liquid_totals"`
	NonLiquidTotals map[string]core.Money `json:"non_liquid_totals"`
}

// EFOverview summarizes emergency-fund standing. Baseline is the average
// monthly outflow over the last three full months, target is three times
// that, and the recommended contribution is capped at 5% of the current
// month's income.
type EFOverview struct {
	Baseline    core.Money `json:"baseline_monthly_outflow_cents"`
	Target      core.Money `json:"target_cents"`
	Liquid      core.Money `json:"liquid_cents"`
	FundedPct   float64    `json:"funded_pct"`
	Need        core.Money `json:"need_cents"`
	MonthIncome core.Money `json:"month_income_cents"`
	Recommended core.Money `json:"recommended_contribution_cents"`
}

type Liquidity struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewLiquidity(repo *storage.SQLiteRepository, logger *log.Logger) *Liquidity {
	return &Liquidity{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentLiquidity),
	}
}

// LiquidTotal sums the latest snapshot per liquid account at or before asOf,
// grouped by currency. No conversion happens across currencies, and an
// account that has never reported a snapshot contributes nothing rather
// than a zero.
func (l *Liquidity) LiquidTotal(ctx context.Context, asOf time.Time) (map[string]core.Money, error) {
	balances, err := l.repo.LatestBalances(ctx, asOf)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]core.Money)
	for _, b := range balances {
		if !b.Account.IsLiquid {
			continue
		}
		totals[b.Currency] = totals[b.Currency].Add(b.Balance)
	}
	return totals, nil
}

// Balances returns the latest snapshot per account with liquid and
// non-liquid per-currency totals.
func (l *Liquidity) Balances(ctx context.Context, asOf time.Time) (BalancesReport, error) {
	balances, err := l.repo.LatestBalances(ctx, asOf)
	if err != nil {
		return BalancesReport{}, err
	}

	report := BalancesReport{
		LiquidTotals:    make(map[string]core.Money),
		NonLiquidTotals: make(map[string]core.Money),
	}
	for _, b := range balances {
		report.Accounts = append(report.Accounts, AccountSnapshot{
			AccountID: b.Account.ID,
			Name:      b.Account.Name,
			IsLiquid:  b.Account.IsLiquid,
			Balance:   b.Balance,
			Currency:  b.Currency,
			AsOf:      b.AsOf,
		})
		if b.Account.IsLiquid {
			report.LiquidTotals[b.Currency] = report.LiquidTotals[b.Currency].Add(b.Balance)
		} else {
			report.NonLiquidTotals[b.Currency] = report.NonLiquidTotals[b.Currency].Add(b.Balance)
		}
	}
	return report, nil
}

// EmergencyFund computes the overview as of now. Amounts are summed across
// currencies as-is; with a single-currency ledger this is exact.
func (l *Liquidity) EmergencyFund(ctx context.Context, now time.Time) (EFOverview, error) {
	var ov EFOverview

	today := core.DateOf(now)
	monthStart := core.NewDate(today.Year(), today.Month(), 1)
	threeMonthsAgo := core.DateOf(monthStart.AddDate(0, -3, 0))

	outflow, err := l.repo.OutflowBetween(ctx, threeMonthsAgo, monthStart)
	if err != nil {
		return ov, err
	}
	ov.Baseline = core.Money{Cents: outflow.Cents / 3}
	ov.Target = core.Money{Cents: ov.Baseline.Cents * 3}

	totals, err := l.LiquidTotal(ctx, now)
	if err != nil {
		return ov, err
	}
	for _, m := range totals {
		ov.Liquid = ov.Liquid.Add(m)
	}

	// A zero target means there is nothing to fund, which counts as fully
	// funded rather than zero percent.
	ov.FundedPct = 100
	if ov.Target.Cents > 0 {
		ov.FundedPct = float64(ov.Liquid.Cents) / float64(ov.Target.Cents) * 100
		if ov.FundedPct > 100 {
			ov.FundedPct = 100
		}
	}

	need := ov.Target.Cents - ov.Liquid.Cents
	if need < 0 {
		need = 0
	}
	ov.Need = core.Money{Cents: need}

	nextMonth := core.DateOf(monthStart.AddDate(0, 1, 0))
	income, err := l.repo.InflowBetween(ctx, monthStart, nextMonth)
	if err != nil {
		return ov, err
	}
	ov.MonthIncome = income

	monthlyCap := income.Cents / 20 // 5% of this month's income
	recommended := need
	if recommended > monthlyCap {
		recommended = monthlyCap
	}
	ov.Recommended = core.Money{Cents: recommended}
	return ov, nil
}
