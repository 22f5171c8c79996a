package storage

import (
	"context"
	"fmt"

	"cashflow/internal/core"
)

// OutflowBetween sums outflow magnitudes over [from, to) across all
// non-ignored rows whose category affects cashflow. Uncategorized rows
// count: exclusion is an explicit category property, not a default.
func (r *SQLiteRepository) OutflowBetween(ctx context.Context, from, to core.Date) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN t.amount_cents < 0 THEN -t.amount_cents ELSE 0 END), 0)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category
		WHERE t.ignored = 0
		  AND COALESCE(c.affects_cashflow, 1) = 1
		  AND t.date_posted >= ? AND t.date_posted < ?`,
		dateToDB(from), dateToDB(to)).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("outflow between: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// InflowBetween sums inflows over [from, to). When income categories exist
// it counts only rows tagged with one; otherwise it falls back to every
// positive non-ignored cashflow row. Both branches only see rows whose
// category affects cashflow.
func (r *SQLiteRepository) InflowBetween(ctx context.Context, from, to core.Date) (core.Money, error) {
	var tagged int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category
		WHERE t.ignored = 0
		  AND c.is_income = 1
		  AND c.affects_cashflow = 1
		  AND t.amount_cents > 0
		  AND t.date_posted >= ? AND t.date_posted < ?`,
		dateToDB(from), dateToDB(to)).Scan(&tagged)
	if err != nil {
		return core.Money{}, fmt.Errorf("tagged inflow between: %w", err)
	}
	if tagged > 0 {
		return core.Money{Cents: tagged}, nil
	}

	var all int64
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category
		WHERE t.ignored = 0
		  AND COALESCE(c.affects_cashflow, 1) = 1
		  AND t.amount_cents > 0
		  AND t.date_posted >= ? AND t.date_posted < ?`,
		dateToDB(from), dateToDB(to)).Scan(&all)
	if err != nil {
		return core.Money{}, fmt.Errorf("inflow between: %w", err)
	}
	return core.Money{Cents: all}, nil
}
