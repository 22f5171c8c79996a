package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cashflow/internal/core"
)

// SetBudget inserts or replaces the amount for one (category, year, month).
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category_id, year, month, amount_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(category_id, year, month) DO UPDATE SET
			amount_cents = excluded.amount_cents`,
		b.CategoryID, b.Year, b.Month, b.Amount.Cents)
	if err != nil {
		return fmt.Errorf("set budget %s %d-%02d: %w", b.CategoryID, b.Year, b.Month, err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, categoryID string, year, month int) (core.Budget, error) {
	b := core.Budget{CategoryID: categoryID, Year: year, Month: month}
	err := r.db.QueryRowContext(ctx, `
		SELECT amount_cents FROM budgets
		WHERE category_id = ? AND year = ? AND month = ?`,
		categoryID, year, month).Scan(&b.Amount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return b, core.ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("get budget %s %d-%02d: %w", categoryID, year, month, err)
	}
	return b, nil
}

// ListBudgets returns the budget rows for one month ordered by category.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category_id, year, month, amount_cents FROM budgets
		WHERE year = ? AND month = ? ORDER BY category_id`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.CategoryID, &b.Year, &b.Month, &b.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, categoryID string, year, month int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM budgets WHERE category_id = ? AND year = ? AND month = ?`,
		categoryID, year, month)
	if err != nil {
		return fmt.Errorf("delete budget %s %d-%02d: %w", categoryID, year, month, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SpentByCategory sums outflow magnitudes per category over [from, to),
// counting only non-ignored rows whose category affects cashflow. Inflows
// never offset spending.
func (r *SQLiteRepository) SpentByCategory(ctx context.Context, from, to core.Date) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.category,
		       COALESCE(SUM(CASE WHEN t.amount_cents < 0 THEN -t.amount_cents ELSE 0 END), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category
		WHERE t.ignored = 0
		  AND c.affects_cashflow = 1
		  AND t.date_posted >= ? AND t.date_posted < ?
		GROUP BY t.category`,
		dateToDB(from), dateToDB(to))
	if err != nil {
		return nil, fmt.Errorf("spent by category: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.Money)
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan spent row: %w", err)
		}
		out[category] = core.Money{Cents: cents}
	}
	return out, rows.Err()
}
