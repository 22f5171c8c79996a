package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cashflow/internal/core"
)

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, affects_cashflow, budgetable, is_income)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID, c.Name, boolToDB(c.AffectsCashflow), boolToDB(c.Budgetable), boolToDB(c.IsIncome))
	if err != nil {
		return fmt.Errorf("create category %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrConflict
	}
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, affects_cashflow = ?, budgetable = ?, is_income = ?
		WHERE id = ?`,
		c.Name, boolToDB(c.AffectsCashflow), boolToDB(c.Budgetable), boolToDB(c.IsIncome), c.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var (
		c                        core.Category
		affects, budgetable, inc int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, affects_cashflow, budgetable, is_income
		FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &affects, &budgetable, &inc)
	if errors.Is(err, sql.ErrNoRows) {
		return c, core.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("get category %s: %w", id, err)
	}
	c.AffectsCashflow = affects != 0
	c.Budgetable = budgetable != 0
	c.IsIncome = inc != 0
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, affects_cashflow, budgetable, is_income
		FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c                        core.Category
			affects, budgetable, inc int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &affects, &budgetable, &inc); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.AffectsCashflow = affects != 0
		c.Budgetable = budgetable != 0
		c.IsIncome = inc != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
