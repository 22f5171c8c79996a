package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashflow/internal/core"
)

func nullDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return dateToDB(d)
}

func scanNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return dateFromDB(s.String)
}

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bills (id, name, amount_cents, currency, frequency, weekday, day_of_month, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		b.ID, b.Name, b.Amount.Cents, b.Currency, string(b.Frequency),
		b.Weekday, b.DayOfMonth, nullDate(b.StartDate), nullDate(b.EndDate))
	if err != nil {
		return fmt.Errorf("create bill %s: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrConflict
	}
	return nil
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, b core.Bill) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bills SET name = ?, amount_cents = ?, currency = ?, frequency = ?,
			weekday = ?, day_of_month = ?, start_date = ?, end_date = ?
		WHERE id = ?`,
		b.Name, b.Amount.Cents, b.Currency, string(b.Frequency),
		b.Weekday, b.DayOfMonth, nullDate(b.StartDate), nullDate(b.EndDate), b.ID)
	if err != nil {
		return fmt.Errorf("update bill %s: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

const billColumns = `id, name, amount_cents, currency, frequency, COALESCE(weekday, 0), COALESCE(day_of_month, 0), start_date, end_date`

func scanBill(row interface{ Scan(...any) error }) (core.Bill, error) {
	var (
		b          core.Bill
		freq       string
		start, end sql.NullString
	)
	err := row.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.Currency, &freq,
		&b.Weekday, &b.DayOfMonth, &start, &end)
	if err != nil {
		return b, err
	}
	b.Frequency = core.Frequency(freq)
	if b.StartDate, err = scanNullDate(start); err != nil {
		return b, err
	}
	if b.EndDate, err = scanNullDate(end); err != nil {
		return b, err
	}
	return b, nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return b, core.ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("get bill %s: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AppendLedgerEntry appends one signed entry to a bill's ledger. The ledger
// is never updated or deleted from; corrections are new entries.
func (r *SQLiteRepository) AppendLedgerEntry(ctx context.Context, billID string, amount core.Money, occurredAt time.Time, note string) (core.BillLedgerEntry, error) {
	entry := core.BillLedgerEntry{
		BillID:     billID,
		Amount:     amount,
		OccurredAt: occurredAt.UTC(),
		Note:       note,
	}

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills WHERE id = ?`, billID).Scan(&exists)
	if err != nil {
		return entry, fmt.Errorf("check bill %s: %w", billID, err)
	}
	if exists == 0 {
		return entry, core.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bill_ledger (bill_id, amount_cents, occurred_at, note)
		VALUES (?, ?, ?, ?)`,
		billID, amount.Cents, timeToDB(entry.OccurredAt), note)
	if err != nil {
		return entry, fmt.Errorf("append ledger entry for %s: %w", billID, err)
	}
	entry.ID, err = res.LastInsertId()
	if err != nil {
		return entry, fmt.Errorf("ledger entry id for %s: %w", billID, err)
	}
	return entry, nil
}

// LedgerEntries returns a bill's entries in chronological order, optionally
// bounded by [from, to). Zero bounds are open.
func (r *SQLiteRepository) LedgerEntries(ctx context.Context, billID string, from, to time.Time) ([]core.BillLedgerEntry, error) {
	query := `SELECT id, bill_id, amount_cents, occurred_at, note FROM bill_ledger WHERE bill_id = ?`
	args := []any{billID}
	if !from.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, timeToDB(from))
	}
	if !to.IsZero() {
		query += ` AND occurred_at < ?`
		args = append(args, timeToDB(to))
	}
	query += ` ORDER BY occurred_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger entries for %s: %w", billID, err)
	}
	defer rows.Close()

	var out []core.BillLedgerEntry
	for rows.Next() {
		var (
			e        core.BillLedgerEntry
			occurred string
		)
		if err := rows.Scan(&e.ID, &e.BillID, &e.Amount.Cents, &occurred, &e.Note); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if e.OccurredAt, err = timeFromDB(occurred); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
