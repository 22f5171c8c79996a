package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashflow/internal/core"
)

// ReconcileResult reports what a single raw record did to the store.
type ReconcileResult struct {
	Created bool // working row inserted for the first time
}

// UpsertRaw reconciles one provider record inside its own transaction.
// The raw mirror row is replaced wholesale. The working row is created on
// first sight; on later syncs date, amount and currency always follow the
// provider, while payee and note follow only until the user has edited that
// field at least once.
func (r *SQLiteRepository) UpsertRaw(ctx context.Context, raw core.RawTransaction) (ReconcileResult, error) {
	var res ReconcileResult

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lm_transactions (lm_id, date_posted, amount_cents, currency, payee, note, account_id, plaid_account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lm_id) DO UPDATE SET
			date_posted = excluded.date_posted,
			amount_cents = excluded.amount_cents,
			currency = excluded.currency,
			payee = excluded.payee,
			note = excluded.note,
			account_id = excluded.account_id,
			plaid_account_id = excluded.plaid_account_id`,
		raw.LMID, dateToDB(raw.DatePosted), raw.Amount.Cents, raw.Currency,
		raw.Payee, raw.Note, raw.AccountID, raw.PlaidAccountID)
	if err != nil {
		return res, fmt.Errorf("upsert raw transaction %d: %w", raw.LMID, err)
	}

	ins, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (lm_id, date_posted, amount_cents, currency, payee, note)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(lm_id) DO NOTHING`,
		raw.LMID, dateToDB(raw.DatePosted), raw.Amount.Cents, raw.Currency,
		raw.Payee, raw.Note)
	if err != nil {
		return res, fmt.Errorf("insert working transaction %d: %w", raw.LMID, err)
	}
	n, err := ins.RowsAffected()
	if err != nil {
		return res, fmt.Errorf("rows affected for %d: %w", raw.LMID, err)
	}
	res.Created = n > 0

	if !res.Created {
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET date_posted = ?, amount_cents = ?, currency = ?
			WHERE lm_id = ?`,
			dateToDB(raw.DatePosted), raw.Amount.Cents, raw.Currency, raw.LMID)
		if err != nil {
			return res, fmt.Errorf("refresh working transaction %d: %w", raw.LMID, err)
		}

		// Payee and note keep following the provider until the user has
		// claimed the field with an edit.
		for _, f := range []struct {
			field core.EditableField
			value string
		}{
			{core.FieldPayee, raw.Payee},
			{core.FieldNote, raw.Note},
		} {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`
				UPDATE transactions SET %s = ?
				WHERE lm_id = ?
				  AND NOT EXISTS (
					SELECT 1 FROM transaction_changes
					WHERE lm_id = ? AND field = ?
				  )`, f.field),
				f.value, raw.LMID, raw.LMID, string(f.field))
			if err != nil {
				return res, fmt.Errorf("refresh %s for %d: %w", f.field, raw.LMID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit reconcile tx: %w", err)
	}
	return res, nil
}

// CountTransactions returns the number of working rows, used by the
// reconciler to derive the untouched count.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

const workingColumns = `lm_id, date_posted, amount_cents, currency, payee, note, COALESCE(category, ''), ignored`

func scanWorking(row interface{ Scan(...any) error }) (core.WorkingTransaction, error) {
	var (
		t       core.WorkingTransaction
		date    string
		ignored int64
	)
	err := row.Scan(&t.LMID, &date, &t.Amount.Cents, &t.Currency, &t.Payee, &t.Note, &t.Category, &ignored)
	if err != nil {
		return t, err
	}
	t.DatePosted, err = dateFromDB(date)
	if err != nil {
		return t, err
	}
	t.Ignored = ignored != 0
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, lmID int64) (core.WorkingTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workingColumns+` FROM transactions WHERE lm_id = ?`, lmID)
	t, err := scanWorking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, core.ErrNotFound
	}
	if err != nil {
		return t, fmt.Errorf("get transaction %d: %w", lmID, err)
	}
	return t, nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no bound".
type TransactionFilter struct {
	From     core.Date
	To       core.Date // inclusive
	Category string
	Ignored  *bool
	Limit    int
	Offset   int
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.WorkingTransaction, error) {
	query := `SELECT ` + workingColumns + ` FROM transactions WHERE 1=1`
	args := []any{}
	if !f.From.IsEmpty() {
		query += ` AND date_posted >= ?`
		args = append(args, dateToDB(f.From))
	}
	if !f.To.IsEmpty() {
		query += ` AND date_posted <= ?`
		args = append(args, dateToDB(f.To))
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Ignored != nil {
		query += ` AND ignored = ?`
		args = append(args, boolToDB(*f.Ignored))
	}
	query += ` ORDER BY date_posted DESC, lm_id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.WorkingTransaction
	for rows.Next() {
		t, err := scanWorking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecordEdit applies a single field update and its audit entry atomically.
// value is the typed column value, oldStr/newStr the audit representation.
func (r *SQLiteRepository) RecordEdit(ctx context.Context, lmID int64, field core.EditableField, value any, oldStr, newStr string) (core.ChangeRecord, error) {
	var rec core.ChangeRecord

	var column string
	switch field {
	case core.FieldCategory:
		column = "category"
	case core.FieldIgnored:
		column = "ignored"
	case core.FieldNote:
		column = "note"
	case core.FieldPayee:
		column = "payee"
	default:
		return rec, fmt.Errorf("field %q: %w", field, core.ErrConflict)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("begin edit tx: %w", err)
	}
	defer tx.Rollback()

	upd, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE transactions SET %s = ? WHERE lm_id = ?`, column),
		value, lmID)
	if err != nil {
		return rec, fmt.Errorf("update %s on %d: %w", field, lmID, err)
	}
	if n, _ := upd.RowsAffected(); n == 0 {
		return rec, core.ErrNotFound
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO transaction_changes (lm_id, field, old_value, new_value, changed_at)
		VALUES (?, ?, ?, ?, ?)`,
		lmID, string(field), oldStr, newStr, timeToDB(now))
	if err != nil {
		return rec, fmt.Errorf("record change for %d: %w", lmID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return rec, fmt.Errorf("change id for %d: %w", lmID, err)
	}

	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("commit edit tx: %w", err)
	}

	rec = core.ChangeRecord{
		ID:        id,
		LMID:      lmID,
		Field:     field,
		OldValue:  oldStr,
		NewValue:  newStr,
		ChangedAt: now,
	}
	return rec, nil
}

func (r *SQLiteRepository) ListChanges(ctx context.Context, lmID int64) ([]core.ChangeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lm_id, field, old_value, new_value, changed_at
		FROM transaction_changes WHERE lm_id = ? ORDER BY id`, lmID)
	if err != nil {
		return nil, fmt.Errorf("list changes for %d: %w", lmID, err)
	}
	defer rows.Close()

	var out []core.ChangeRecord
	for rows.Next() {
		var (
			rec     core.ChangeRecord
			field   string
			changed string
		)
		if err := rows.Scan(&rec.ID, &rec.LMID, &field, &rec.OldValue, &rec.NewValue, &changed); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		rec.Field = core.EditableField(field)
		rec.ChangedAt, err = timeFromDB(changed)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HasChange reports whether any audit entry exists for a field of a row.
func (r *SQLiteRepository) HasChange(ctx context.Context, lmID int64, field core.EditableField) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transaction_changes WHERE lm_id = ? AND field = ?`,
		lmID, string(field)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check changes for %d: %w", lmID, err)
	}
	return n > 0, nil
}
