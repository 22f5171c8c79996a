package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashflow/internal/core"
)

// UpsertAccount inserts or refreshes an account. is_liquid is written only
// on first insert; afterwards it stays a user setting and syncs never touch it.
func (r *SQLiteRepository) UpsertAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, provider, type, subtype, is_liquid)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			provider = excluded.provider,
			type = excluded.type,
			subtype = excluded.subtype`,
		a.ID, a.Name, a.Provider, a.Type, a.Subtype, boolToDB(a.IsLiquid))
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", a.ID, err)
	}
	return nil
}

// SetAccountLiquid toggles the liquidity flag on an existing account.
func (r *SQLiteRepository) SetAccountLiquid(ctx context.Context, id string, liquid bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_liquid = ? WHERE id = ?`,
		boolToDB(liquid), id)
	if err != nil {
		return fmt.Errorf("set liquid on account %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var (
		a      core.Account
		liquid int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, provider, type, subtype, is_liquid FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Provider, &a.Type, &a.Subtype, &liquid)
	if errors.Is(err, sql.ErrNoRows) {
		return a, core.ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("get account %s: %w", id, err)
	}
	a.IsLiquid = liquid != 0
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, provider, type, subtype, is_liquid FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var (
			a      core.Account
			liquid int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Provider, &a.Type, &a.Subtype, &liquid); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.IsLiquid = liquid != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertSnapshot(ctx context.Context, s core.BalanceSnapshot) (core.BalanceSnapshot, error) {
	s.AsOf = s.AsOf.UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO account_balances (account_id, balance_cents, currency, as_of)
		VALUES (?, ?, ?, ?)`,
		s.AccountID, s.Balance.Cents, s.Currency, timeToDB(s.AsOf))
	if err != nil {
		return s, fmt.Errorf("insert snapshot for %s: %w", s.AccountID, err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return s, fmt.Errorf("snapshot id for %s: %w", s.AccountID, err)
	}
	return s, nil
}

// AccountBalance joins an account with its most recent snapshot.
type AccountBalance struct {
	Account  core.Account
	Balance  core.Money
	Currency string
	AsOf     time.Time
}

// LatestBalances returns, for every account that has at least one snapshot
// taken at or before asOf, the most recent such snapshot. Accounts without
// any snapshot are absent, not zero.
func (r *SQLiteRepository) LatestBalances(ctx context.Context, asOf time.Time) ([]AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.provider, a.type, a.subtype, a.is_liquid,
		       b.balance_cents, b.currency, b.as_of
		FROM accounts a
		JOIN account_balances b ON b.id = (
			SELECT id FROM account_balances
			WHERE account_id = a.id AND as_of <= ?
			ORDER BY as_of DESC, id DESC
			LIMIT 1
		)
		ORDER BY a.id`,
		timeToDB(asOf))
	if err != nil {
		return nil, fmt.Errorf("latest balances: %w", err)
	}
	defer rows.Close()

	var out []AccountBalance
	for rows.Next() {
		var (
			ab     AccountBalance
			liquid int64
			asOfDB string
		)
		err := rows.Scan(&ab.Account.ID, &ab.Account.Name, &ab.Account.Provider,
			&ab.Account.Type, &ab.Account.Subtype, &liquid,
			&ab.Balance.Cents, &ab.Currency, &asOfDB)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		ab.Account.IsLiquid = liquid != 0
		if ab.AsOf, err = timeFromDB(asOfDB); err != nil {
			return nil, err
		}
		out = append(out, ab)
	}
	return out, rows.Err()
}
