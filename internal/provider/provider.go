// Package provider talks to the external ledger service. It is strictly
// read-only: records are fetched and mirrored locally, never written back.
package provider

import (
	"context"

	"cashflow/internal/core"
)

// Record is a provider transaction as received over the wire. Amounts stay
// strings until the reconciler parses them, so one malformed record can be
// rejected individually instead of failing the fetch.
type Record struct {
	LMID           int64
	Date           string
	Amount         string
	Currency       string
	Payee          string
	Note           string
	AccountID      string
	PlaidAccountID string
}

// AccountRecord is a provider account with its current balance, used for
// account upserts and balance snapshots during sync.
type AccountRecord struct {
	ID       string
	Name     string
	Provider string // "plaid" or "asset"
	Type     string
	Subtype  string
	Balance  string // empty when the provider reports no balance
	Currency string
}

// Source is the read-only boundary to the external ledger.
type Source interface {
	// Transactions returns every transaction posted inside [from, to].
	Transactions(ctx context.Context, from, to core.Date) ([]Record, error)

	// Accounts returns linked accounts and manually tracked assets.
	Accounts(ctx context.Context) ([]AccountRecord, error)
}
