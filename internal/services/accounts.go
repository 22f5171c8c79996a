package services

import (
	"context"
	"fmt"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/provider"
	"cashflow/internal/storage"
)

// IngestReport summarizes one account-and-balance ingestion pass.
type IngestReport struct {
	Accounts  int             `json:"accounts"`
	Snapshots int             `json:"snapshots"`
	Skipped   []SkippedRecord `json:"skipped,omitempty"`
}

type AccountIngester struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewAccountIngester(repo *storage.SQLiteRepository, logger *log.Logger) *AccountIngester {
	return &AccountIngester{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentReconciler),
	}
}

// Ingest upserts provider accounts and appends one balance snapshot per
// account that reports a balance. Bank checking and savings accounts default
// to liquid on first sight; everything else, manual assets included, defaults
// to non-liquid. The flag stays user-owned after that.
func (a *AccountIngester) Ingest(ctx context.Context, records []provider.AccountRecord, asOf time.Time) (IngestReport, error) {
	var report IngestReport

	for _, rec := range records {
		if rec.ID == "" {
			report.Skipped = append(report.Skipped, SkippedRecord{Reason: "missing account id"})
			continue
		}

		account := core.Account{
			ID:       rec.ID,
			Name:     rec.Name,
			Provider: rec.Provider,
			Type:     rec.Type,
			Subtype:  rec.Subtype,
			IsLiquid: defaultLiquid(rec),
		}
		if err := a.repo.UpsertAccount(ctx, account); err != nil {
			return report, fmt.Errorf("ingest account %s: %w", rec.ID, err)
		}
		report.Accounts++

		if rec.Balance == "" {
			continue
		}
		cents, err := core.ParseSignedCents(rec.Balance)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Reason: fmt.Sprintf("account %s: bad balance %q", rec.ID, rec.Balance),
			})
			continue
		}
		currency, err := core.NormalizeCurrency(rec.Currency)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Reason: fmt.Sprintf("account %s: bad currency %q", rec.ID, rec.Currency),
			})
			continue
		}
		_, err = a.repo.InsertSnapshot(ctx, core.BalanceSnapshot{
			AccountID: rec.ID,
			Balance:   core.Money{Cents: cents},
			Currency:  currency,
			AsOf:      asOf,
		})
		if err != nil {
			return report, fmt.Errorf("snapshot account %s: %w", rec.ID, err)
		}
		report.Snapshots++
	}

	a.logger.InfoContext(ctx, "Account ingestion complete",
		log.FieldOperation, log.OpSnapshot,
		"accounts", report.Accounts,
		"snapshots", report.Snapshots,
		"skipped", len(report.Skipped))
	return report, nil
}

func defaultLiquid(rec provider.AccountRecord) bool {
	if rec.Provider != "plaid" || rec.Type != "depository" {
		return false
	}
	return rec.Subtype == "checking" || rec.Subtype == "savings"
}
