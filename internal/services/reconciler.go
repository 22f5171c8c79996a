// Package services holds the reconciler, edit, budget, bill, liquidity and
// planning logic on top of the storage layer.
package services

import (
	"context"
	"fmt"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/provider"
	"cashflow/internal/storage"
)

// SkippedRecord reports one malformed provider record.
type SkippedRecord struct {
	LMID   int64  `json:"lm_id"`
	Reason string `json:"reason"`
}

// ReconcileReport summarizes one reconciliation batch.
type ReconcileReport struct {
	RawUpserted int             `json:"raw_upserted"`
	Created     int             `json:"created"`
	Untouched   int             `json:"untouched"`
	Skipped     []SkippedRecord `json:"skipped,omitempty"`
}

type Reconciler struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewReconciler(repo *storage.SQLiteRepository, logger *log.Logger) *Reconciler {
	return &Reconciler{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentReconciler),
	}
}

// Reconcile upserts a provider batch into the mirror. Each record runs in its
// own transaction; a malformed record is reported and skipped without
// aborting the batch. Re-running the same batch is a no-op apart from the
// untouched count.
func (r *Reconciler) Reconcile(ctx context.Context, records []provider.Record) (ReconcileReport, error) {
	var report ReconcileReport

	for _, rec := range records {
		raw, err := parseRecord(rec)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{
				LMID:   rec.LMID,
				Reason: err.Error(),
			})
			r.logger.WarnContext(ctx, "Skipping malformed provider record",
				log.FieldOperation, log.OpReconcile,
				log.FieldLMID, rec.LMID,
				"reason", err.Error())
			continue
		}

		res, err := r.repo.UpsertRaw(ctx, raw)
		if err != nil {
			return report, fmt.Errorf("reconcile record %d: %w", raw.LMID, err)
		}
		report.RawUpserted++
		if res.Created {
			report.Created++
		} else {
			report.Untouched++
		}
	}

	r.logger.InfoContext(ctx, "Reconciliation batch complete",
		log.FieldOperation, log.OpReconcile,
		"raw_upserted", report.RawUpserted,
		"created", report.Created,
		"untouched", report.Untouched,
		"skipped", len(report.Skipped))
	return report, nil
}

func parseRecord(rec provider.Record) (core.RawTransaction, error) {
	var raw core.RawTransaction

	if rec.LMID <= 0 {
		return raw, &core.UpstreamDataError{LMID: rec.LMID, Reason: "missing external id"}
	}

	date, err := core.ParseDate(rec.Date)
	if err != nil {
		return raw, &core.UpstreamDataError{LMID: rec.LMID, Reason: fmt.Sprintf("bad date %q", rec.Date)}
	}

	cents, err := core.ParseSignedCents(rec.Amount)
	if err != nil {
		return raw, &core.UpstreamDataError{LMID: rec.LMID, Reason: fmt.Sprintf("bad amount %q", rec.Amount)}
	}

	currency, err := core.NormalizeCurrency(rec.Currency)
	if err != nil {
		return raw, &core.UpstreamDataError{LMID: rec.LMID, Reason: fmt.Sprintf("bad currency %q", rec.Currency)}
	}

	return core.RawTransaction{
		LMID:           rec.LMID,
		DatePosted:     date,
		Amount:         core.Money{Cents: cents},
		Currency:       currency,
		Payee:          strings.TrimSpace(rec.Payee),
		Note:           strings.TrimSpace(rec.Note),
		AccountID:      rec.AccountID,
		PlaidAccountID: rec.PlaidAccountID,
	}, nil
}
