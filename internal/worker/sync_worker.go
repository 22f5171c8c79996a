// Package worker runs the background synchronization loop: it pulls
// provider data and feeds the reconciler, driven by queued requests and a
// periodic timer.
package worker

import (
	"context"
	"fmt"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/provider"
	"cashflow/internal/services"
)

// SyncWorker fetches provider transactions and accounts and reconciles them
// into local storage.
type SyncWorker struct {
	source     provider.Source
	reconciler *services.Reconciler
	ingester   *services.AccountIngester
	logger     *log.Logger
}

func NewSyncWorker(source provider.Source, reconciler *services.Reconciler, ingester *services.AccountIngester, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		source:     source,
		reconciler: reconciler,
		ingester:   ingester,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage resolves a queued request to a date window and runs one
// full sync pass. Returning an error requeues the message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	from, to, err := msg.Window(core.DateOf(time.Now()))
	if err != nil {
		// A bad window never improves on redelivery; report and drop.
		w.logger.ErrorContext(ctx, "Dropping sync request with bad window",
			log.FieldOperation, log.OpSync,
			"error", err.Error())
		return nil
	}
	return w.Sync(ctx, from, to)
}

// Sync runs one reconciliation pass over [from, to] plus an account and
// balance ingestion.
func (w *SyncWorker) Sync(ctx context.Context, from, to core.Date) error {
	started := time.Now()
	w.logger.InfoContext(ctx, "Sync pass starting",
		log.FieldOperation, log.OpSync,
		"from", from.String(),
		"to", to.String())

	records, err := w.source.Transactions(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}
	report, err := w.reconciler.Reconcile(ctx, records)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	accounts, err := w.source.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}
	ingest, err := w.ingester.Ingest(ctx, accounts, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ingest accounts: %w", err)
	}

	w.logger.InfoContext(ctx, "Sync pass complete",
		log.FieldOperation, log.OpSync,
		"duration", time.Since(started).String(),
		"fetched", len(records),
		"created", report.Created,
		"untouched", report.Untouched,
		"skipped", len(report.Skipped),
		"accounts", ingest.Accounts,
		"snapshots", ingest.Snapshots)
	return nil
}

// Run consumes queued sync requests and fires an interval sync covering the
// trailing syncDays window. It blocks until ctx is canceled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration, syncDays int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- client.ConsumeSyncRequests(ctx, func(msg *amqp.SyncRequestMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		})
	}()

	// Initial pass so a fresh worker does not wait a full interval.
	if err := w.syncTrailing(ctx, syncDays); err != nil {
		w.logger.ErrorContext(ctx, "Initial sync failed",
			log.FieldOperation, log.OpSync,
			"error", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-consumeErr:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("consume sync requests: %w", err)
		case <-ticker.C:
			if err := w.syncTrailing(ctx, syncDays); err != nil {
				w.logger.ErrorContext(ctx, "Scheduled sync failed",
					log.FieldOperation, log.OpSync,
					"error", err.Error())
			}
		}
	}
}

func (w *SyncWorker) syncTrailing(ctx context.Context, days int) error {
	today := core.DateOf(time.Now())
	return w.Sync(ctx, core.DateOf(today.AddDate(0, 0, -days)), today)
}
