package services

import (
	"context"
	"path/filepath"
	"testing"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/provider"
	"cashflow/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func record(lmID int64, date, amount string) provider.Record {
	return provider.Record{
		LMID:     lmID,
		Date:     date,
		Amount:   amount,
		Currency: "usd",
		Payee:    "Acme",
	}
}

func mustReconcile(t *testing.T, r *Reconciler, records ...provider.Record) ReconcileReport {
	t.Helper()
	report, err := r.Reconcile(context.Background(), records)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	return report
}

func mustCategory(t *testing.T, repo *storage.SQLiteRepository, c core.Category) {
	t.Helper()
	if err := repo.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("create category %s: %v", c.ID, err)
	}
}
