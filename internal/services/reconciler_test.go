package services

import (
	"context"
	"testing"

	"cashflow/internal/provider"
)

func TestReconcileCountsAndIdempotence(t *testing.T) {
	repo := newRepo(t)
	r := NewReconciler(repo, testLogger())

	batch := []provider.Record{
		record(1, "2026-03-01", "-12.50"),
		record(2, "2026-03-02", "-7.00"),
		record(3, "2026-03-03", "100.00"),
	}

	report := mustReconcile(t, r, batch...)
	if report.Created != 3 || report.Untouched != 0 || report.RawUpserted != 3 {
		t.Fatalf("first pass: got %+v", report)
	}

	report = mustReconcile(t, r, batch...)
	if report.Created != 0 || report.Untouched != 3 {
		t.Fatalf("second pass must be a no-op: got %+v", report)
	}

	n, err := repo.CountTransactions(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 working rows, got %d", n)
	}
}

func TestReconcileSkipsMalformedRecords(t *testing.T) {
	repo := newRepo(t)
	r := NewReconciler(repo, testLogger())

	tests := []struct {
		name string
		rec  provider.Record
	}{
		{"missing id", record(0, "2026-03-01", "-1.00")},
		{"bad date", record(10, "March 1st", "-1.00")},
		{"bad amount", record(11, "2026-03-01", "twelve")},
		{"bad currency", provider.Record{LMID: 12, Date: "2026-03-01", Amount: "-1.00", Currency: "???"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := mustReconcile(t, r, tt.rec, record(99, "2026-03-05", "-5.00"))
			if len(report.Skipped) != 1 {
				t.Fatalf("expected 1 skipped record, got %d", len(report.Skipped))
			}
			if report.RawUpserted != 1 {
				t.Fatalf("good record must still land, got %+v", report)
			}
		})
	}
}

func TestReconcilePreservesEdits(t *testing.T) {
	repo := newRepo(t)
	r := NewReconciler(repo, testLogger())
	edits := NewEdits(repo, testLogger())
	ctx := context.Background()

	mustReconcile(t, r, record(1, "2026-03-01", "-12.50"))

	if _, _, err := edits.Apply(ctx, EditRequest{LMID: 1, Field: "payee", Value: "Landlord"}); err != nil {
		t.Fatalf("edit payee: %v", err)
	}
	if _, _, err := edits.Apply(ctx, EditRequest{LMID: 1, Field: "category", Value: "rent"}); err != nil {
		t.Fatalf("edit category: %v", err)
	}

	// Provider amends the amount and payee on resync.
	amended := record(1, "2026-03-01", "-13.00")
	amended.Payee = "ACME*PMT"
	mustReconcile(t, r, amended)

	got, err := repo.GetTransaction(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != -1300 {
		t.Errorf("amount must follow provider, got %d", got.Amount.Cents)
	}
	if got.Payee != "Landlord" {
		t.Errorf("edited payee must survive, got %q", got.Payee)
	}
	if got.Category != "rent" {
		t.Errorf("category must survive, got %q", got.Category)
	}

	changes, err := repo.ListChanges(ctx, 1)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	if len(changes) != 2 {
		t.Errorf("provider refresh must not add audit rows, got %d", len(changes))
	}
}
