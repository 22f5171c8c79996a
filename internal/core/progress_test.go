package core

import (
	"testing"
	"time"
)

func entry(cents int64, day int) BillLedgerEntry {
	return BillLedgerEntry{
		Amount:     Money{Cents: cents},
		OccurredAt: time.Date(2025, 7, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestProgressSince(t *testing.T) {
	amount := Money{Cents: 10000}

	tests := []struct {
		name            string
		entries         []BillLedgerEntry
		wantContributed int64
		wantRemaining   int64
		wantFunded      bool
	}{
		{
			name:            "empty ledger",
			entries:         nil,
			wantContributed: 0,
			wantRemaining:   10000,
			wantFunded:      false,
		},
		{
			name:            "partial progress",
			entries:         []BillLedgerEntry{entry(2500, 3), entry(2500, 10)},
			wantContributed: 5000,
			wantRemaining:   5000,
			wantFunded:      false,
		},
		{
			name:            "exactly funded",
			entries:         []BillLedgerEntry{entry(5000, 3), entry(5000, 10)},
			wantContributed: 10000,
			wantRemaining:   0,
			wantFunded:      true,
		},
		{
			name:            "overfunded clamps remaining at zero",
			entries:         []BillLedgerEntry{entry(12000, 3)},
			wantContributed: 12000,
			wantRemaining:   0,
			wantFunded:      true,
		},
		{
			name: "payment resets the window",
			entries: []BillLedgerEntry{
				entry(5000, 1), entry(5000, 5), entry(-10000, 6), entry(3000, 10),
			},
			wantContributed: 3000,
			wantRemaining:   7000,
			wantFunded:      false,
		},
		{
			name: "only the most recent payment counts as the cutoff",
			entries: []BillLedgerEntry{
				entry(10000, 1), entry(-10000, 2), entry(10000, 10), entry(-10000, 11), entry(500, 12),
			},
			wantContributed: 500,
			wantRemaining:   9500,
			wantFunded:      false,
		},
		{
			name:            "payment is the last entry",
			entries:         []BillLedgerEntry{entry(10000, 1), entry(-10000, 2)},
			wantContributed: 0,
			wantRemaining:   10000,
			wantFunded:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressSince(tt.entries, amount)
			if got.Contributed.Cents != tt.wantContributed {
				t.Errorf("Contributed = %d, want %d", got.Contributed.Cents, tt.wantContributed)
			}
			if got.Remaining.Cents != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", got.Remaining.Cents, tt.wantRemaining)
			}
			if got.FullyFunded != tt.wantFunded {
				t.Errorf("FullyFunded = %v, want %v", got.FullyFunded, tt.wantFunded)
			}
		})
	}
}

func TestLedgerSums(t *testing.T) {
	contributed, paid := LedgerSums([]BillLedgerEntry{
		entry(5000, 1), entry(5000, 5), entry(-10000, 6), entry(3000, 10),
	})
	if contributed.Cents != 13000 {
		t.Errorf("contributed = %d, want 13000", contributed.Cents)
	}
	if paid.Cents != 10000 {
		t.Errorf("paid = %d, want 10000", paid.Cents)
	}
}
