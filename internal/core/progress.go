package core

// BillState is the conceptual lifecycle of a bill within a cycle.
type BillState string

const (
	StateAccumulating BillState = "accumulating"
	StateFullyFunded  BillState = "fully_funded"
	StatePaid         BillState = "paid"
	StateInactive     BillState = "inactive"
)

// BillProgress is the windowed running balance toward a bill's next
// occurrence.
type BillProgress struct {
	Contributed Money
	Remaining   Money
	FullyFunded bool
}

// ProgressSince folds a bill's ledger into progress toward the next cycle.
// A payment (negative entry) settles the current cycle, so only entries
// after the most recent payment count; with no payment on record the window
// opens at bill creation. Entries must be ordered oldest first.
func ProgressSince(entries []BillLedgerEntry, amount Money) BillProgress {
	start := 0
	for i, e := range entries {
		if e.Amount.IsOutflow() {
			start = i + 1
		}
	}

	var sum Money
	for _, e := range entries[start:] {
		sum = sum.Add(e.Amount)
	}

	remaining := amount.Cents - sum.Cents
	if remaining < 0 {
		remaining = 0
	}
	return BillProgress{
		Contributed: sum,
		Remaining:   Money{Cents: remaining},
		FullyFunded: sum.Cents >= amount.Cents,
	}
}

// LedgerSums splits a ledger slice into the total contributed (positive
// entries) and the total paid (magnitude of negative entries).
func LedgerSums(entries []BillLedgerEntry) (contributed, paid Money) {
	for _, e := range entries {
		if e.Amount.IsOutflow() {
			paid = paid.Add(e.Amount.Magnitude())
		} else {
			contributed = contributed.Add(e.Amount)
		}
	}
	return contributed, paid
}
