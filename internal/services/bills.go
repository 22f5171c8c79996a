package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/storage"
)

// BillStatus is the tracker's answer for one bill at one reference date.
type BillStatus struct {
	Bill        core.Bill      `json:"bill"`
	State       core.BillState `json:"state"`
	NextDue     *core.Date     `json:"next_due,omitempty"`
	Contributed core.Money     `json:"contributed_cents"`
	Remaining   core.Money     `json:"remaining_cents"`
	FullyFunded bool           `json:"fully_funded"`
}

// Occurrence is one projected due date with funding progress and urgency.
type Occurrence struct {
	BillID      string     `json:"bill_id"`
	Name        string     `json:"name"`
	Due         core.Date  `json:"due"`
	Amount      core.Money `json:"amount_cents"`
	Contributed core.Money `json:"contributed_cents"`
	Remaining   core.Money `json:"remaining_cents"`
	Paid        bool       `json:"paid"`
	DaysToDue   int        `json:"days_to_due"`
	Priority    float64    `json:"priority"`
}

// MarkPaidResult reports whether a payment entry was written or the period
// was already settled.
type MarkPaidResult struct {
	AlreadyPaid bool                  `json:"already_paid"`
	Entry       *core.BillLedgerEntry `json:"entry,omitempty"`
}

type BillTracker struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewBillTracker(repo *storage.SQLiteRepository, logger *log.Logger) *BillTracker {
	return &BillTracker{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentBills),
	}
}

func (t *BillTracker) Create(ctx context.Context, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return core.NewValidationError("bill", err)
	}
	return t.repo.CreateBill(ctx, b)
}

func (t *BillTracker) Update(ctx context.Context, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return core.NewValidationError("bill", err)
	}
	return t.repo.UpdateBill(ctx, b)
}

func (t *BillTracker) Delete(ctx context.Context, id string) error {
	return t.repo.DeleteBill(ctx, id)
}

func (t *BillTracker) Get(ctx context.Context, id string) (core.Bill, error) {
	return t.repo.GetBill(ctx, id)
}

func (t *BillTracker) List(ctx context.Context) ([]core.Bill, error) {
	return t.repo.ListBills(ctx)
}

// Contribute appends a signed ledger entry. Zero amounts are rejected;
// negative amounts are allowed for manual corrections.
func (t *BillTracker) Contribute(ctx context.Context, billID string, amount core.Money, note string) (core.BillLedgerEntry, error) {
	if amount.Cents == 0 {
		return core.BillLedgerEntry{}, core.NewValidationError("amount",
			fmt.Errorf("contribution amount must be non-zero"))
	}
	entry, err := t.repo.AppendLedgerEntry(ctx, billID, amount, time.Now().UTC(), note)
	if err != nil {
		return entry, err
	}
	t.logger.InfoContext(ctx, "Bill contribution recorded",
		log.FieldBillID, billID,
		"amount_cents", amount.Cents)
	return entry, nil
}

// Progress computes a bill's funding state as of a reference date. Ledger
// entries after asOf are invisible, so historical questions get historical
// answers.
func (t *BillTracker) Progress(ctx context.Context, billID string, asOf core.Date) (BillStatus, error) {
	bill, err := t.repo.GetBill(ctx, billID)
	if err != nil {
		return BillStatus{}, err
	}
	entries, err := t.entriesThrough(ctx, billID, asOf)
	if err != nil {
		return BillStatus{}, err
	}
	return t.status(bill, entries, asOf), nil
}

func (t *BillTracker) entriesThrough(ctx context.Context, billID string, asOf core.Date) ([]core.BillLedgerEntry, error) {
	cutoff := asOf.AddDate(0, 0, 1) // end of the asOf day
	return t.repo.LedgerEntries(ctx, billID, time.Time{}, cutoff)
}

func (t *BillTracker) status(bill core.Bill, entries []core.BillLedgerEntry, asOf core.Date) BillStatus {
	status := BillStatus{Bill: bill}

	due, ok := bill.NextDue(asOf)
	if !ok {
		status.State = core.StateInactive
		status.Remaining = bill.Amount
		return status
	}
	status.NextDue = &due

	progress := core.ProgressSince(entries, bill.Amount)
	status.Contributed = progress.Contributed
	status.Remaining = progress.Remaining
	status.FullyFunded = progress.FullyFunded

	switch {
	case periodPaid(bill, entries, due):
		status.State = core.StatePaid
	case progress.FullyFunded:
		status.State = core.StateFullyFunded
	default:
		status.State = core.StateAccumulating
	}
	return status
}

// periodSums totals a due date's period of the ledger: contributions as
// positives, payments as positive magnitudes. The period is half-open on
// the left, (previous due, due], so a payment made exactly on a due date
// settles that occurrence and never the following one.
func periodSums(bill core.Bill, entries []core.BillLedgerEntry, due core.Date) (contributed, paid core.Money) {
	from := bill.PreviousDue(due)
	for _, e := range entries {
		day := core.DateOf(e.OccurredAt)
		if !day.After(from.Time) || day.After(due.Time) {
			continue
		}
		if e.Amount.IsOutflow() {
			paid = paid.Add(e.Amount.Magnitude())
		} else {
			contributed = contributed.Add(e.Amount)
		}
	}
	return contributed, paid
}

// periodPaid reports whether payment entries inside the period ending at
// nextDue already cover the bill amount.
func periodPaid(bill core.Bill, entries []core.BillLedgerEntry, nextDue core.Date) bool {
	_, paid := periodSums(bill, entries, nextDue)
	return paid.Cents >= bill.Amount.Cents
}

// MarkPaid settles the current period. Calling it twice in one period writes
// a single payment entry; the second call reports already-paid and is a no-op.
func (t *BillTracker) MarkPaid(ctx context.Context, billID string, asOf core.Date) (MarkPaidResult, error) {
	var res MarkPaidResult

	bill, err := t.repo.GetBill(ctx, billID)
	if err != nil {
		return res, err
	}
	due, ok := bill.NextDue(asOf)
	if !ok {
		return res, core.NewValidationError("bill",
			fmt.Errorf("bill %s has no occurrence at %s", billID, asOf))
	}
	entries, err := t.entriesThrough(ctx, billID, asOf)
	if err != nil {
		return res, err
	}

	if periodPaid(bill, entries, due) {
		res.AlreadyPaid = true
		return res, nil
	}

	// The payment is stamped at the end of the asOf day so it lands inside
	// the period it settles and sorts after contributions recorded earlier
	// that day, which the settle consumes.
	paidAt := asOf.Time.Add(24*time.Hour - time.Nanosecond)
	entry, err := t.repo.AppendLedgerEntry(ctx, billID, bill.Amount.Neg(), paidAt, "paid")
	if err != nil {
		return res, err
	}
	res.Entry = &entry

	t.logger.InfoContext(ctx, "Bill marked paid",
		log.FieldBillID, billID,
		"due", due.String(),
		"amount_cents", bill.Amount.Cents)
	return res, nil
}

// Ledger returns a bill's entries, optionally bounded by [from, to] dates.
func (t *BillTracker) Ledger(ctx context.Context, billID string, from, to core.Date) ([]core.BillLedgerEntry, error) {
	if _, err := t.repo.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	var lo, hi time.Time
	if !from.IsEmpty() {
		lo = from.Time
	}
	if !to.IsEmpty() {
		hi = to.AddDate(0, 0, 1)
	}
	return t.repo.LedgerEntries(ctx, billID, lo, hi)
}

// Occurrences expands every bill's due dates inside [from, to], scored by
// urgency. Priority weighs closeness of the due date at 0.6 and missing
// funding at 0.4, so an unfunded bill due tomorrow outranks a funded one.
func (t *BillTracker) Occurrences(ctx context.Context, from, to core.Date, dueSoonDays int) ([]Occurrence, error) {
	if dueSoonDays <= 0 {
		dueSoonDays = 7
	}
	bills, err := t.repo.ListBills(ctx)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	for _, bill := range bills {
		dues := bill.DueDatesBetween(from, to)
		if len(dues) == 0 {
			continue
		}
		entries, err := t.entriesThrough(ctx, bill.ID, to)
		if err != nil {
			return nil, err
		}

		// Each due date owns its own ledger period, so two occurrences of
		// the same bill inside the window report independent progress.
		for _, due := range dues {
			contributed, paid := periodSums(bill, entries, due)
			remaining := bill.Amount.Cents - contributed.Cents
			if remaining < 0 {
				remaining = 0
			}
			occ := Occurrence{
				BillID:      bill.ID,
				Name:        bill.Name,
				Due:         due,
				Amount:      bill.Amount,
				Contributed: contributed,
				Remaining:   core.Money{Cents: remaining},
				Paid:        paid.Cents >= bill.Amount.Cents,
				DaysToDue:   daysBetween(from, due),
			}
			occ.Priority = priorityScore(occ, dueSoonDays)
			out = append(out, occ)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Due.Before(out[j].Due.Time)
	})
	return out, nil
}

func daysBetween(from, to core.Date) int {
	return int(to.Sub(from.Time) / (24 * time.Hour))
}

func priorityScore(occ Occurrence, dueSoonDays int) float64 {
	if occ.Paid {
		return 0
	}
	soon := float64(dueSoonDays-occ.DaysToDue) / float64(dueSoonDays)
	if soon < 0 {
		soon = 0
	}
	if soon > 1 {
		soon = 1
	}
	var funded float64
	if occ.Amount.Cents > 0 {
		funded = float64(occ.Contributed.Cents) / float64(occ.Amount.Cents)
	}
	if funded > 1 {
		funded = 1
	}
	return 0.6*soon + 0.4*(1-funded)
}
