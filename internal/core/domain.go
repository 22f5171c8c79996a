package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RawTransaction mirrors a provider record verbatim. Rows are created and
	// replaced only by the reconciler; the user never touches this table.
	RawTransaction struct {
		LMID           int64
		DatePosted     Date
		Amount         Money
		Currency       string
		Payee          string
		Note           string
		AccountID      string
		PlaidAccountID string
	}

	// WorkingTransaction is the locally editable projection of a raw record,
	// joined 1:1 by LMID. Category, Ignored, Note and Payee are user-owned;
	// DatePosted, Amount and Currency always follow the provider.
	WorkingTransaction struct {
		LMID       int64
		DatePosted Date
		Amount     Money
		Currency   string
		Payee      string
		Note       string
		Category   string // empty = uncategorized
		Ignored    bool
	}

	// ChangeRecord is one append-only audit entry per accepted user edit.
	ChangeRecord struct {
		ID        int64
		LMID      int64
		Field     EditableField
		OldValue  string
		NewValue  string
		ChangedAt time.Time
	}

	Category struct {
		ID              string
		Name            string
		AffectsCashflow bool
		Budgetable      bool
		IsIncome        bool
	}

	// Budget is one amount per (category, year, month); no carryover between months.
	Budget struct {
		CategoryID string
		Year       int
		Month      int
		Amount     Money
	}

	Bill struct {
		ID         string
		Name       string
		Amount     Money
		Currency   string
		Frequency  Frequency
		Weekday    int // 0=Mon..6=Sun, weekly only
		DayOfMonth int // monthly/yearly
		StartDate  Date
		EndDate    Date
	}

	// BillLedgerEntry is an append-only signed entry against a bill:
	// positive = contribution toward the next occurrence, negative = payment.
	BillLedgerEntry struct {
		ID         int64
		BillID     string
		Amount     Money
		OccurredAt time.Time
		Note       string
	}

	Account struct {
		ID       string
		Name     string
		Provider string
		Type     string
		Subtype  string
		IsLiquid bool
	}

	// BalanceSnapshot is a point-in-time account balance; the latest snapshot
	// per account is authoritative.
	BalanceSnapshot struct {
		ID        int64
		AccountID string
		Balance   Money
		Currency  string
		AsOf      time.Time
	}
)

// EditableField names a user-owned working-transaction field.
type EditableField string

const (
	FieldCategory EditableField = "category"
	FieldIgnored  EditableField = "ignored"
	FieldNote     EditableField = "note"
	FieldPayee    EditableField = "payee"
)

// IsEditable reports whether a field name is one of the four user-owned fields.
func IsEditable(field string) bool {
	switch EditableField(field) {
	case FieldCategory, FieldIgnored, FieldNote, FieldPayee:
		return true
	}
	return false
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyID          = errors.New("empty id")
	ErrEmptyName        = errors.New("empty name")

	// ErrBudgetOnExcluded rejects budgetable=true on a category whose
	// transactions are excluded from cashflow arithmetic.
	ErrBudgetOnExcluded = errors.New("category cannot be budgetable while excluded from cashflow")

	// ErrCategoryNotBudgetable rejects a budget row whose target category
	// fails budgetable && affects_cashflow.
	ErrCategoryNotBudgetable = errors.New("category not eligible for budgets")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date is unset (optional bounds).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Validate enforces the cross-field category invariant: a category excluded
// from cashflow cannot be budgetable, because budgeting against transactions
// that never count toward totals is meaningless.
func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Budgetable && !c.AffectsCashflow {
		return ErrBudgetOnExcluded
	}
	return nil
}

// BudgetEligible reports whether budget rows may reference this category.
func (c Category) BudgetEligible() bool {
	return c.Budgetable && c.AffectsCashflow
}

// ValidateBudget checks a budget row against its target category.
func ValidateBudget(b Budget, target Category) error {
	if !target.BudgetEligible() {
		return ErrCategoryNotBudgetable
	}
	if b.Year < 2000 || b.Year > 2100 {
		return ErrInvalidDate
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidDate
	}
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(b.Currency) != 3 {
		return ErrInvalidCurrency
	}
	switch b.Frequency {
	case Weekly:
		if b.Weekday < 0 || b.Weekday > 6 {
			return errors.New("weekday required for weekly bills (0=Mon..6=Sun)")
		}
	case Monthly:
		if b.DayOfMonth < 1 || b.DayOfMonth > 31 {
			return errors.New("day_of_month required for monthly bills")
		}
	case Yearly:
		if b.StartDate.IsEmpty() {
			return errors.New("start_date required for yearly bills")
		}
	default:
		return ErrInvalidFrequency
	}
	if !b.StartDate.IsEmpty() && !b.EndDate.IsEmpty() && b.EndDate.Before(b.StartDate.Time) {
		return errors.New("end date must not precede start date")
	}
	return nil
}
