package core

import "testing"

func TestNextDueMonthly(t *testing.T) {
	rent := Bill{ID: "rent", Frequency: Monthly, DayOfMonth: 1}

	tests := []struct {
		name   string
		bill   Bill
		ref    Date
		want   Date
		wantOK bool
	}{
		{
			name:   "ref on the due day",
			bill:   rent,
			ref:    NewDate(2025, 8, 1),
			want:   NewDate(2025, 8, 1),
			wantOK: true,
		},
		{
			name:   "ref mid-month rolls to next month",
			bill:   rent,
			ref:    NewDate(2025, 7, 15),
			want:   NewDate(2025, 8, 1),
			wantOK: true,
		},
		{
			name:   "december rolls into january",
			bill:   Bill{Frequency: Monthly, DayOfMonth: 5},
			ref:    NewDate(2025, 12, 10),
			want:   NewDate(2026, 1, 5),
			wantOK: true,
		},
		{
			name:   "day 31 clamps in february",
			bill:   Bill{Frequency: Monthly, DayOfMonth: 31},
			ref:    NewDate(2025, 2, 1),
			want:   NewDate(2025, 2, 28),
			wantOK: true,
		},
		{
			name:   "day 31 clamps to feb 29 in leap year",
			bill:   Bill{Frequency: Monthly, DayOfMonth: 31},
			ref:    NewDate(2024, 2, 1),
			want:   NewDate(2024, 2, 29),
			wantOK: true,
		},
		{
			name:   "ref before start date starts from start",
			bill:   Bill{Frequency: Monthly, DayOfMonth: 1, StartDate: NewDate(2025, 9, 1)},
			ref:    NewDate(2025, 7, 15),
			want:   NewDate(2025, 9, 1),
			wantOK: true,
		},
		{
			name:   "past end date is inactive",
			bill:   Bill{Frequency: Monthly, DayOfMonth: 1, EndDate: NewDate(2025, 6, 30)},
			ref:    NewDate(2025, 7, 15),
			wantOK: false,
		},
		{
			name:   "next occurrence would overshoot end date",
			bill:   Bill{Frequency: Monthly, DayOfMonth: 1, EndDate: NewDate(2025, 7, 20)},
			ref:    NewDate(2025, 7, 15),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.bill.NextDue(tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("NextDue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want.Time) {
				t.Errorf("NextDue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextDueWeekly(t *testing.T) {
	tests := []struct {
		name    string
		weekday int // 0=Mon..6=Sun
		ref     Date
		want    Date
	}{
		{name: "same day", weekday: 2, ref: NewDate(2025, 6, 11), want: NewDate(2025, 6, 11)},   // Wed
		{name: "later this week", weekday: 4, ref: NewDate(2025, 6, 11), want: NewDate(2025, 6, 13)}, // Fri
		{name: "wraps to next week", weekday: 0, ref: NewDate(2025, 6, 11), want: NewDate(2025, 6, 16)}, // Mon
		{name: "sunday anchor", weekday: 6, ref: NewDate(2025, 6, 11), want: NewDate(2025, 6, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bill{Frequency: Weekly, Weekday: tt.weekday}
			got, ok := b.NextDue(tt.ref)
			if !ok {
				t.Fatal("NextDue() ok = false")
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("NextDue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextDueYearly(t *testing.T) {
	insurance := Bill{Frequency: Yearly, StartDate: NewDate(2024, 2, 29)}

	got, ok := insurance.NextDue(NewDate(2025, 1, 10))
	if !ok {
		t.Fatal("NextDue() ok = false")
	}
	// Anniversary clamps to Feb 28 in non-leap years.
	if want := NewDate(2025, 2, 28); !got.Equal(want.Time) {
		t.Errorf("NextDue() = %s, want %s", got, want)
	}

	got, ok = insurance.NextDue(NewDate(2025, 3, 1))
	if !ok {
		t.Fatal("NextDue() ok = false")
	}
	if want := NewDate(2026, 2, 28); !got.Equal(want.Time) {
		t.Errorf("NextDue() = %s, want %s", got, want)
	}
}

func TestPreviousDue(t *testing.T) {
	tests := []struct {
		name string
		bill Bill
		due  Date
		want Date
	}{
		{
			name: "weekly is seven days back",
			bill: Bill{Frequency: Weekly, Weekday: 0},
			due:  NewDate(2025, 6, 16),
			want: NewDate(2025, 6, 9),
		},
		{
			name: "monthly previous month",
			bill: Bill{Frequency: Monthly, DayOfMonth: 1},
			due:  NewDate(2025, 8, 1),
			want: NewDate(2025, 7, 1),
		},
		{
			name: "monthly january wraps to december",
			bill: Bill{Frequency: Monthly, DayOfMonth: 15},
			due:  NewDate(2025, 1, 15),
			want: NewDate(2024, 12, 15),
		},
		{
			name: "monthly day 31 clamps in prior month",
			bill: Bill{Frequency: Monthly, DayOfMonth: 31},
			due:  NewDate(2025, 3, 31),
			want: NewDate(2025, 2, 28),
		},
		{
			name: "start date wins over computed previous",
			bill: Bill{Frequency: Monthly, DayOfMonth: 1, StartDate: NewDate(2025, 7, 20)},
			due:  NewDate(2025, 8, 1),
			want: NewDate(2025, 7, 20),
		},
		{
			name: "yearly previous anniversary",
			bill: Bill{Frequency: Yearly, StartDate: NewDate(2023, 5, 10)},
			due:  NewDate(2025, 5, 10),
			want: NewDate(2024, 5, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.bill.PreviousDue(tt.due)
			if !got.Equal(tt.want.Time) {
				t.Errorf("PreviousDue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDueDatesBetween(t *testing.T) {
	t.Run("monthly across months", func(t *testing.T) {
		b := Bill{Frequency: Monthly, DayOfMonth: 15}
		got := b.DueDatesBetween(NewDate(2025, 1, 1), NewDate(2025, 3, 31))
		want := []Date{NewDate(2025, 1, 15), NewDate(2025, 2, 15), NewDate(2025, 3, 15)}
		assertDates(t, got, want)
	})

	t.Run("weekly inside window", func(t *testing.T) {
		b := Bill{Frequency: Weekly, Weekday: 0} // Mondays
		got := b.DueDatesBetween(NewDate(2025, 6, 10), NewDate(2025, 6, 30))
		want := []Date{NewDate(2025, 6, 16), NewDate(2025, 6, 23), NewDate(2025, 6, 30)}
		assertDates(t, got, want)
	})

	t.Run("yearly with feb 29 anchor", func(t *testing.T) {
		b := Bill{Frequency: Yearly, StartDate: NewDate(2024, 2, 29)}
		got := b.DueDatesBetween(NewDate(2024, 1, 1), NewDate(2026, 12, 31))
		want := []Date{NewDate(2024, 2, 29), NewDate(2025, 2, 28), NewDate(2026, 2, 28)}
		assertDates(t, got, want)
	})

	t.Run("bill window truncates request window", func(t *testing.T) {
		b := Bill{Frequency: Monthly, DayOfMonth: 1, StartDate: NewDate(2025, 2, 1), EndDate: NewDate(2025, 3, 31)}
		got := b.DueDatesBetween(NewDate(2025, 1, 1), NewDate(2025, 12, 31))
		want := []Date{NewDate(2025, 2, 1), NewDate(2025, 3, 1)}
		assertDates(t, got, want)
	})

	t.Run("disjoint windows yield nothing", func(t *testing.T) {
		b := Bill{Frequency: Monthly, DayOfMonth: 1, EndDate: NewDate(2024, 12, 31)}
		if got := b.DueDatesBetween(NewDate(2025, 1, 1), NewDate(2025, 6, 30)); len(got) != 0 {
			t.Errorf("DueDatesBetween() = %v, want empty", got)
		}
	})
}

func assertDates(t *testing.T, got, want []Date) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d dates %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i].Time) {
			t.Errorf("date[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
