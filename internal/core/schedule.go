package core

import "time"

// lastDayOfMonth returns the number of days in a month.
func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDOM resolves a target day-of-month inside a concrete month, pulling
// day 29..31 back to the month's last day when it is shorter.
func clampDOM(year, month, day int) Date {
	last := lastDayOfMonth(year, month)
	if day > last {
		day = last
	}
	return NewDate(year, month, day)
}

func prevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// NextDue computes the next scheduled occurrence of a bill on or after ref,
// bounded by the bill's start/end dates. ok is false when the bill has no
// occurrence at or after ref inside its active window (inactive).
func (b Bill) NextDue(ref Date) (due Date, ok bool) {
	if !b.StartDate.IsEmpty() && ref.Before(b.StartDate.Time) {
		ref = b.StartDate
	}
	if !b.EndDate.IsEmpty() && ref.After(b.EndDate.Time) {
		return Date{}, false
	}

	switch b.Frequency {
	case Weekly:
		// weekday anchored 0=Mon..6=Sun; time.Weekday is 0=Sun.
		delta := (b.Weekday - (int(ref.Time.Weekday())+6)%7 + 7) % 7
		due = Date{Time: ref.AddDate(0, 0, delta)}
	case Monthly:
		due = clampDOM(ref.Year(), ref.Month(), b.DayOfMonth)
		if due.Before(ref.Time) {
			y, m := nextMonth(ref.Year(), ref.Month())
			due = clampDOM(y, m, b.DayOfMonth)
		}
	case Yearly:
		anchor := b.StartDate
		due = clampDOM(ref.Year(), anchor.Month(), anchor.Day())
		if due.Before(ref.Time) {
			due = clampDOM(ref.Year()+1, anchor.Month(), anchor.Day())
		}
	default:
		return Date{}, false
	}

	if !b.EndDate.IsEmpty() && due.After(b.EndDate.Time) {
		return Date{}, false
	}
	return due, true
}

// PreviousDue computes the scheduled occurrence immediately before due.
// Contributions between the previous due date and the current one count
// toward the current cycle. A start date later than the computed previous
// occurrence wins, so the first cycle opens at bill creation.
func (b Bill) PreviousDue(due Date) Date {
	var prev Date
	switch b.Frequency {
	case Weekly:
		prev = Date{Time: due.AddDate(0, 0, -7)}
	case Monthly:
		y, m := prevMonth(due.Year(), due.Month())
		prev = clampDOM(y, m, b.DayOfMonth)
	case Yearly:
		anchor := b.StartDate
		prev = clampDOM(due.Year()-1, anchor.Month(), anchor.Day())
	default:
		return due
	}
	if !b.StartDate.IsEmpty() && b.StartDate.After(prev.Time) {
		return b.StartDate
	}
	return prev
}

// DueDatesBetween expands every scheduled occurrence inside [from, to],
// intersected with the bill's own active window. Used for occurrence
// listings and the allocation planner.
func (b Bill) DueDatesBetween(from, to Date) []Date {
	if !b.StartDate.IsEmpty() && from.Before(b.StartDate.Time) {
		from = b.StartDate
	}
	if !b.EndDate.IsEmpty() && to.After(b.EndDate.Time) {
		to = b.EndDate
	}
	if from.After(to.Time) {
		return nil
	}

	var out []Date
	switch b.Frequency {
	case Weekly:
		d, ok := b.NextDue(from)
		if !ok {
			return nil
		}
		for !d.After(to.Time) {
			out = append(out, d)
			d = Date{Time: d.AddDate(0, 0, 7)}
		}
	case Monthly:
		y, m := from.Year(), from.Month()
		for {
			d := clampDOM(y, m, b.DayOfMonth)
			if d.After(to.Time) {
				break
			}
			if !d.Before(from.Time) {
				out = append(out, d)
			}
			y, m = nextMonth(y, m)
		}
	case Yearly:
		anchor := b.StartDate
		for y := from.Year(); ; y++ {
			d := clampDOM(y, anchor.Month(), anchor.Day())
			if d.After(to.Time) {
				break
			}
			if !d.Before(from.Time) {
				out = append(out, d)
			}
		}
	}
	return out
}
