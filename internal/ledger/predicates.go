package ledger

import "time"

// Predicate decides whether an active row belongs in a report. The parsed
// deadline is passed alongside the row; hasDeadline is false when the cell is
// blank or malformed.
type Predicate func(r Row, deadline time.Time, hasDeadline bool) bool

// All matches every active row.
func All() Predicate {
	return func(Row, time.Time, bool) bool {
		return true
	}
}

// DueTomorrow matches rows whose deadline falls on the calendar day after now.
func DueTomorrow(now time.Time) Predicate {
	tomorrow := now.AddDate(0, 0, 1)
	return func(_ Row, deadline time.Time, hasDeadline bool) bool {
		return hasDeadline && SameCalendarDay(deadline, tomorrow)
	}
}

// Overdue matches rows whose deadline's calendar date is strictly before
// today's. An order due today is not overdue yet.
func Overdue(now time.Time) Predicate {
	today := startOfDay(now)
	return func(_ Row, deadline time.Time, hasDeadline bool) bool {
		return hasDeadline && startOfDay(deadline).Before(today)
	}
}

// Matches reports whether the row is active and satisfies pred.
func Matches(r Row, pred Predicate) bool {
	if !IsActive(r) {
		return false
	}
	deadline, ok := ParseLocalDate(r.Get(ColumnDeadline))
	return pred(r, deadline, ok)
}
