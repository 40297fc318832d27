package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeadlineOffsetDays is the fixed number of days an order has from creation
// to its shipping deadline.
const DeadlineOffsetDays = 5

var monthTitles = [...]string{
	"Січень", "Лютий", "Березень", "Квітень", "Травень", "Червень",
	"Липень", "Серпень", "Вересень", "Жовтень", "Листопад", "Грудень",
}

// ParseLocalDate parses a DD.MM.YYYY cell value. Blank or malformed input
// returns ok=false. Day and month ranges are not validated: 31.02.2024 rolls
// over to March the way the sheet formulas already treat it.
func ParseLocalDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

// FormatLocalDate renders a date back into the DD.MM.YYYY cell format.
func FormatLocalDate(t time.Time) string {
	return fmt.Sprintf("%02d.%02d.%04d", t.Day(), int(t.Month()), t.Year())
}

// SameCalendarDay compares year, month and day only; time of day is ignored.
func SameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// MonthTitle returns the capitalized Ukrainian month name for t, which is the
// title of the sheet new orders are written into.
func MonthTitle(t time.Time) string {
	return monthTitles[int(t.Month())-1]
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
