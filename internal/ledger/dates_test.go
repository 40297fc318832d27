package ledger

import (
	"testing"
	"time"
)

func TestParseLocalDate(t *testing.T) {
	parsed, ok := ParseLocalDate("15.03.2024")
	if !ok {
		t.Fatal("expected 15.03.2024 to parse")
	}
	if parsed.Year() != 2024 || parsed.Month() != time.March || parsed.Day() != 15 {
		t.Fatalf("unexpected date: %v", parsed)
	}
}

func TestParseLocalDateRejectsBlankAndMalformed(t *testing.T) {
	for _, input := range []string{"", "   ", "bad", "15.03", "15/03/2024", "a.b.c"} {
		if _, ok := ParseLocalDate(input); ok {
			t.Fatalf("expected %q not to parse", input)
		}
	}
}

func TestParseLocalDateRollsOverOutOfRangeDays(t *testing.T) {
	// 2024 is a leap year, so the 31st of February lands on March 2nd.
	parsed, ok := ParseLocalDate("31.02.2024")
	if !ok {
		t.Fatal("expected 31.02.2024 to parse")
	}
	if !SameCalendarDay(parsed, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("expected rollover to 02.03.2024, got %v", parsed)
	}
}

func TestSameCalendarDayIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.Local)
	evening := time.Date(2024, time.March, 15, 23, 59, 0, 0, time.Local)
	nextDay := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.Local)

	if !SameCalendarDay(morning, morning) {
		t.Fatal("expected reflexivity")
	}
	if !SameCalendarDay(morning, evening) || !SameCalendarDay(evening, morning) {
		t.Fatal("expected same day regardless of hours")
	}
	if SameCalendarDay(evening, nextDay) {
		t.Fatal("expected different days to compare unequal")
	}
}

func TestFormatLocalDateRoundTrips(t *testing.T) {
	day := time.Date(2024, time.January, 5, 13, 45, 0, 0, time.Local)
	formatted := FormatLocalDate(day)
	if formatted != "05.01.2024" {
		t.Fatalf("expected 05.01.2024, got %s", formatted)
	}
	parsed, ok := ParseLocalDate(formatted)
	if !ok || !SameCalendarDay(parsed, day) {
		t.Fatalf("round trip failed: %v", parsed)
	}
}

func TestMonthTitle(t *testing.T) {
	cases := map[time.Month]string{
		time.January:  "Січень",
		time.March:    "Березень",
		time.December: "Грудень",
	}
	for month, want := range cases {
		got := MonthTitle(time.Date(2024, month, 10, 0, 0, 0, 0, time.Local))
		if got != want {
			t.Fatalf("month %v: expected %s, got %s", month, want, got)
		}
	}
}
