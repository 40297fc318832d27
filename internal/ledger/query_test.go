package ledger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeRow(product, deadline string) *memRow {
	return newMemRow(map[string]string{
		ColumnProduct:  product,
		ColumnShipping: "+380001112233",
		ColumnDeadline: deadline,
		ColumnStatus:   string(StatusSewing),
	})
}

func TestRunReturnsSentinelOnZeroMatches(t *testing.T) {
	source := &memSource{
		titles: []string{"Січень"},
		rows:   map[string][]Row{"Січень": {newMemRow(nil)}},
	}
	engine := NewQueryEngine(source, testLogger(), nil)

	report, err := engine.Run(context.Background(), All(), "📄 Список всіх активних замовлень:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != NoOrdersMessage {
		t.Fatalf("expected sentinel, got %q", report)
	}
}

func TestRunEmitsSheetThenRowOrder(t *testing.T) {
	source := &memSource{
		titles: []string{"Січень", "Лютий"},
		rows: map[string][]Row{
			"Січень": {activeRow("Сукня", "10.01.2024"), activeRow("Спідниця", "12.01.2024")},
			"Лютий":  {activeRow("Блуза", "05.02.2024")},
		},
	}
	engine := NewQueryEngine(source, testLogger(), nil)

	report, err := engine.Run(context.Background(), All(), "Всі:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := strings.Index(report, "Сукня")
	second := strings.Index(report, "Спідниця")
	third := strings.Index(report, "Блуза")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("missing rows in report: %q", report)
	}
	if !(first < second && second < third) {
		t.Fatalf("rows out of order: %q", report)
	}
	if !strings.HasPrefix(report, "Всі:\n\n") {
		t.Fatalf("expected title prefix, got %q", report)
	}
}

func TestRunSkipsReceivedAndEmptyRows(t *testing.T) {
	received := activeRow("Пальто", "10.01.2024")
	received.Set(ColumnStatus, string(StatusReceived))
	source := &memSource{
		titles: []string{"Січень"},
		rows: map[string][]Row{
			"Січень": {received, newMemRow(nil), activeRow("Сукня", "10.01.2024")},
		},
	}
	engine := NewQueryEngine(source, testLogger(), nil)

	report, err := engine.Run(context.Background(), All(), "Всі:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(report, "Пальто") {
		t.Fatalf("received order leaked into report: %q", report)
	}
	if !strings.Contains(report, "Сукня") {
		t.Fatalf("active order missing from report: %q", report)
	}
}

func TestDueTomorrowPredicate(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.Local)
	pred := DueTomorrow(now)

	tests := []struct {
		deadline string
		want     bool
	}{
		{"16.03.2024", true},
		{"15.03.2024", false},
		{"17.03.2024", false},
		{"", false},
	}
	for _, tc := range tests {
		row := activeRow("Сукня", tc.deadline)
		if got := Matches(row, pred); got != tc.want {
			t.Fatalf("deadline %q: expected %v, got %v", tc.deadline, tc.want, got)
		}
	}
}

func TestOverduePredicateIsStrictlyBeforeToday(t *testing.T) {
	now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.Local)
	pred := Overdue(now)

	tests := []struct {
		deadline string
		want     bool
	}{
		{"14.03.2024", true},
		{"01.01.2024", true},
		{"15.03.2024", false}, // due today is not overdue
		{"16.03.2024", false},
		{"garbage", false},
	}
	for _, tc := range tests {
		row := activeRow("Сукня", tc.deadline)
		if got := Matches(row, pred); got != tc.want {
			t.Fatalf("deadline %q: expected %v, got %v", tc.deadline, tc.want, got)
		}
	}
}

func TestMatchesWithoutDeadlineStillSatisfiesAll(t *testing.T) {
	row := activeRow("Сукня", "")
	if !Matches(row, All()) {
		t.Fatal("expected All to match a row without deadline")
	}
}

func TestFormatRowFieldOrder(t *testing.T) {
	row := activeRow("Сукня", "16.03.2024")
	row.Set(ColumnSize, "M")

	formatted := FormatRow(row)
	lines := strings.Split(formatted, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d: %q", len(lines), formatted)
	}
	if lines[0] != "Товар: Сукня" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "Розмір: M" {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
	if lines[9] != "Статус: "+string(StatusSewing) {
		t.Fatalf("unexpected last line: %q", lines[9])
	}
}

func TestChunkText(t *testing.T) {
	if chunks := ChunkText("short", 4000); len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}

	// Cyrillic runes must not be split mid-character.
	text := strings.Repeat("замовлення ", 10)
	chunks := ChunkText(text, 16)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rejoined strings.Builder
	for _, chunk := range chunks {
		if got := len([]rune(chunk)); got > 16 {
			t.Fatalf("chunk longer than limit: %d runes", got)
		}
		rejoined.WriteString(chunk)
	}
	if rejoined.String() != text {
		t.Fatal("chunks do not rejoin to the original text")
	}
}
