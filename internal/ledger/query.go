package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bot-zamovlennya/internal/metrics"
)

// NoOrdersMessage is returned verbatim when a query matches nothing.
const NoOrdersMessage = "✅ Немає замовлень за критерієм."

// DefaultChunkSize is the transport chunk limit for report messages.
const DefaultChunkSize = 4000

// QueryEngine scans every sheet of the ledger and builds text reports.
type QueryEngine struct {
	source  RowSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewQueryEngine builds a query engine over the given row source.
func NewQueryEngine(source RowSource, logger *slog.Logger, m *metrics.Metrics) *QueryEngine {
	return &QueryEngine{
		source:  source,
		logger:  logger.With("component", "query"),
		metrics: m,
	}
}

// Run fetches every sheet's rows, keeps the ones matching pred and renders
// them under title in sheet-then-row order. Zero matches yield
// NoOrdersMessage, never an empty string.
func (e *QueryEngine) Run(ctx context.Context, pred Predicate, title string) (string, error) {
	titles, err := e.source.SheetTitles(ctx)
	if err != nil {
		return "", fmt.Errorf("list sheets: %w", err)
	}

	var matched []string
	for _, sheet := range titles {
		rows, err := e.source.Rows(ctx, sheet)
		if err != nil {
			return "", fmt.Errorf("load rows from %q: %w", sheet, err)
		}
		for i, row := range rows {
			if e.safeMatch(sheet, i, row, pred) {
				matched = append(matched, FormatRow(row))
			}
		}
	}

	if len(matched) == 0 {
		return NoOrdersMessage, nil
	}
	return title + "\n\n" + strings.Join(matched, "\n\n"), nil
}

// safeMatch evaluates one row. A corrupt row must never abort the whole
// scan, so panics are swallowed and the row treated as non-matching.
func (e *QueryEngine) safeMatch(sheet string, index int, row Row, pred Predicate) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("skipping malformed row", "sheet", sheet, "row", index, "panic", r)
			if e.metrics != nil {
				e.metrics.Errors.WithLabelValues("query_row").Inc()
			}
			ok = false
		}
	}()
	return Matches(row, pred)
}

// FormatRow renders one order with the stable report template.
func FormatRow(r Row) string {
	var b strings.Builder
	fields := []string{
		ColumnProduct,
		ColumnSize,
		ColumnFabric,
		ColumnPayment,
		ColumnShipping,
		ColumnLink,
		ColumnAmount,
		ColumnDeadline,
		ColumnDaysLeft,
		ColumnStatus,
	}
	for i, column := range fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(column)
		b.WriteString(": ")
		b.WriteString(r.Get(column))
	}
	return b.String()
}

// ChunkText splits text into fixed-size pieces for transport. The split is a
// plain character boundary, not a row boundary.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
