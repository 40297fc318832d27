package sheets

import (
	"context"
	"fmt"
	"time"

	sheetsapi "google.golang.org/api/sheets/v4"
)

// Row is one fetched ledger line. Mutations stay in memory until Save writes
// the whole row back to its original sheet position.
type Row struct {
	client  *Client
	sheet   string
	number  int // 1-based sheet row number
	headers []string
	values  map[string]string
}

// Get returns the cell value under the given header, or "" when the sheet
// has no such column.
func (r *Row) Get(column string) string {
	return r.values[column]
}

// Set updates the in-memory cell value under the given header.
func (r *Row) Set(column, value string) {
	r.values[column] = value
}

// Save writes the row back in place. The write covers every header column,
// so cleared cells are blanked rather than left behind.
func (r *Row) Save(ctx context.Context) error {
	cells := make([]any, 0, len(r.headers))
	for _, header := range r.headers {
		cells = append(cells, r.values[header])
	}

	rangeRef := fmt.Sprintf("%s!A%d", quoteTitle(r.sheet), r.number)
	vr := &sheetsapi.ValueRange{Values: [][]any{cells}}

	start := time.Now()
	_, err := r.client.srv.Spreadsheets.Values.Update(r.client.spreadsheetID, rangeRef, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	r.client.observe("update_values", start, err)
	if err != nil {
		return fmt.Errorf("update row %s: %w", rangeRef, err)
	}
	return nil
}
