package ledger

import (
	"context"
	"errors"
	"strings"
)

// ErrSheetNotFound indicates the requested sheet title does not exist in the
// spreadsheet.
var ErrSheetNotFound = errors.New("sheet not found")

// Row is one ledger line keyed by header name. Set mutates the in-memory
// copy only; Save persists the whole row back to the spreadsheet.
type Row interface {
	Get(column string) string
	Set(column, value string)
	Save(ctx context.Context) error
}

// RowSource is the spreadsheet collaborator the engines read from and write
// through. Rows are fetched fresh on every call, never cached.
type RowSource interface {
	SheetTitles(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, title string) ([]Row, error)
}

// IsEmpty reports whether the row is a free slot: both the product and the
// shipping info cells are blank.
func IsEmpty(r Row) bool {
	return strings.TrimSpace(r.Get(ColumnProduct)) == "" &&
		strings.TrimSpace(r.Get(ColumnShipping)) == ""
}

// IsActive reports whether the row holds an order that is still in flight.
// Received orders drop out of every query.
func IsActive(r Row) bool {
	return !IsEmpty(r) && r.Get(ColumnStatus) != string(StatusReceived)
}

// FirstEmptyRow returns the first free slot among rows, if any. New orders
// reuse blank rows instead of appending so the sheet layout stays fixed.
func FirstEmptyRow(rows []Row) (Row, bool) {
	for _, r := range rows {
		if IsEmpty(r) {
			return r, true
		}
	}
	return nil, false
}
