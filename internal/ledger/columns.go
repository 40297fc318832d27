package ledger

// Column names match the fixed header row of every month sheet. The
// spreadsheet is the source of truth for the schema; renaming a column
// there breaks the bot, so the headers are pinned here verbatim.
const (
	ColumnProduct   = "Товар"
	ColumnSize      = "Розмір"
	ColumnFabric    = "Тканина"
	ColumnPayment   = "Тип оплати"
	ColumnShipping  = "Дані для відправки"
	ColumnLink      = "Посилання"
	ColumnAmount    = "Сума"
	ColumnOrderDate = "Дата оформлення"
	ColumnDeadline  = "Крайня дата"
	ColumnDaysLeft  = "Залишилось днів"
	ColumnStatus    = "Статус"
	ColumnTracking  = "ТТН"
)

// Columns returns every ledger column in sheet order.
func Columns() []string {
	return []string{
		ColumnProduct,
		ColumnSize,
		ColumnFabric,
		ColumnPayment,
		ColumnShipping,
		ColumnLink,
		ColumnAmount,
		ColumnOrderDate,
		ColumnDeadline,
		ColumnDaysLeft,
		ColumnStatus,
		ColumnTracking,
	}
}

// Status is the lifecycle state of an order, stored as the literal sheet value.
type Status string

const (
	StatusNew        Status = "Нове"
	StatusSewing     Status = "Шиється"
	StatusShipsToday Status = "Сьогодні відправка"
	StatusShipped    Status = "Відправлено"
	StatusReceived   Status = "Отримано"
	StatusReturned   Status = "Повернення"
)

// Statuses returns all statuses in presentation order.
func Statuses() []Status {
	return []Status{
		StatusNew,
		StatusSewing,
		StatusShipsToday,
		StatusShipped,
		StatusReceived,
		StatusReturned,
	}
}

// KnownStatus reports whether value is one of the defined statuses.
func KnownStatus(value string) bool {
	for _, s := range Statuses() {
		if string(s) == value {
			return true
		}
	}
	return false
}
