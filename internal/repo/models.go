package repo

import "time"

// Staff represents the staff table row: one record per WhatsApp identity
// that has ever talked to the bot.
type Staff struct {
	ID          string
	WAID        string
	DisplayName *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StaffProfile carries data used to upsert a staff record.
type StaffProfile struct {
	WAID        string
	DisplayName *string
}

// MessageRecord is used to persist conversation logs.
type MessageRecord struct {
	StaffID   string
	Direction string
	Type      string
	Content   *string
	CreatedAt time.Time
}
