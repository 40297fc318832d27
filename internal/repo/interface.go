package repo

import (
	"context"
	"io/fs"
)

// Repository defines the interface for the conversation audit log.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Staff
	UpsertStaffByWA(ctx context.Context, profile StaffProfile) (*Staff, error)
	GetStaffByID(ctx context.Context, id string) (*Staff, error)

	// Messages
	InsertMessage(ctx context.Context, msg MessageRecord) error
	ListRecentMessages(ctx context.Context, staffID string, limit int) ([]MessageRecord, error)
}
