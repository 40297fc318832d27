package repo

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the audit log in a local SQLite file. Used when no
// Postgres URL is configured.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens a new connection to the SQLite database.
func NewSQLite(ctx context.Context, databasePath string, logger *slog.Logger) (*SQLiteRepository, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}

	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.With("component", "repo_sqlite"),
	}, nil
}

// Close releases the database connection.
func (r *SQLiteRepository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Ping ensures the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations applies the SQLite variant of the schema.
func (r *SQLiteRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	entries, err := fs.ReadDir(filesystem, "sqlite")
	if err != nil {
		return fmt.Errorf("read sqlite migrations: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		sqlBytes, err := fs.ReadFile(filesystem, "sqlite/"+entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// UpsertStaffByWA stores or updates a staff record keyed by WhatsApp ID.
// SQLite cannot default to a generated UUID, so the id is made here.
func (r *SQLiteRepository) UpsertStaffByWA(ctx context.Context, profile StaffProfile) (*Staff, error) {
	const q = `
INSERT INTO staff (id, wa_id, display_name, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (wa_id) DO UPDATE SET
    display_name = COALESCE(excluded.display_name, staff.display_name),
    updated_at = CURRENT_TIMESTAMP
RETURNING id, wa_id, display_name, created_at, updated_at;
`
	row := r.db.QueryRowContext(ctx, q, uuid.NewString(), profile.WAID, profile.DisplayName)

	var s Staff
	if err := row.Scan(&s.ID, &s.WAID, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert staff: %w", err)
	}
	return &s, nil
}

// GetStaffByID returns a staff record by internal identifier.
func (r *SQLiteRepository) GetStaffByID(ctx context.Context, id string) (*Staff, error) {
	const q = `
SELECT id, wa_id, display_name, created_at, updated_at
FROM staff
WHERE id = ?
LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)
	var s Staff
	if err := row.Scan(&s.ID, &s.WAID, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get staff by id: %w", err)
	}
	return &s, nil
}

// InsertMessage stores a message record for auditing purposes.
func (r *SQLiteRepository) InsertMessage(ctx context.Context, msg MessageRecord) error {
	const q = `
INSERT INTO messages (id, staff_id, direction, message_type, content)
VALUES (?, ?, ?, ?, ?);
`
	_, err := r.db.ExecContext(ctx, q, uuid.NewString(), msg.StaffID, msg.Direction, msg.Type, msg.Content)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListRecentMessages returns the latest messages exchanged with the staff member.
func (r *SQLiteRepository) ListRecentMessages(ctx context.Context, staffID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT direction, message_type, content, created_at
FROM messages
WHERE staff_id = ?
ORDER BY created_at DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, staffID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	var records []MessageRecord
	for rows.Next() {
		var msg MessageRecord
		if err := rows.Scan(&msg.Direction, &msg.Type, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent message: %w", err)
		}
		msg.StaffID = staffID
		records = append(records, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent messages: %w", err)
	}
	return records, nil
}
