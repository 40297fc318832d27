package repo

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores the conversation audit log in Postgres.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres opens a new connection pool to the database.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		logger: logger.With("component", "repo"),
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations applies schema migrations on the connected database.
func (r *PostgresRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, r.pool, filesystem)
}

// UpsertStaffByWA stores or updates a staff record keyed by WhatsApp ID.
func (r *PostgresRepository) UpsertStaffByWA(ctx context.Context, profile StaffProfile) (*Staff, error) {
	const q = `
INSERT INTO staff (wa_id, display_name, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (wa_id) DO UPDATE SET
    display_name = COALESCE(EXCLUDED.display_name, staff.display_name),
    updated_at = NOW()
RETURNING id, wa_id, display_name, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, q, profile.WAID, profile.DisplayName)

	var s Staff
	if err := row.Scan(&s.ID, &s.WAID, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert staff: %w", err)
	}
	return &s, nil
}

// GetStaffByID returns a staff record by internal identifier.
func (r *PostgresRepository) GetStaffByID(ctx context.Context, id string) (*Staff, error) {
	const q = `
SELECT id, wa_id, display_name, created_at, updated_at
FROM staff
WHERE id = $1
LIMIT 1;
`
	row := r.pool.QueryRow(ctx, q, id)
	var s Staff
	if err := row.Scan(&s.ID, &s.WAID, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get staff by id: %w", err)
	}
	return &s, nil
}

// InsertMessage stores a message record for auditing purposes.
func (r *PostgresRepository) InsertMessage(ctx context.Context, msg MessageRecord) error {
	const q = `
INSERT INTO messages (staff_id, direction, message_type, content)
VALUES ($1, $2, $3, $4);
`
	_, err := r.pool.Exec(ctx, q, msg.StaffID, msg.Direction, msg.Type, msg.Content)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListRecentMessages returns the latest messages exchanged with the staff member.
func (r *PostgresRepository) ListRecentMessages(ctx context.Context, staffID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT direction, message_type, content, created_at
FROM messages
WHERE staff_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, q, staffID, limit)
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
