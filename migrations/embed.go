package migrations

import "embed"

// Files exposes embedded SQL migration files ordered lexicographically.
// Top-level files target Postgres, the sqlite/ variants the local fallback.
//
//go:embed *.sql sqlite/*.sql
var Files embed.FS
