package store

import (
	"fmt"
	"strings"
)

// Per-driver SQL fragments. The schema is otherwise identical across
// SQLite, Postgres, and MySQL.
var dialects = map[string]struct {
	autoPK      string // auto-incrementing integer primary key
	timestamp   string
	ifNotExists string // MySQL has no CREATE INDEX IF NOT EXISTS
}{
	"sqlite":   {autoPK: "INTEGER PRIMARY KEY AUTOINCREMENT", timestamp: "DATETIME", ifNotExists: "IF NOT EXISTS "},
	"postgres": {autoPK: "BIGSERIAL PRIMARY KEY", timestamp: "TIMESTAMPTZ", ifNotExists: "IF NOT EXISTS "},
	"mysql":    {autoPK: "BIGINT PRIMARY KEY AUTO_INCREMENT", timestamp: "DATETIME(6)", ifNotExists: ""},
}

func (s *Store) migrate() error {
	d, ok := dialects[s.driver]
	if !ok {
		return fmt.Errorf("no schema dialect for driver %q", s.driver)
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS key_requests (
			id {{AUTO_PK}},
			requester_name TEXT NOT NULL,
			request_description TEXT NOT NULL,
			receipt VARCHAR(36) UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at {{TS}} NOT NULL,
			updated_at {{TS}},
			deleted_at {{TS}}
		)`,

		`CREATE TABLE IF NOT EXISTS api_keys (
			username VARCHAR(64) PRIMARY KEY,
			key_string VARCHAR(128) UNIQUE NOT NULL,
			request_id BIGINT NOT NULL REFERENCES key_requests(id),
			created_at {{TS}} NOT NULL,
			updated_at {{TS}},
			deleted_at {{TS}}
		)`,

		`CREATE TABLE IF NOT EXISTS admin_users (
			username VARCHAR(64) PRIMARY KEY,
			hashed_password TEXT NOT NULL,
			created_at {{TS}} NOT NULL,
			updated_at {{TS}},
			deleted_at {{TS}}
		)`,

		`CREATE TABLE IF NOT EXISTS articles (
			id {{AUTO_PK}},
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL,
			theme TEXT NOT NULL,
			writer TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at {{TS}} NOT NULL,
			updated_at {{TS}},
			deleted_at {{TS}}
		)`,

		`CREATE TABLE IF NOT EXISTS magazines (
			id {{AUTO_PK}},
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL,
			content_url TEXT NOT NULL,
			created_at {{TS}} NOT NULL,
			updated_at {{TS}},
			deleted_at {{TS}}
		)`,

		// Exactly one of api_user_id and admin_user_id per row.
		`CREATE TABLE IF NOT EXISTS key_usage_logs (
			id {{AUTO_PK}},
			timestamp {{TS}} NOT NULL,
			api_user_id VARCHAR(64) REFERENCES api_keys(username),
			admin_user_id VARCHAR(64) REFERENCES admin_users(username),
			endpoint TEXT NOT NULL,
			status INTEGER NOT NULL,
			CHECK ((api_user_id IS NULL) != (admin_user_id IS NULL))
		)`,

		`CREATE INDEX {{IFNE}}idx_key_requests_status ON key_requests(status)`,
		`CREATE INDEX {{IFNE}}idx_api_keys_request_id ON api_keys(request_id)`,
	}

	for _, m := range migrations {
		m = strings.ReplaceAll(m, "{{AUTO_PK}}", d.autoPK)
		m = strings.ReplaceAll(m, "{{TS}}", d.timestamp)
		m = strings.ReplaceAll(m, "{{IFNE}}", d.ifNotExists)
		if _, err := s.db.Exec(m); err != nil {
			// Re-running index creation on MySQL reports a duplicate key
			// name; treat it as a no-op for idempotent migrations.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
