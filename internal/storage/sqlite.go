package storage

import (
	"fmt"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStorage) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
	}

	for _, m := range migrations {
		if version < m.version {
			s.log.Debug("running migration", "version", m.version, "name", m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version, m.name); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStorage) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.Exec(query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStorage) getCurrentMigrationVersion() (int, error) {
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStorage) setMigrationVersion(version int, name string) error {
	_, err := s.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

// migration001InitialSchema creates the initial database schema.
func (s *SQLiteStorage) migration001InitialSchema() error {
	statements := []struct {
		what string
		sql  string
	}{
		{"kv table", `
			CREATE TABLE IF NOT EXISTS kv (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				expires_at INTEGER
			)
		`},
		{"selection_events table", `
			CREATE TABLE IF NOT EXISTS selection_events (
				id TEXT PRIMARY KEY,
				query TEXT NOT NULL,
				candidate_id TEXT NOT NULL,
				candidate_name TEXT NOT NULL DEFAULT '',
				rank_position INTEGER NOT NULL,
				user_id TEXT NOT NULL DEFAULT '',
				timestamp TEXT NOT NULL
			)
		`},
		{"selection_events candidate index", `
			CREATE INDEX IF NOT EXISTS idx_selection_events_candidate
			ON selection_events(candidate_id)
		`},
		{"selection_events timestamp index", `
			CREATE INDEX IF NOT EXISTS idx_selection_events_timestamp
			ON selection_events(timestamp DESC)
		`},
		{"search_history table", `
			CREATE TABLE IF NOT EXISTS search_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				search_id TEXT NOT NULL UNIQUE,
				query_hash TEXT NOT NULL,
				timestamp TEXT NOT NULL,
				results_count INTEGER NOT NULL,
				local_count INTEGER NOT NULL DEFAULT 0,
				remote_count INTEGER NOT NULL DEFAULT 0,
				tier TEXT NOT NULL DEFAULT '',
				duration_ms INTEGER NOT NULL DEFAULT 0
			)
		`},
		{"search_history timestamp index", `
			CREATE INDEX IF NOT EXISTS idx_search_history_timestamp
			ON search_history(timestamp DESC)
		`},
	}

	for _, st := range statements {
		if _, err := s.db.Exec(st.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.what, err)
		}
	}
	return nil
}
