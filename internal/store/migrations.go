package store

// runMigrations creates the schema. Every statement is idempotent.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runtime overrides of configuration values, keyed by dotted path.
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per pipeline run.
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			density REAL
		)`,

		// Completed dwell selections.
		`CREATE TABLE IF NOT EXISTS activations (
			id TEXT PRIMARY KEY,
			session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
			element_id TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			activated_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activations_activated_at ON activations(activated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activations_element_id ON activations(element_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
