package storage

import "database/sql"

// migrateV001 creates the initial schema: one row per import run and the
// raw meter rows of each run in source order. Every statement uses IF NOT
// EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS imports (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			source      TEXT NOT NULL DEFAULT '',
			row_count   INTEGER NOT NULL DEFAULT 0,
			imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS meters (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			import_id         INTEGER NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
			position          INTEGER NOT NULL,
			meter_id          TEXT NOT NULL DEFAULT '',
			diameter          TEXT NOT NULL DEFAULT '',
			connection_status TEXT NOT NULL DEFAULT '',
			install_date      TEXT,
			reading_group     TEXT NOT NULL DEFAULT '',
			property_profile  TEXT NOT NULL DEFAULT '',
			UNIQUE(import_id, position)
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_meters_import_position ON meters(import_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_imported_at    ON imports(imported_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
