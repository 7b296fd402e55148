package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/meterreport/internal/meter"
)

// ErrNoImport is returned when the database holds no imported dataset.
var ErrNoImport = errors.New("no dataset has been imported")

// Store defines the raw meter data operations.
type Store interface {
	ImportRaw(ctx context.Context, source string, rows []meter.RawRecord, cols meter.Columns) (*Import, error)
	LatestImport(ctx context.Context) (*Import, error)
	ListImports(ctx context.Context) ([]Import, error)
	PruneImports(ctx context.Context, keep int) (int64, error)
	LoadRaw(ctx context.Context, cols meter.Columns) ([]meter.RawRecord, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	latestImport *sql.Stmt
	selectMeters *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

// Open opens the database at path, applies migrations and returns a store.
// The caller closes both the store and the returned *sql.DB.
func Open(path string) (*SQLiteStore, *sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	return store, db, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.latestImport, err = s.db.Prepare(`
		SELECT id, source, row_count, imported_at
		FROM imports ORDER BY id DESC LIMIT 1
	`)
	if err != nil {
		return err
	}

	s.selectMeters, err = s.db.Prepare(`
		SELECT meter_id, diameter, connection_status, install_date, reading_group, property_profile
		FROM meters WHERE import_id = ? ORDER BY position
	`)
	if err != nil {
		return err
	}

	return nil
}

// ImportRaw stores rows as a new import in a single transaction. Cells are
// kept as text exactly as the source delivered them; normalization happens
// when the dataset is loaded.
func (s *SQLiteStore) ImportRaw(ctx context.Context, source string, rows []meter.RawRecord, cols meter.Columns) (*Import, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	importedAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO imports (source, row_count, imported_at) VALUES (?, ?, ?)",
		source, len(rows), importedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("import id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meters (import_id, position, meter_id, diameter, connection_status, install_date, reading_group, property_profile)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		var installDate sql.NullString
		if v := row.Text(cols.InstallDate); v != "" {
			installDate = sql.NullString{String: v, Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			importID, i,
			row.Text(cols.MeterID),
			row.Text(cols.Diameter),
			row.Text(cols.Status),
			installDate,
			row.Text(cols.ReadingGroup),
			row.Text(cols.PropertyProfile),
		)
		if err != nil {
			return nil, fmt.Errorf("insert meter row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &Import{
		ID:         importID,
		Source:     source,
		RowCount:   len(rows),
		ImportedAt: importedAt.Truncate(time.Second),
	}, nil
}

// LatestImport returns the most recent import.
func (s *SQLiteStore) LatestImport(ctx context.Context) (*Import, error) {
	var imp Import
	var tsStr string

	err := s.latestImport.QueryRowContext(ctx).Scan(&imp.ID, &imp.Source, &imp.RowCount, &tsStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoImport
		}
		return nil, fmt.Errorf("get latest import: %w", err)
	}

	imp.ImportedAt, _ = parseTimestamp(tsStr)
	return &imp, nil
}

// LoadRaw returns the rows of the latest import in their original order,
// keyed by the given column names. A missing installation date is left out
// of the row.
func (s *SQLiteStore) LoadRaw(ctx context.Context, cols meter.Columns) ([]meter.RawRecord, error) {
	imp, err := s.LatestImport(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.selectMeters.QueryContext(ctx, imp.ID)
	if err != nil {
		return nil, fmt.Errorf("query meters: %w", err)
	}
	defer rows.Close()

	out := make([]meter.RawRecord, 0, imp.RowCount)
	for rows.Next() {
		var meterID, diameter, status, group, profile string
		var installDate sql.NullString
		if err := rows.Scan(&meterID, &diameter, &status, &installDate, &group, &profile); err != nil {
			return nil, fmt.Errorf("scan meter: %w", err)
		}

		raw := meter.RawRecord{
			cols.MeterID:         meterID,
			cols.Diameter:        diameter,
			cols.Status:          status,
			cols.ReadingGroup:    group,
			cols.PropertyProfile: profile,
		}
		if installDate.Valid {
			raw[cols.InstallDate] = installDate.String
		}
		out = append(out, raw)
	}

	return out, rows.Err()
}

// ListImports returns every import, newest first.
func (s *SQLiteStore) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, row_count, imported_at
		FROM imports ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var imp Import
		var tsStr string
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.RowCount, &tsStr); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imp.ImportedAt, _ = parseTimestamp(tsStr)
		out = append(out, imp)
	}
	return out, rows.Err()
}

// PruneImports deletes all but the newest keep imports together with their
// meter rows and returns how many imports were removed.
func (s *SQLiteStore) PruneImports(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM imports WHERE id NOT IN (
			SELECT id FROM imports ORDER BY id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune imports: %w", err)
	}
	return res.RowsAffected()
}

// Close releases prepared statements. The underlying *sql.DB is owned by
// the caller.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.latestImport, s.selectMeters} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}
