package source

import (
	"context"
	"fmt"
	"os"

	"github.com/runnerr0/meterreport/internal/meter"
	"github.com/runnerr0/meterreport/internal/storage"
)

// SQLite reads the latest import from a meterreport database.
type SQLite struct {
	Path    string
	Columns meter.Columns
}

// NewSQLite creates a SQLite source for the database at path.
func NewSQLite(path string, cols meter.Columns) *SQLite {
	return &SQLite{Path: path, Columns: cols}
}

func (s *SQLite) Name() string { return s.Path }

// Load returns the rows of the most recent import.
func (s *SQLite) Load(ctx context.Context) ([]meter.RawRecord, error) {
	// Opening a missing path would silently create an empty database.
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, db, err := storage.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	defer store.Close()

	return store.LoadRaw(ctx, s.Columns)
}
