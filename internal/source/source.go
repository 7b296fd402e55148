// Package source loads raw meter rows from the configured dataset and turns
// them into a normalized, read-only meter.Dataset.
package source

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/runnerr0/meterreport/internal/config"
	"github.com/runnerr0/meterreport/internal/meter"
)

// Source yields the raw rows of a dataset.
type Source interface {
	Load(ctx context.Context) ([]meter.RawRecord, error)
	Name() string
}

// Open picks a Source for the configured dataset. With format "auto" the
// file extension decides: .db, .sqlite and .sqlite3 are SQLite databases,
// everything else is CSV.
func Open(cfg *config.Config) (Source, error) {
	path := cfg.Dataset.Path
	if path == "" {
		return nil, fmt.Errorf("dataset path is empty")
	}

	switch format := detectFormat(cfg.Dataset.Format, path); format {
	case "csv":
		return NewCSV(path, cfg.Dataset.Delimiter), nil
	case "sqlite":
		return NewSQLite(path, cfg.Columns), nil
	default:
		return nil, fmt.Errorf("unknown dataset format %q", format)
	}
}

func detectFormat(format, path string) string {
	if format != "" && format != "auto" {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "csv"
	}
}

// Loaded is the result of loading and normalizing a dataset.
type Loaded struct {
	Dataset  meter.Dataset
	Source   string
	Rows     int
	Failures []*meter.RecordError
}

// LoadDataset reads the configured source and normalizes it. The reference
// time is resolved once, here, and fixed on the returned dataset.
func LoadDataset(ctx context.Context, cfg *config.Config, now func() time.Time) (*Loaded, error) {
	src, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return LoadFrom(ctx, src, cfg, now)
}

// LoadFrom normalizes the rows of an already-opened source.
func LoadFrom(ctx context.Context, src Source, cfg *config.Config, now func() time.Time) (*Loaded, error) {
	ref, err := cfg.ReferenceTime(now)
	if err != nil {
		return nil, err
	}

	raws, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}

	n := meter.NewNormalizer(ref, cfg.Precision(), cfg.Columns)
	ds, failures, err := n.NormalizeAll(raws, cfg.Normalize.Strict)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", src.Name(), err)
	}

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		for _, f := range failures {
			log.Printf("[source] skipping %v", f)
		}
	}
	if len(failures) > 0 {
		log.Printf("[source] %s: %d of %d rows skipped", src.Name(), len(failures), len(raws))
	}

	return &Loaded{
		Dataset:  ds,
		Source:   src.Name(),
		Rows:     len(raws),
		Failures: failures,
	}, nil
}
