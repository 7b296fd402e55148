package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/meterreport/internal/config"
	"github.com/runnerr0/meterreport/internal/engine"
	"github.com/runnerr0/meterreport/internal/meter"
	"github.com/runnerr0/meterreport/internal/source"
	"github.com/runnerr0/meterreport/internal/storage"
)

// now is the clock used to resolve the reference time; tests replace it.
var now = time.Now

// loadConfig resolves configuration: file (or defaults), then environment,
// then global flags.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	path := ""
	if globals != nil {
		path = globals.Config
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if globals != nil {
		if globals.Data != "" {
			cfg.Dataset.Path = globals.Data
		}
		if globals.Verbose {
			cfg.Logging.Level = "debug"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDataset loads configuration and the dataset it points at.
func loadDataset(globals *GlobalFlags) (*source.Loaded, *config.Config, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, nil, err
	}

	loaded, err := source.LoadDataset(context.Background(), cfg, now)
	if err != nil {
		return nil, nil, err
	}
	return loaded, cfg, nil
}

// reportOptions maps configuration onto report options.
func reportOptions(cfg *config.Config) []engine.Option {
	return []engine.Option{
		engine.WithConnectedStatus(cfg.Report.ConnectedStatus),
	}
}

// openStore opens (creating if needed) the SQLite dataset at path.
func openStore(path string) (*storage.SQLiteStore, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	store, db, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		store.Close()
		db.Close()
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatOptional renders an undefined value as "-".
func formatOptional(o meter.Optional) string {
	if !o.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", o.Value)
}

// formatPercent renders the percentage of an empty selection as "-" so it
// reads differently from 0% of a non-empty one.
func formatPercent(pct float64, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// formatNumber formats an int with comma separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
