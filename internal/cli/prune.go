package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/runnerr0/meterreport/internal/source"
	"github.com/runnerr0/meterreport/internal/storage"
)

type pruneJSON struct {
	DryRun  bool    `json:"dry_run"`
	Kept    int     `json:"kept"`
	Pruned  int64   `json:"pruned"`
	Removed []int64 `json:"removed_imports,omitempty"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	if c.Keep < 1 {
		return fmt.Errorf("--keep must be at least 1")
	}

	path := c.DB
	if path == "" {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		src, err := source.Open(cfg)
		if err != nil {
			return err
		}
		db, ok := src.(*source.SQLite)
		if !ok {
			return fmt.Errorf("dataset %s is not a SQLite database; pass --db", cfg.Dataset.Path)
		}
		path = db.Path
	}

	// Pruning a missing path would create an empty database there.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	store, closeStore, err := openStore(path)
	if err != nil {
		return err
	}
	defer closeStore()

	return c.executeWithStore(store)
}

// executeWithStore runs prune against a provided store (for testing).
func (c *PruneCommand) executeWithStore(store storage.Store) error {
	ctx := context.Background()

	imports, err := store.ListImports(ctx)
	if err != nil {
		return err
	}

	var doomed []storage.Import
	if len(imports) > c.Keep {
		doomed = imports[c.Keep:]
	}

	pruned := int64(len(doomed))
	if !c.DryRun && len(doomed) > 0 {
		if pruned, err = store.PruneImports(ctx, c.Keep); err != nil {
			return err
		}
	}

	if c.globals != nil && c.globals.JSON {
		out := pruneJSON{DryRun: c.DryRun, Kept: len(imports) - len(doomed), Pruned: pruned}
		for _, imp := range doomed {
			out.Removed = append(out.Removed, imp.ID)
		}
		return printJSON(out)
	}

	if len(doomed) == 0 {
		fmt.Printf("Nothing to prune (%d imports)\n", len(imports))
		return nil
	}

	verb := "Pruned"
	if c.DryRun {
		verb = "Would prune"
	}
	fmt.Printf("%s %d imports:\n", verb, len(doomed))
	for _, imp := range doomed {
		fmt.Printf("  #%-5d %-30s %8s rows  %s\n", imp.ID, imp.Source, formatNumber(imp.RowCount), imp.ImportedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
