package cli

import (
	"fmt"

	"github.com/runnerr0/meterreport/internal/config"
	"github.com/runnerr0/meterreport/internal/source"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version         string        `json:"version"`
	Source          string        `json:"source"`
	Rows            int           `json:"rows"`
	Loaded          int           `json:"loaded"`
	Skipped         int           `json:"skipped"`
	Failures        []failureJSON `json:"failures,omitempty"`
	ReferenceTime   string        `json:"reference_time"`
	AgePrecision    string        `json:"age_precision"`
	Strict          bool          `json:"strict"`
	ConnectedStatus string        `json:"connected_status"`
}

type failureJSON struct {
	Index   int    `json:"index"`
	MeterID string `json:"meter_id,omitempty"`
	Error   string `json:"error"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	loaded, cfg, err := loadDataset(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithLoaded(loaded, cfg)
}

// executeWithLoaded reports on an already loaded dataset (for testing).
func (c *StatusCommand) executeWithLoaded(loaded *source.Loaded, cfg *config.Config) error {
	if c.globals != nil && c.globals.JSON {
		out := statusJSON{
			Version:         c.version,
			Source:          loaded.Source,
			Rows:            loaded.Rows,
			Loaded:          loaded.Dataset.Len(),
			Skipped:         len(loaded.Failures),
			ReferenceTime:   loaded.Dataset.ReferenceTime().Format("2006-01-02"),
			AgePrecision:    string(cfg.Precision()),
			Strict:          cfg.Normalize.Strict,
			ConnectedStatus: cfg.Report.ConnectedStatus,
		}
		for _, f := range loaded.Failures {
			out.Failures = append(out.Failures, failureJSON{Index: f.Index, MeterID: f.MeterID, Error: f.Err.Error()})
		}
		return printJSON(out)
	}

	fmt.Println("Meter Dataset Status")
	fmt.Println("====================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Source:        %s\n", loaded.Source)
	fmt.Printf("Rows:          %s\n", formatNumber(loaded.Rows))
	fmt.Printf("Loaded:        %s\n", formatNumber(loaded.Dataset.Len()))
	fmt.Printf("Skipped:       %s\n", formatNumber(len(loaded.Failures)))
	fmt.Printf("Reference:     %s\n", loaded.Dataset.ReferenceTime().Format("2006-01-02"))
	fmt.Printf("Age precision: %s\n", cfg.Precision())
	fmt.Printf("Connected:     %s\n", cfg.Report.ConnectedStatus)

	if len(loaded.Failures) > 0 {
		fmt.Println()
		fmt.Println("Skipped Records:")
		limit := len(loaded.Failures)
		if limit > 10 && (c.globals == nil || !c.globals.Verbose) {
			limit = 10
		}
		for _, f := range loaded.Failures[:limit] {
			fmt.Printf("  %v\n", f)
		}
		if rest := len(loaded.Failures) - limit; rest > 0 {
			fmt.Printf("  ... and %d more (use --verbose)\n", rest)
		}
	}

	return nil
}
