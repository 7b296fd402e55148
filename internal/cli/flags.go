package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (default meterreport.yaml when present)" default:""`
	Data    string `long:"data" description:"Dataset path, overriding the config file"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Log every skipped record"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ReportCommand builds a report over the dataset, optionally filtered.
type ReportCommand struct {
	Diameter    []int    `long:"diameter" description:"Diameter in mm to include (repeatable)"`
	MinDiameter *int     `long:"min-diameter" description:"Smallest diameter to include when --diameter is not given"`
	MaxDiameter *int     `long:"max-diameter" description:"Largest diameter to include when --diameter is not given"`
	MinAge      *float64 `long:"min-age" description:"Minimum meter age in years (inclusive)"`
	MaxAge      *float64 `long:"max-age" description:"Maximum meter age in years (inclusive)"`

	globals *GlobalFlags
	version string
}

// FiltersCommand lists the diameters and age range available for filtering.
type FiltersCommand struct {
	globals *GlobalFlags
	version string
}

// StatusCommand shows dataset load health and configuration summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ShowCommand prints the normalized records of one meter.
type ShowCommand struct {
	Meter string `long:"meter" description:"Meter identifier (required)"`

	globals *GlobalFlags
	version string
}

// ServeCommand serves reports over HTTP.
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`

	globals *GlobalFlags
	version string
}

// ImportCommand copies a CSV export into a SQLite dataset.
type ImportCommand struct {
	CSV       string `long:"csv" description:"CSV file to import (required)"`
	DB        string `long:"db" description:"SQLite database to import into (required)"`
	Delimiter string `long:"delimiter" description:"CSV delimiter (detected from the header when empty)"`

	globals *GlobalFlags
	version string
}

// PruneCommand drops old imports from a SQLite dataset.
type PruneCommand struct {
	DB     string `long:"db" description:"SQLite database (default: configured dataset path)"`
	Keep   int    `long:"keep" description:"Number of newest imports to keep" default:"1"`
	DryRun bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}
