package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Report  *ReportCommand
	Filters *FiltersCommand
	Status  *StatusCommand
	Show    *ShowCommand
	Serve   *ServeCommand
	Import  *ImportCommand
	Prune   *PruneCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "meterreport"
	parser.LongDescription = "Water meter fleet reports: diameter mix, connection status and meter age."

	cmds := &commands{
		Report:  &ReportCommand{globals: &globals, version: version},
		Filters: &FiltersCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
		Show:    &ShowCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
		Import:  &ImportCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
	}

	parser.AddCommand("report", "Build a fleet report", "Build a report over the dataset, filtered by diameter and age.", cmds.Report)
	parser.AddCommand("filters", "List available filter values", "List the observed diameters and age range of the dataset.", cmds.Filters)
	parser.AddCommand("status", "Show dataset load health", "Show how many rows loaded, how many were skipped, and the active settings.", cmds.Status)
	parser.AddCommand("show", "Print the records of one meter", "Print the normalized records of a single meter.", cmds.Show)
	parser.AddCommand("serve", "Serve reports over HTTP", "Load the dataset once and serve reports as JSON over HTTP.", cmds.Serve)
	parser.AddCommand("import", "Import a CSV export into SQLite", "Copy the rows of a CSV export into a SQLite dataset as a new import.", cmds.Import)
	parser.AddCommand("prune", "Drop old imports", "Delete all but the newest imports from a SQLite dataset.", cmds.Prune)

	return parser, &globals, cmds
}

// Run is the main entry point for the meterreport CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("meterreport %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
