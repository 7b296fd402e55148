package cli

import (
	"fmt"

	"github.com/runnerr0/meterreport/internal/meter"
)

type recordJSON struct {
	MeterID          string         `json:"meter_id"`
	DiameterMM       int            `json:"diameter_mm"`
	ConnectionStatus string         `json:"connection_status"`
	InstallDate      string         `json:"install_date,omitempty"`
	AgeYears         meter.Optional `json:"age_years"`
	ReadingGroup     string         `json:"reading_group"`
	PropertyProfile  string         `json:"property_profile"`
}

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.Meter == "" {
		return fmt.Errorf("--meter is required for show command")
	}

	loaded, _, err := loadDataset(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithDataset(loaded.Dataset)
}

// executeWithDataset prints the records of c.Meter found in ds (for testing).
func (c *ShowCommand) executeWithDataset(ds meter.Dataset) error {
	var found []meter.Record
	for i := 0; i < ds.Len(); i++ {
		if r := ds.At(i); r.MeterID == c.Meter {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return fmt.Errorf("meter not found: %s", c.Meter)
	}

	if c.globals != nil && c.globals.JSON {
		out := make([]recordJSON, len(found))
		for i, r := range found {
			out[i] = recordJSON{
				MeterID:          r.MeterID,
				DiameterMM:       r.DiameterMM,
				ConnectionStatus: r.ConnectionStatus,
				AgeYears:         r.AgeYears,
				ReadingGroup:     r.ReadingGroup,
				PropertyProfile:  r.PropertyProfile,
			}
			if r.HasInstallDate() {
				out[i].InstallDate = r.InstallDate.Format("2006-01-02")
			}
		}
		return printJSON(out)
	}

	for i, r := range found {
		if i > 0 {
			fmt.Println()
		}
		installed := "-"
		if r.HasInstallDate() {
			installed = r.InstallDate.Format("2006-01-02")
		}
		fmt.Println(r.MeterID)
		fmt.Printf("Diameter:      DN %d\n", r.DiameterMM)
		fmt.Printf("Status:        %s\n", blankAsDash(r.ConnectionStatus))
		fmt.Printf("Installed:     %s\n", installed)
		fmt.Printf("Age:           %s\n", formatOptional(r.AgeYears))
		fmt.Printf("Reading group: %s\n", blankAsDash(r.ReadingGroup))
		fmt.Printf("Profile:       %s\n", blankAsDash(r.PropertyProfile))
	}
	return nil
}
