package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runnerr0/meterreport/internal/meter"
)

type filtersJSON struct {
	Records       int            `json:"records"`
	Diameters     []int          `json:"diameters"`
	MinAge        meter.Optional `json:"min_age"`
	MaxAge        meter.Optional `json:"max_age"`
	ReferenceTime string         `json:"reference_time"`
}

// Execute implements the go-flags Commander interface for FiltersCommand.
func (c *FiltersCommand) Execute(args []string) error {
	loaded, _, err := loadDataset(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithDataset(loaded.Dataset)
}

// executeWithDataset prints filter choices for ds (for testing).
func (c *FiltersCommand) executeWithDataset(ds meter.Dataset) error {
	lo, hi := ds.AgeBounds()
	diameters := ds.Diameters()

	if c.globals != nil && c.globals.JSON {
		return printJSON(filtersJSON{
			Records:       ds.Len(),
			Diameters:     diameters,
			MinAge:        lo,
			MaxAge:        hi,
			ReferenceTime: ds.ReferenceTime().Format("2006-01-02"),
		})
	}

	parts := make([]string, len(diameters))
	for i, d := range diameters {
		parts[i] = strconv.Itoa(d)
	}
	if len(parts) == 0 {
		parts = []string{"-"}
	}

	fmt.Printf("Records:       %s\n", formatNumber(ds.Len()))
	fmt.Printf("Diameters:     %s\n", strings.Join(parts, ", "))
	fmt.Printf("Age range:     %s to %s years\n", formatOptional(lo), formatOptional(hi))
	fmt.Printf("Reference:     %s\n", ds.ReferenceTime().Format("2006-01-02"))
	return nil
}
