package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/runnerr0/meterreport/internal/engine"
	"github.com/runnerr0/meterreport/internal/meter"
)

// reportJSON wraps a report with the selection that produced it.
type reportJSON struct {
	Version   string        `json:"version"`
	Reference string        `json:"reference_time"`
	Diameters []int         `json:"selected_diameters,omitempty"`
	Age       *ageRangeJSON `json:"age_range,omitempty"`
	Report    engine.Report `json:"report"`
}

// ageRangeJSON carries open bounds as null; JSON has no infinity.
type ageRangeJSON struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
	loaded, cfg, err := loadDataset(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithDataset(loaded.Dataset, reportOptions(cfg))
}

// executeWithDataset runs report against a provided dataset (for testing).
func (c *ReportCommand) executeWithDataset(ds meter.Dataset, opts []engine.Option) error {
	sel := engine.Selection{
		Diameters:   c.Diameter,
		MinDiameter: c.MinDiameter,
		MaxDiameter: c.MaxDiameter,
		MinAge:      c.MinAge,
		MaxAge:      c.MaxAge,
	}
	criteria, err := sel.Resolve(ds)
	if err != nil {
		return err
	}

	report := engine.BuildReport(ds, criteria, opts...)

	if c.globals != nil && c.globals.JSON {
		out := reportJSON{
			Version:   c.version,
			Reference: ds.ReferenceTime().Format("2006-01-02"),
			Report:    report,
		}
		if criteria != nil {
			out.Diameters = criteria.Diameters()
			if age := criteria.Age(); age != nil {
				out.Age = &ageRangeJSON{Min: c.MinAge, Max: c.MaxAge}
			}
		}
		return printJSON(out)
	}

	c.printHuman(ds, criteria, report)
	return nil
}

func (c *ReportCommand) printHuman(ds meter.Dataset, criteria *engine.Criteria, r engine.Report) {
	fmt.Println("Meter Report")
	fmt.Println("============")
	fmt.Printf("Reference:     %s\n", ds.ReferenceTime().Format("2006-01-02"))
	fmt.Printf("Selection:     %s\n", describeCriteria(criteria))
	fmt.Printf("Meters:        %s\n", formatNumber(r.Total))
	fmt.Printf("Connected:     %s (%s)\n", formatNumber(r.Connected), formatPercent(r.ConnectedPercent, r.Total))
	fmt.Printf("Mean age:      %s\n", formatOptional(r.MeanAge))

	fmt.Println()
	fmt.Println("Mean Age by Diameter:")
	for _, b := range r.AgeByBand {
		fmt.Printf("  %-10s %8s  %s\n", b.Band, formatNumber(b.Count), formatOptional(b.MeanAge))
	}

	printFrequencies("Diameters:", r.Diameters, func(d int) string { return fmt.Sprintf("DN %d", d) }, r.Total)
	printFrequencies("Reading Groups:", r.ReadingGroups, blankAsDash, r.Total)
	printFrequencies("Property Profiles:", r.PropertyProfiles, blankAsDash, r.Total)
}

func printFrequencies[K comparable](title string, rows []engine.Frequency[K], label func(K) string, total int) {
	fmt.Println()
	fmt.Println(title)
	if len(rows) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, row := range rows {
		fmt.Printf("  %-20s %8s  %s\n", label(row.Value), formatNumber(row.Count), formatPercent(row.Percent, total))
	}
}

func blankAsDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func describeCriteria(c *engine.Criteria) string {
	if c == nil {
		return "all meters"
	}

	ds := c.Diameters()
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = strconv.Itoa(d)
	}
	desc := "DN " + strings.Join(parts, ", ")

	if age := c.Age(); age != nil {
		desc += fmt.Sprintf("; age %s to %s years", formatBound(age.Min), formatBound(age.Max))
	}
	return desc
}

func formatBound(v float64) string {
	if math.IsInf(v, 0) {
		return "any"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
