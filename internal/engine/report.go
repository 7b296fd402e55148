package engine

import (
	"strings"

	"github.com/runnerr0/meterreport/internal/meter"
)

// Band is a named diameter class used for per-band age averages.
type Band struct {
	Label string
	Match func(diameterMM int) bool
}

// DefaultBands are the residential diameter classes reported by the utility.
func DefaultBands() []Band {
	return []Band{
		{Label: "DN 20", Match: func(d int) bool { return d == 20 }},
		{Label: "DN 25", Match: func(d int) bool { return d == 25 }},
		{Label: "> DN 25", Match: func(d int) bool { return d > 25 }},
	}
}

// BandAge is the mean age of the records in one diameter band.
type BandAge struct {
	Band    string         `json:"band"`
	Count   int            `json:"count"`
	MeanAge meter.Optional `json:"mean_age"`
}

// Report holds the metrics and frequency tables for one selection of a
// dataset. Undefined means are carried as invalid Optionals; formatting is
// left to the caller.
type Report struct {
	Total            int                 `json:"total"`
	Connected        int                 `json:"connected"`
	ConnectedPercent float64             `json:"connected_percent"`
	MeanAge          meter.Optional      `json:"mean_age"`
	AgeByBand        []BandAge           `json:"age_by_band"`
	Diameters        []Frequency[int]    `json:"diameters"`
	ReadingGroups    []Frequency[string] `json:"reading_groups"`
	PropertyProfiles []Frequency[string] `json:"property_profiles"`
}

// Option configures BuildReport.
type Option func(*config)

type config struct {
	ConnectedStatus string
	Bands           []Band
}

// WithConnectedStatus sets the status value counted as connected. Matching
// ignores case and surrounding whitespace.
func WithConnectedStatus(status string) Option {
	return func(c *config) {
		c.ConnectedStatus = status
	}
}

// WithBands replaces the default diameter bands.
func WithBands(bands ...Band) Option {
	return func(c *config) {
		c.Bands = bands
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		ConnectedStatus: "CONNECTED",
		Bands:           DefaultBands(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// BuildReport selects the records of ds matching criteria (all records when
// criteria is nil) and computes every report metric over them. An empty
// selection produces a complete report of empty-set values.
func BuildReport(ds meter.Dataset, criteria *Criteria, opts ...Option) Report {
	cfg := applyOptions(opts)

	records := ds.Records()
	if criteria != nil {
		records = Filter(records, criteria.Matches)
	}

	connected := connectedPredicate(cfg.ConnectedStatus)

	report := Report{
		Total:            Count(records),
		Connected:        Count(Filter(records, connected)),
		ConnectedPercent: PercentageMatching(records, connected),
		MeanAge:          Mean(records, Age),
		AgeByBand:        make([]BandAge, 0, len(cfg.Bands)),
		Diameters:        FrequencyTable(records, func(r meter.Record) int { return r.DiameterMM }),
		ReadingGroups:    FrequencyTable(records, func(r meter.Record) string { return r.ReadingGroup }),
		PropertyProfiles: FrequencyTable(records, func(r meter.Record) string { return r.PropertyProfile }),
	}

	for _, b := range cfg.Bands {
		match := b.Match
		inBand := func(r meter.Record) bool { return match(r.DiameterMM) }
		report.AgeByBand = append(report.AgeByBand, BandAge{
			Band:    b.Label,
			Count:   Count(Filter(records, inBand)),
			MeanAge: ConditionalMean(records, inBand, Age),
		})
	}

	return report
}

func connectedPredicate(status string) Predicate {
	want := strings.TrimSpace(status)
	return func(r meter.Record) bool {
		return strings.EqualFold(strings.TrimSpace(r.ConnectionStatus), want)
	}
}
