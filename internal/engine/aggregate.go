package engine

import (
	"math"
	"sort"

	"github.com/runnerr0/meterreport/internal/meter"
)

// Selector extracts an optional numeric field from a record.
type Selector func(meter.Record) meter.Optional

// Frequency is one row of a frequency table.
type Frequency[K comparable] struct {
	Value   K       `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Age selects a record's age in years.
func Age(r meter.Record) meter.Optional { return r.AgeYears }

// Count returns the number of records.
func Count(records []meter.Record) int {
	return len(records)
}

// PercentageMatching returns the share of records satisfying pred, in
// percent. An empty input yields 0; callers that need to tell that apart
// from a non-empty zero check Count.
func PercentageMatching(records []meter.Record, pred Predicate) float64 {
	if len(records) == 0 {
		return 0
	}
	matched := 0
	for _, r := range records {
		if pred(r) {
			matched++
		}
	}
	return 100 * float64(matched) / float64(len(records))
}

// Mean averages the defined values of sel over records. The result is
// undefined when no record has a defined value. No rounding is applied.
func Mean(records []meter.Record, sel Selector) meter.Optional {
	var sum float64
	n := 0
	for _, r := range records {
		if v := sel(r); v.Valid {
			sum += v.Value
			n++
		}
	}
	if n == 0 {
		return meter.None()
	}
	return meter.Some(sum / float64(n))
}

// ConditionalMean is Mean over the records matching pred.
func ConditionalMean(records []meter.Record, pred Predicate, sel Selector) meter.Optional {
	return Mean(Filter(records, pred), sel)
}

// FrequencyTable groups records by key and returns one row per distinct
// value, most frequent first. Ties keep the order in which values were first
// seen. Percentages are relative to len(records) and rounded to 2 places.
func FrequencyTable[K comparable](records []meter.Record, key func(meter.Record) K) []Frequency[K] {
	if len(records) == 0 {
		return []Frequency[K]{}
	}

	index := make(map[K]int)
	rows := make([]Frequency[K], 0)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, Frequency[K]{Value: k})
		}
		rows[i].Count++
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })

	total := float64(len(records))
	for i := range rows {
		rows[i].Percent = RoundTo2(100 * float64(rows[i].Count) / total)
	}
	return rows
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
