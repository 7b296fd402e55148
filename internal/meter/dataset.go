package meter

import (
	"slices"
	"time"
)

// Dataset is a fixed, ordered collection of canonical records together with
// the reference time their ages were computed against. A Dataset is never
// modified after construction and may be read from many goroutines.
type Dataset struct {
	records   []Record
	reference time.Time
}

// NewDataset copies records into a new Dataset.
func NewDataset(records []Record, reference time.Time) Dataset {
	return Dataset{
		records:   slices.Clone(records),
		reference: reference,
	}
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.records) }

// At returns the record at index i.
func (d Dataset) At(i int) Record { return d.records[i] }

// Records returns a copy of the records in their original order.
func (d Dataset) Records() []Record { return slices.Clone(d.records) }

// ReferenceTime returns the instant ages were measured from.
func (d Dataset) ReferenceTime() time.Time { return d.reference }

// Diameters returns the distinct observed diameters in ascending order.
func (d Dataset) Diameters() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range d.records {
		if !seen[r.DiameterMM] {
			seen[r.DiameterMM] = true
			out = append(out, r.DiameterMM)
		}
	}
	slices.Sort(out)
	return out
}

// AgeBounds returns the smallest and largest defined age. Both are undefined
// when no record has an age.
func (d Dataset) AgeBounds() (lo, hi Optional) {
	for _, r := range d.records {
		if !r.AgeYears.Valid {
			continue
		}
		if !lo.Valid || r.AgeYears.Value < lo.Value {
			lo = r.AgeYears
		}
		if !hi.Valid || r.AgeYears.Value > hi.Value {
			hi = r.AgeYears
		}
	}
	return lo, hi
}
