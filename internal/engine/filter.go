package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/runnerr0/meterreport/internal/meter"
)

// ErrInvalidCriteria is returned when filter criteria cannot select anything
// by construction.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Predicate reports whether a record belongs to a selection.
type Predicate func(meter.Record) bool

// AgeRange is an inclusive age interval in years.
type AgeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Criteria selects records by diameter membership and, optionally, by age.
// Build one with NewCriteria; the zero value selects nothing.
type Criteria struct {
	diameters map[int]bool
	age       *AgeRange
}

// NewCriteria validates and builds filter criteria. A nil age range leaves
// age unconstrained.
func NewCriteria(diameters []int, age *AgeRange) (Criteria, error) {
	if len(diameters) == 0 {
		return Criteria{}, fmt.Errorf("%w: diameter set is empty", ErrInvalidCriteria)
	}
	if age != nil {
		if math.IsNaN(age.Min) || math.IsNaN(age.Max) {
			return Criteria{}, fmt.Errorf("%w: age bounds must be numbers", ErrInvalidCriteria)
		}
		if age.Min > age.Max {
			return Criteria{}, fmt.Errorf("%w: minimum age %g exceeds maximum %g", ErrInvalidCriteria, age.Min, age.Max)
		}
	}

	set := make(map[int]bool, len(diameters))
	for _, d := range diameters {
		set[d] = true
	}

	c := Criteria{diameters: set}
	if age != nil {
		r := *age
		c.age = &r
	}
	return c, nil
}

// FullCriteria selects every observed diameter and the full observed age
// range of ds, so filtering with it keeps every record. The age range is
// left open when any record lacks an age, since a bound would drop it.
func FullCriteria(ds meter.Dataset) (Criteria, error) {
	var age *AgeRange
	if lo, hi := ds.AgeBounds(); lo.Valid && allAged(ds) {
		age = &AgeRange{Min: lo.Value, Max: hi.Value}
	}
	return NewCriteria(ds.Diameters(), age)
}

func allAged(ds meter.Dataset) bool {
	for i := 0; i < ds.Len(); i++ {
		if !ds.At(i).AgeYears.Valid {
			return false
		}
	}
	return true
}

// DiametersBetween returns the observed diameters inside [lo, hi].
func DiametersBetween(observed []int, lo, hi int) []int {
	var out []int
	for _, d := range observed {
		if d >= lo && d <= hi {
			out = append(out, d)
		}
	}
	return out
}

// Diameters returns the selected diameters in ascending order.
func (c Criteria) Diameters() []int {
	out := make([]int, 0, len(c.diameters))
	for d := range c.diameters {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Age returns the age bound, or nil when age is unconstrained.
func (c Criteria) Age() *AgeRange {
	if c.age == nil {
		return nil
	}
	r := *c.age
	return &r
}

// Matches reports whether r satisfies the criteria. A record without an age
// never matches an age-bounded criteria.
func (c Criteria) Matches(r meter.Record) bool {
	if !c.diameters[r.DiameterMM] {
		return false
	}
	if c.age == nil {
		return true
	}
	if !r.AgeYears.Valid {
		return false
	}
	return r.AgeYears.Value >= c.age.Min && r.AgeYears.Value <= c.age.Max
}

// Filter returns the records matching pred in their original order. The
// input slice is not modified.
func Filter(records []meter.Record, pred Predicate) []meter.Record {
	out := make([]meter.Record, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
