package engine

import (
	"math"

	"github.com/runnerr0/meterreport/internal/meter"
)

// Selection is a partially specified filter as a user supplies it: any part
// left unset falls back to what the dataset contains.
type Selection struct {
	Diameters   []int
	MinDiameter *int
	MaxDiameter *int
	MinAge      *float64
	MaxAge      *float64
}

// IsZero reports whether nothing was specified.
func (s Selection) IsZero() bool {
	return len(s.Diameters) == 0 && s.MinDiameter == nil && s.MaxDiameter == nil &&
		s.MinAge == nil && s.MaxAge == nil
}

// Resolve turns s into criteria against ds. A zero selection resolves to nil,
// meaning the unfiltered dataset. Explicit diameters win over a diameter
// range; an age range with one bound set is open on the other side.
func (s Selection) Resolve(ds meter.Dataset) (*Criteria, error) {
	if s.IsZero() {
		return nil, nil
	}

	diameters := s.Diameters
	if len(diameters) == 0 {
		lo, hi := math.MinInt, math.MaxInt
		if s.MinDiameter != nil {
			lo = *s.MinDiameter
		}
		if s.MaxDiameter != nil {
			hi = *s.MaxDiameter
		}
		diameters = DiametersBetween(ds.Diameters(), lo, hi)
	}

	var age *AgeRange
	if s.MinAge != nil || s.MaxAge != nil {
		age = &AgeRange{Min: math.Inf(-1), Max: math.Inf(1)}
		if s.MinAge != nil {
			age.Min = *s.MinAge
		}
		if s.MaxAge != nil {
			age.Max = *s.MaxAge
		}
	}

	c, err := NewCriteria(diameters, age)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
