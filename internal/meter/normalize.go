package meter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedDiameter is returned when a diameter cell holds no digits.
	ErrMalformedDiameter = errors.New("malformed diameter")
	// ErrMalformedDate is returned when a non-empty installation date cannot be parsed.
	ErrMalformedDate = errors.New("malformed installation date")
)

// AgePrecision controls how derived ages are rounded.
type AgePrecision string

const (
	PrecisionInteger    AgePrecision = "integer"
	PrecisionFractional AgePrecision = "fractional"
)

// ParsePrecision validates a precision name from configuration.
func ParsePrecision(s string) (AgePrecision, error) {
	switch p := AgePrecision(strings.ToLower(strings.TrimSpace(s))); p {
	case PrecisionInteger, PrecisionFractional:
		return p, nil
	case "":
		return PrecisionInteger, nil
	default:
		return "", fmt.Errorf("unknown age precision %q (use integer or fractional)", s)
	}
}

// dateLayouts are tried in order when an installation date arrives as text.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// NormalizeDiameter keeps the ASCII digits of raw, in order, and parses them
// as a base-10 integer. "DN 25 MM" yields 25.
func NormalizeDiameter(raw string) (int, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return 0, fmt.Errorf("%w: %q contains no digits", ErrMalformedDiameter, raw)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedDiameter, raw, err)
	}
	return n, nil
}

// NormalizeAge returns the age in years of a meter installed at install,
// measured at reference. Whole elapsed days are divided by 365. A zero
// install time (year 1, January 1) yields an undefined age, never zero.
func NormalizeAge(install, reference time.Time, p AgePrecision) Optional {
	if install.IsZero() {
		return None()
	}

	// Seconds, not time.Duration, which saturates near 292 years.
	days := math.Floor(float64(reference.Unix()-install.Unix()) / 86400)
	years := days / 365

	if p == PrecisionFractional {
		return Some(math.Round(years*100) / 100)
	}
	return Some(math.Round(years))
}

// RecordError describes a row that failed normalization.
type RecordError struct {
	Index   int
	MeterID string
	Err     error
}

func (e *RecordError) Error() string {
	if e.MeterID == "" {
		return fmt.Sprintf("record %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("record %d (meter %s): %v", e.Index, e.MeterID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Normalizer converts raw rows into canonical records. Reference is the
// instant ages are measured from; it is fixed for the lifetime of a dataset.
type Normalizer struct {
	Reference time.Time
	Precision AgePrecision
	Columns   Columns
}

// NewNormalizer creates a Normalizer for the given reference time and columns.
func NewNormalizer(reference time.Time, precision AgePrecision, cols Columns) *Normalizer {
	return &Normalizer{
		Reference: reference,
		Precision: precision,
		Columns:   cols,
	}
}

// Normalize converts a single raw row.
func (n *Normalizer) Normalize(raw RawRecord) (Record, error) {
	rec := Record{
		MeterID:          raw.Text(n.Columns.MeterID),
		ConnectionStatus: raw.Text(n.Columns.Status),
		ReadingGroup:     raw.Text(n.Columns.ReadingGroup),
		PropertyProfile:  raw.Text(n.Columns.PropertyProfile),
	}

	diameter, err := NormalizeDiameter(raw.Text(n.Columns.Diameter))
	if err != nil {
		return Record{}, err
	}
	rec.DiameterMM = diameter

	installed, err := parseInstallDate(raw[n.Columns.InstallDate])
	if err != nil {
		return Record{}, err
	}
	rec.InstallDate = installed
	rec.AgeYears = NormalizeAge(installed, n.Reference, n.Precision)

	return rec, nil
}

// NormalizeAll converts every row independently. In lenient mode failing
// rows are skipped and returned as RecordErrors; in strict mode the first
// failure aborts and is returned as the error.
func (n *Normalizer) NormalizeAll(raws []RawRecord, strict bool) (Dataset, []*RecordError, error) {
	records := make([]Record, 0, len(raws))
	var failures []*RecordError

	for i, raw := range raws {
		rec, err := n.Normalize(raw)
		if err != nil {
			recErr := &RecordError{
				Index:   i,
				MeterID: raw.Text(n.Columns.MeterID),
				Err:     err,
			}
			if strict {
				return Dataset{}, nil, recErr
			}
			failures = append(failures, recErr)
			continue
		}
		records = append(records, rec)
	}

	return NewDataset(records, n.Reference), failures, nil
}

// Text returns the cell under key rendered as trimmed text. Missing and
// nil cells yield "".
func (r RawRecord) Text(key string) string {
	return cellString(r[key])
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func parseInstallDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, nil
		}
		return *t, nil
	}

	s := cellString(v)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}
