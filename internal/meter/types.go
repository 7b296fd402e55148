package meter

import (
	"encoding/json"
	"time"
)

// RawRecord is one untyped row as delivered by a data source, keyed by column name.
type RawRecord map[string]any

// Record is the canonical, typed form of a single water meter row.
type Record struct {
	MeterID          string
	DiameterMM       int
	ConnectionStatus string
	InstallDate      time.Time // zero when the source had no installation date
	AgeYears         Optional  // invalid when InstallDate is zero
	ReadingGroup     string
	PropertyProfile  string
}

// HasInstallDate reports whether the source row carried an installation date.
func (r Record) HasInstallDate() bool {
	return !r.InstallDate.IsZero()
}

// Optional is a float that may be undefined. An undefined value is distinct
// from a computed zero and encodes as JSON null.
type Optional struct {
	Value float64
	Valid bool
}

// Some returns a defined Optional holding v.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// None returns an undefined Optional.
func None() Optional {
	return Optional{}
}

// MarshalJSON encodes an undefined Optional as null.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes null into an undefined Optional.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Columns maps canonical fields to the header names used by a data source.
type Columns struct {
	MeterID         string `yaml:"meter_id"`
	Diameter        string `yaml:"diameter"`
	Status          string `yaml:"status"`
	InstallDate     string `yaml:"install_date"`
	ReadingGroup    string `yaml:"reading_group"`
	PropertyProfile string `yaml:"property_profile"`
}

// DefaultColumns returns the headers of the utility's spreadsheet export.
func DefaultColumns() Columns {
	return Columns{
		MeterID:         "Hidrometro",
		Diameter:        "Diametro",
		Status:          "Situacao",
		InstallDate:     "Data Instalacao",
		ReadingGroup:    "Grupo Leitura",
		PropertyProfile: "Perfil Imovel",
	}
}
