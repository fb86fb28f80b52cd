package models

import (
	"time"

	"gorm.io/datatypes"
)

// MeasurementSource identifies where a measurement came from.
type MeasurementSource string

const (
	MeasurementSourceManual       MeasurementSource = "manual"
	MeasurementSourceImportHealth MeasurementSource = "import_health"
	MeasurementSourceImportGarmin MeasurementSource = "import_garmin"
	MeasurementSourceImportOura   MeasurementSource = "import_oura"
	MeasurementSourceImportStrava MeasurementSource = "import_strava"
)

// Measurement is one recorded value for a metric. Measurements are immutable
// once recorded; corrections are made by recording a superseding entry.
type Measurement struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	MetricID  string    `gorm:"index;type:varchar(36);not null" json:"metric_id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	Value     float64   `gorm:"not null" json:"value"`
	// BooleanValue carries yes/no metrics ("phone in bedroom").
	BooleanValue *bool `json:"boolean_value,omitempty"`
	// CompositeValue carries multi-component entries, e.g.
	// {"weight": 135, "reps": 8} for strength training.
	CompositeValue datatypes.JSONMap `json:"composite_value,omitempty"`
	Source         MeasurementSource `gorm:"type:varchar(30);default:'manual';not null" json:"source"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Measurement model.
func (Measurement) TableName() string {
	return "measurements"
}

// HasComposite reports whether this is a multi-component measurement.
func (m *Measurement) HasComposite() bool {
	return len(m.CompositeValue) > 0
}

// CompositeFloat returns a named numeric component of a composite measurement.
// JSON round-tripping stores numbers as float64, but values set in-process may
// still be ints, so both are accepted.
func (m *Measurement) CompositeFloat(key string) (float64, bool) {
	if m.CompositeValue == nil {
		return 0, false
	}
	raw, ok := m.CompositeValue[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
