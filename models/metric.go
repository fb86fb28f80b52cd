package models

import (
	"time"
)

// MetricDirection indicates whether higher or lower values are better.
type MetricDirection string

const (
	MetricDirectionIncrease MetricDirection = "increase"
	MetricDirectionDecrease MetricDirection = "decrease"
)

// MetricType defines how a metric's measurements are shaped.
type MetricType string

const (
	MetricTypeNumber  MetricType = "number"
	MetricTypeBoolean MetricType = "boolean"
	MetricTypeCount   MetricType = "count"
)

// Metric is a trackable quantity (sleep hours, weight, steps...) that tasks
// can link to via LinkedMetricID.
type Metric struct {
	ID          string          `gorm:"primarykey;type:varchar(36)" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Unit        string          `gorm:"type:varchar(30)" json:"unit"`
	Direction   MetricDirection `gorm:"type:varchar(20);default:'increase';not null" json:"direction"`
	Type        MetricType      `gorm:"type:varchar(20);default:'number';not null" json:"type"`
	Archived    bool            `gorm:"default:false" json:"archived"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Metric model.
func (Metric) TableName() string {
	return "metrics"
}

// DisplayName returns the metric name with its unit, if any.
func (m *Metric) DisplayName() string {
	if m.Unit == "" {
		return m.Name
	}
	return m.Name + " (" + m.Unit + ")"
}

// ComparisonMode selects the baseline a delta-threshold rule measures
// improvement against.
type ComparisonMode string

const (
	// ComparisonModeAbsolute compares against a fixed configured baseline.
	ComparisonModeAbsolute ComparisonMode = "absolute"
	// ComparisonModeRelative compares against the previous measurement.
	ComparisonModeRelative ComparisonMode = "relative"
	// ComparisonModeRolling compares against a rolling average.
	ComparisonModeRolling ComparisonMode = "rolling"
	// ComparisonModeProgramStart compares against the first measurement
	// recorded at or after the program start.
	ComparisonModeProgramStart ComparisonMode = "program_start"
)

// ProgramMetric binds a metric to a program with its comparison settings.
type ProgramMetric struct {
	ID             string         `gorm:"primarykey;type:varchar(36)" json:"id"`
	ProgramID      string         `gorm:"index;type:varchar(36);not null" json:"program_id"`
	MetricID       string         `gorm:"index;type:varchar(36);not null" json:"metric_id"`
	Baseline       *float64       `json:"baseline,omitempty"`
	ComparisonMode ComparisonMode `gorm:"type:varchar(20);default:'relative';not null" json:"comparison_mode"`
	WindowDays     int            `gorm:"default:7;not null" json:"window_days"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the ProgramMetric model.
func (ProgramMetric) TableName() string {
	return "program_metrics"
}

// EffectiveBaseline returns the configured baseline, defaulting to zero.
func (pm *ProgramMetric) EffectiveBaseline() float64 {
	if pm.Baseline == nil {
		return 0
	}
	return *pm.Baseline
}

// DefaultMetrics returns the seed metric catalog for a fresh install.
func DefaultMetrics() []Metric {
	return []Metric{
		{Name: "Sleep Hours", Description: "Hours of sleep per night", Unit: "hrs", Direction: MetricDirectionIncrease, Type: MetricTypeNumber},
		{Name: "Weight", Description: "Body weight", Unit: "lbs", Direction: MetricDirectionDecrease, Type: MetricTypeNumber},
		{Name: "Steps", Description: "Daily step count", Unit: "steps", Direction: MetricDirectionIncrease, Type: MetricTypeCount},
		{Name: "Water Intake", Description: "Daily water consumption", Unit: "oz", Direction: MetricDirectionIncrease, Type: MetricTypeNumber},
		{Name: "Exercise Completed", Description: "Whether exercise was completed", Unit: "", Direction: MetricDirectionIncrease, Type: MetricTypeBoolean},
		{Name: "Meditation Minutes", Description: "Minutes spent meditating", Unit: "min", Direction: MetricDirectionIncrease, Type: MetricTypeNumber},
		{Name: "Social Connections", Description: "Number of meaningful social interactions", Unit: "", Direction: MetricDirectionIncrease, Type: MetricTypeCount},
	}
}
