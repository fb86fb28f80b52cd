package models

import (
	"time"
)

// MetricContext is the derived, never-persisted evaluation context for one
// metric: the full chronological measurement history plus the program frame
// and comparison settings. It is computed fresh for every evaluation.
type MetricContext struct {
	ProgramMetric ProgramMetric `json:"program_metric"`
	Metric        Metric        `json:"metric"`
	// Measurements must be in chronological order (oldest first).
	Measurements     []Measurement `json:"measurements"`
	ProgramStartDate time.Time     `json:"program_start_date"`
	CurrentDate      time.Time     `json:"current_date"`
}

// LatestMeasurement returns the most recent measurement, or nil when the
// history is empty.
func (c *MetricContext) LatestMeasurement() *Measurement {
	var latest *Measurement
	for i := range c.Measurements {
		m := &c.Measurements[i]
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	return latest
}

// PreviousMeasurement returns the second-most-recent measurement, or nil when
// fewer than two exist.
func (c *MetricContext) PreviousMeasurement() *Measurement {
	if len(c.Measurements) < 2 {
		return nil
	}
	return &c.Measurements[len(c.Measurements)-2]
}

// LastBefore returns the most recent measurement strictly before t, or nil.
func (c *MetricContext) LastBefore(t time.Time) *Measurement {
	var last *Measurement
	for i := range c.Measurements {
		m := &c.Measurements[i]
		if m.Timestamp.Before(t) && (last == nil || m.Timestamp.After(last.Timestamp)) {
			last = m
		}
	}
	return last
}

// BaselineMeasurement returns the measurement the comparison mode anchors on,
// or nil when the history cannot supply one.
func (c *MetricContext) BaselineMeasurement() *Measurement {
	switch c.ProgramMetric.ComparisonMode {
	case ComparisonModeAbsolute:
		for i := range c.Measurements {
			if !c.Measurements[i].Timestamp.After(c.ProgramStartDate) {
				return &c.Measurements[i]
			}
		}
		return nil
	case ComparisonModeRelative:
		return c.PreviousMeasurement()
	case ComparisonModeRolling:
		cutoff := c.windowCutoff()
		for i := range c.Measurements {
			if !c.Measurements[i].Timestamp.Before(cutoff) {
				return &c.Measurements[i]
			}
		}
		return nil
	case ComparisonModeProgramStart:
		for i := range c.Measurements {
			if !c.Measurements[i].Timestamp.Before(c.ProgramStartDate) {
				return &c.Measurements[i]
			}
		}
		return nil
	default:
		return nil
	}
}

// RollingAverage returns the mean value over the trailing window, or nil when
// the comparison mode is not rolling or the window holds no measurements.
func (c *MetricContext) RollingAverage() *float64 {
	if c.ProgramMetric.ComparisonMode != ComparisonModeRolling {
		return nil
	}
	cutoff := c.windowCutoff()
	var sum float64
	var n int
	for i := range c.Measurements {
		if !c.Measurements[i].Timestamp.Before(cutoff) {
			sum += c.Measurements[i].Value
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// ComparisonValue resolves the value a delta-threshold rule measures
// improvement against, per the comparison mode. Nil means no comparison value
// is available (empty or too-short history).
func (c *MetricContext) ComparisonValue() *float64 {
	switch c.ProgramMetric.ComparisonMode {
	case ComparisonModeAbsolute:
		v := c.ProgramMetric.EffectiveBaseline()
		return &v
	case ComparisonModeRelative:
		if prev := c.PreviousMeasurement(); prev != nil {
			v := prev.Value
			return &v
		}
		return nil
	case ComparisonModeRolling:
		return c.RollingAverage()
	case ComparisonModeProgramStart:
		if base := c.BaselineMeasurement(); base != nil {
			v := base.Value
			return &v
		}
		return nil
	default:
		return nil
	}
}

func (c *MetricContext) windowCutoff() time.Time {
	days := c.ProgramMetric.WindowDays
	if days <= 0 {
		days = 7
	}
	return c.CurrentDate.Add(-time.Duration(days) * 24 * time.Hour)
}
