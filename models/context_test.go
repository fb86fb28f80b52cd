package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func contextForMode(mode ComparisonMode, measurements ...Measurement) *MetricContext {
	return &MetricContext{
		ProgramMetric:    ProgramMetric{ComparisonMode: mode, WindowDays: 7},
		Metric:           Metric{Name: "Sleep Hours"},
		Measurements:     measurements,
		ProgramStartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		CurrentDate:      time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
}

func at(d int, value float64) Measurement {
	return Measurement{
		Timestamp: time.Date(2025, time.January, d, 8, 0, 0, 0, time.UTC),
		Value:     value,
	}
}

func TestMetricContext_Lookups(t *testing.T) {
	ctx := contextForMode(ComparisonModeRelative, at(5, 7.0), at(8, 7.5), at(9, 8.0))

	t.Run("latest measurement", func(t *testing.T) {
		assert.Equal(t, 8.0, ctx.LatestMeasurement().Value)
	})

	t.Run("previous measurement", func(t *testing.T) {
		assert.Equal(t, 7.5, ctx.PreviousMeasurement().Value)
	})

	t.Run("previous requires at least two entries", func(t *testing.T) {
		short := contextForMode(ComparisonModeRelative, at(9, 8.0))
		assert.Nil(t, short.PreviousMeasurement())
	})

	t.Run("last before a timestamp", func(t *testing.T) {
		cutoff := time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 7.5, ctx.LastBefore(cutoff).Value)
	})

	t.Run("last before the first entry is nil", func(t *testing.T) {
		early := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		assert.Nil(t, ctx.LastBefore(early))
	})
}

func TestMetricContext_ComparisonValue(t *testing.T) {
	t.Run("absolute mode returns the configured baseline", func(t *testing.T) {
		baseline := 6.5
		ctx := contextForMode(ComparisonModeAbsolute, at(9, 8.0))
		ctx.ProgramMetric.Baseline = &baseline

		assert.Equal(t, 6.5, *ctx.ComparisonValue())
	})

	t.Run("absolute mode without a baseline defaults to zero", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeAbsolute, at(9, 8.0))
		assert.Equal(t, 0.0, *ctx.ComparisonValue())
	})

	t.Run("relative mode returns the previous value", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeRelative, at(8, 7.5), at(9, 8.0))
		assert.Equal(t, 7.5, *ctx.ComparisonValue())
	})

	t.Run("relative mode with a single entry has no comparison", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeRelative, at(9, 8.0))
		assert.Nil(t, ctx.ComparisonValue())
	})

	t.Run("rolling mode averages the trailing window", func(t *testing.T) {
		// Jan 1 falls outside the 7-day window ending Jan 10.
		ctx := contextForMode(ComparisonModeRolling, at(1, 100), at(5, 7.0), at(9, 8.0))
		assert.Equal(t, 7.5, *ctx.ComparisonValue())
	})

	t.Run("rolling mode with an empty window has no comparison", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeRolling, at(1, 100))
		assert.Nil(t, ctx.ComparisonValue())
	})

	t.Run("program-start mode returns the first value at or after the start", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeProgramStart, at(2, 6.0), at(9, 8.0))
		assert.Equal(t, 6.0, *ctx.ComparisonValue())
	})

	t.Run("program-start mode with no post-start history has no comparison", func(t *testing.T) {
		before := Measurement{
			Timestamp: time.Date(2024, time.December, 20, 8, 0, 0, 0, time.UTC),
			Value:     5.0,
		}
		ctx := contextForMode(ComparisonModeProgramStart, before)
		assert.Nil(t, ctx.ComparisonValue())
	})
}

func TestMetricContext_RollingAverage(t *testing.T) {
	t.Run("nil outside rolling mode", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeRelative, at(9, 8.0))
		assert.Nil(t, ctx.RollingAverage())
	})

	t.Run("window days default to seven", func(t *testing.T) {
		ctx := contextForMode(ComparisonModeRolling, at(5, 6.0), at(9, 8.0))
		ctx.ProgramMetric.WindowDays = 0
		assert.Equal(t, 7.0, *ctx.RollingAverage())
	})
}
