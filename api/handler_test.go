package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/possibull/possiblejourney-sub000/config"
)

func TestDefaultEndOfDay(t *testing.T) {
	t.Run("uses the configured default time", func(t *testing.T) {
		config.AppConfig.Program.DefaultEndOfDay = "23:30"
		defer func() { config.AppConfig.Program.DefaultEndOfDay = "" }()

		hour, minute := defaultEndOfDay()
		assert.Equal(t, 23, hour)
		assert.Equal(t, 30, minute)
	})

	t.Run("falls back to 22:00 when nothing is configured", func(t *testing.T) {
		config.AppConfig.Program.DefaultEndOfDay = ""

		hour, minute := defaultEndOfDay()
		assert.Equal(t, 22, hour)
		assert.Equal(t, 0, minute)
	})
}
