package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string // Data Source Name (e.g., "memory" or file path for SQLite)
	}
	Program struct {
		// DefaultEndOfDay is an "HH:MM" time of day used for new programs
		// that do not set their own end-of-day boundary.
		DefaultEndOfDay string `mapstructure:"default_end_of_day"`
		DefaultDayCount int    `mapstructure:"default_day_count"`
		// SeedDefaults controls whether the built-in template and metric
		// catalogs are inserted on startup.
		SeedDefaults bool `mapstructure:"seed_defaults"`
	}
}

// AppConfig is the global configuration instance.
var AppConfig Config

// LoadConfig loads configuration from file and environment variables.
func LoadConfig() {
	viper.SetConfigName("config")    // Name of config file (without extension)
	viper.SetConfigType("yaml")      // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("./config")  // Path to look for the config file in
	viper.AddConfigPath(".")         // Optionally look for config in the working directory
	viper.AddConfigPath("../config") // For running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "data/possiblejourney.db")
	viper.SetDefault("program.default_end_of_day", "22:00")
	viper.SetDefault("program.default_day_count", 75)
	viper.SetDefault("program.seed_defaults", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		AppConfig.Database.DSN = dsn
		log.Printf("INFO: [Config] Database DSN overridden by environment variable DATABASE_DSN.")
	}
	if eod := os.Getenv("PROGRAM_END_OF_DAY"); eod != "" {
		AppConfig.Program.DefaultEndOfDay = eod
		log.Printf("INFO: [Config] Default end-of-day overridden by environment variable PROGRAM_END_OF_DAY: %s", eod)
	}

	if _, _, err := AppConfig.EndOfDayTime(); err != nil {
		log.Fatalf("FATAL: [Config] Invalid program.default_end_of_day %q: %v", AppConfig.Program.DefaultEndOfDay, err)
	}
	if AppConfig.Program.DefaultDayCount <= 0 {
		log.Fatalf("FATAL: [Config] program.default_day_count must be positive, got %d", AppConfig.Program.DefaultDayCount)
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}

// EndOfDayTime parses the configured "HH:MM" default end-of-day into an hour
// and minute pair.
func (c *Config) EndOfDayTime() (hour, minute int, err error) {
	parts := strings.SplitN(c.Program.DefaultEndOfDay, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", c.Program.DefaultEndOfDay)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute %q", parts[1])
	}
	return hour, minute, nil
}
