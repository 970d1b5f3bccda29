package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the poller and API services
type Config struct {
	// Database
	DatabasePath string // SQLite store
	DatabaseURL  string // optional Postgres DSN for the API

	// Upstream service
	BaseURL     string
	HTTPTimeout time.Duration

	// Polling
	PollInterval      time.Duration
	RetentionDuration time.Duration
	FetchWorkers      int
	Stations          []string // station codes to poll

	// Station directory dataset (JSON); empty means the bundled one
	StationsFile string

	// API
	Port           string
	AllowedOrigins []string
}

// fileConfig is the optional YAML overlay (TRENOSTAT_CONFIG).
type fileConfig struct {
	Stations            []string `yaml:"stations"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	RetentionHours      int      `yaml:"retention_hours"`
	FetchWorkers        int      `yaml:"fetch_workers"`
	StationsFile        string   `yaml:"stations_file"`
}

// Load reads configuration from environment variables with sensible
// defaults, then applies the YAML file named by TRENOSTAT_CONFIG on
// top, if any.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: getEnv("SQLITE_DATABASE", "/data/trenostat.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		BaseURL:     getEnv("VIAGGIATRENO_BASE_URL", ""),
		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL", 120)) * time.Second,
		RetentionDuration: time.Duration(getEnvInt("RETENTION_HOURS", 48)) * time.Hour,
		FetchWorkers:      getEnvInt("FETCH_WORKERS", 4),

		StationsFile: os.Getenv("STATIONS_FILE"),

		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	if codes := os.Getenv("POLL_STATIONS"); codes != "" {
		cfg.Stations = splitList(codes)
	}

	if path := os.Getenv("TRENOSTAT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if len(fc.Stations) > 0 {
		cfg.Stations = fc.Stations
	}
	if fc.PollIntervalSeconds > 0 {
		cfg.PollInterval = time.Duration(fc.PollIntervalSeconds) * time.Second
	}
	if fc.RetentionHours > 0 {
		cfg.RetentionDuration = time.Duration(fc.RetentionHours) * time.Hour
	}
	if fc.FetchWorkers > 0 {
		cfg.FetchWorkers = fc.FetchWorkers
	}
	if fc.StationsFile != "" {
		cfg.StationsFile = fc.StationsFile
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
