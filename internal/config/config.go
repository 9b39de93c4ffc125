package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Sources SourcesConfig
	Store   StoreConfig
	Tuning  TuningConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// SourcesConfig lists the adapter resource URIs this process polls or
// subscribes to (see internal/adapter.ParseSource for the accepted
// schemes: http(s), ws(s), fdsn, post, twitter).
type SourcesConfig struct {
	Resources []string
}

// StoreConfig names every persisted backing store the pipeline depends on.
type StoreConfig struct {
	ThresholdsPath string // sqlite
	HeuristicsPath string // sqlite
	SeenRedisURL   string
	DomainsDSN     string // postgres
}

// TuningConfig exposes the pipeline's numeric knobs that a deployment may
// reasonably want to override without a rebuild.
type TuningConfig struct {
	MagFloor         float64
	DefaultSigmaMul  float64
	LearningRate     float64
	LearningInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Sources: SourcesConfig{
			Resources: getEnvList("SOURCE_RESOURCES", []string{
				"https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson",
				"https://www.gdacs.org/xml/rss.xml",
			}),
		},
		Store: StoreConfig{
			ThresholdsPath: getEnv("THRESHOLDS_DB_PATH", "./data/thresholds.db"),
			HeuristicsPath: getEnv("HEURISTICS_DB_PATH", "./data/heuristics.db"),
			SeenRedisURL:   getEnv("SEEN_REDIS_URL", "redis://localhost:6379/0"),
			DomainsDSN:     getEnv("DOMAINS_DSN", "postgres://localhost:5432/quakewatch"),
		},
		Tuning: TuningConfig{
			MagFloor:         getEnvFloat("TUNING_MAG_FLOOR", 2.5),
			DefaultSigmaMul:  getEnvFloat("TUNING_SIGMA_MUL", 1.0),
			LearningRate:     getEnvFloat("TUNING_LEARNING_RATE", 0.05),
			LearningInterval: getEnvDuration("TUNING_LEARNING_INTERVAL", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if len(c.Sources.Resources) == 0 {
		return fmt.Errorf("at least one source resource must be configured")
	}

	if c.Tuning.MagFloor < 0 {
		return fmt.Errorf("mag floor must be non-negative")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated env var into its entries, trimming
// whitespace around each, falling back to fallback when unset.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
