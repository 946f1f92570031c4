package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Logging
	LogLevel string

	// Record source
	DataBackend  string
	SQLiteDBPath string
	DataDir      string

	// Baseline goals
	GoalSource            string
	GoalSeedFile          string
	GoogleSpreadsheetID   string
	GoogleGoalsSheetName  string
	GoogleCredentialsFile string

	// Result cache
	CacheBackend    string
	CacheMaxEntries int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTimeout    time.Duration

	// AMQP invalidation events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Metrics
	MetricsAddr string

	// KPI rules
	OtherCostRatio    float64
	TunedVersionLabel string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")
	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "insuralytics.db")),
		DataDir:      dataDir,

		GoalSource:            getEnv("GOAL_SOURCE", "file"),
		GoalSeedFile:          getEnv("GOAL_SEED_FILE", filepath.Join(dataDir, "seed_goals.csv")),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleGoalsSheetName:  getEnv("GOOGLE_GOALS_SHEET_NAME", "Goals"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		CacheBackend:    getEnv("CACHE_BACKEND", "memory"),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 512),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisTimeout:    getEnvDuration("REDIS_TIMEOUT", 500*time.Millisecond),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "insuralytics"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "kpi_invalidation"),

		MetricsAddr: getEnv("METRICS_ADDR", ""),

		OtherCostRatio:    getEnvFloat("OTHER_COST_RATIO", 0),
		TunedVersionLabel: getEnv("TUNED_VERSION_LABEL", "tuned"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	validBackends := []string{"memory", "sqlite"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validGoalSources := []string{"file", "sheets"}
	if !contains(validGoalSources, c.GoalSource) {
		errors = append(errors, fmt.Sprintf("invalid goal source '%s': must be one of %v", c.GoalSource, validGoalSources))
	}
	if c.GoalSource == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets goal source")
		}
		if c.GoogleGoalsSheetName == "" {
			errors = append(errors, "Google goals sheet name is required when using sheets goal source")
		}
	}

	validCaches := []string{"memory", "redis"}
	if !contains(validCaches, c.CacheBackend) {
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of %v", c.CacheBackend, validCaches))
	}
	if c.CacheMaxEntries < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache max entries %d: must not be negative", c.CacheMaxEntries))
	}
	if c.CacheBackend == "redis" {
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis cache backend")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			errors = append(errors, fmt.Sprintf("invalid Redis DB %d: must be between 0 and 15", c.RedisDB))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.OtherCostRatio < 0 || c.OtherCostRatio >= 1 {
		errors = append(errors, fmt.Sprintf("invalid other cost ratio %v: must be in [0, 1)", c.OtherCostRatio))
	}
	if strings.TrimSpace(c.TunedVersionLabel) == "" {
		errors = append(errors, "tuned version label cannot be empty")
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
