package backend

import (
	"fmt"
	"time"

	"insuralytics/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type  BackendType
	Goals GoalSourceType
	Cache CacheType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend and seed files
	DataDirectory string

	// Google Sheets goal source
	GoogleSpreadsheetID  string
	GoogleGoalsSheetName string

	// Result cache
	CacheMaxEntries int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTimeout    time.Duration
}

// BackendType selects where records come from
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// GoalSourceType selects where baseline goals come from
type GoalSourceType string

const (
	FileGoals   GoalSourceType = "file"
	SheetsGoals GoalSourceType = "sheets"
)

// CacheType selects the result cache backend
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

func (gt GoalSourceType) IsValid() bool {
	return gt == FileGoals || gt == SheetsGoals
}

func (ct CacheType) IsValid() bool {
	return ct == MemoryCache || ct == RedisCache
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:  BackendType(appConfig.DataBackend),
		Goals: GoalSourceType(appConfig.GoalSource),
		Cache: CacheType(appConfig.CacheBackend),

		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDir,

		GoogleSpreadsheetID:  appConfig.GoogleSpreadsheetID,
		GoogleGoalsSheetName: appConfig.GoogleGoalsSheetName,

		CacheMaxEntries: appConfig.CacheMaxEntries,
		RedisAddr:       appConfig.RedisAddr,
		RedisPassword:   appConfig.RedisPassword,
		RedisDB:         appConfig.RedisDB,
		RedisTimeout:    appConfig.RedisTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.Goals.IsValid() {
		return fmt.Errorf("invalid goal source: %s", c.Goals)
	}
	if !c.Cache.IsValid() {
		return fmt.Errorf("invalid cache backend: %s", c.Cache)
	}

	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.Goals == SheetsGoals && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets goal source")
	}
	if c.Cache == RedisCache && c.RedisAddr == "" {
		return fmt.Errorf("Redis address is required for redis cache backend")
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}
