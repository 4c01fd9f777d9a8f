package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Persistence backends
const (
	PersistenceHTTP     = "http"
	PersistencePostgres = "postgres"
)

// Config holds all configuration for curriculum-engine
type Config struct {
	LogLevel    slog.Level
	Server      ServerConfig
	Backend     BackendConfig
	Catalog     CatalogConfig
	Persistence PersistenceConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Editor      EditorConfig
	Progression ProgressionConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host    string
	Port    int
	APIKeys []string
}

// BackendConfig points at the course backend API
type BackendConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CatalogConfig tunes catalog loading
type CatalogConfig struct {
	PrimaryPageSize   int
	SecondaryPageSize int
	MaxPages          int
	LoadTimeout       time.Duration
	WaitTimeout       time.Duration
	CacheTTL          time.Duration
	PreloadOnStart    bool
}

// PersistenceConfig selects where courses are read from and saved to
type PersistenceConfig struct {
	Backend string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int
	RunMigrations bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

// EditorConfig holds editor session configuration
type EditorConfig struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	MoveSemantics   string
	MaxOpen         int
	Seed            int64
}

// ProgressionConfig locates the progression profile
type ProgressionConfig struct {
	ProfilePath string
}

// Load loads configuration from environment variables. A .env file (or
// the file named by ENV_FILE) is read first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			APIKeys: getEnvAsList("API_KEYS"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_URL", "http://localhost:3000"),
			APIKey:  getEnv("BACKEND_API_KEY", ""),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Catalog: CatalogConfig{
			PrimaryPageSize:   getEnvAsInt("CATALOG_PAGE_SIZE", 1000),
			SecondaryPageSize: getEnvAsInt("CATALOG_SECONDARY_PAGE_SIZE", 100),
			MaxPages:          getEnvAsInt("CATALOG_MAX_PAGES", 50),
			LoadTimeout:       getEnvAsDuration("CATALOG_LOAD_TIMEOUT", 30*time.Second),
			WaitTimeout:       getEnvAsDuration("CATALOG_WAIT_TIMEOUT", 10*time.Second),
			CacheTTL:          getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),
			PreloadOnStart:    getEnvAsBool("CATALOG_PRELOAD", true),
		},
		Persistence: PersistenceConfig{
			Backend: strings.ToLower(getEnv("PERSISTENCE_BACKEND", PersistenceHTTP)),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MaxOpenConns:  getEnvAsInt("DATABASE_MAX_CONNS", 10),
			RunMigrations: getEnvAsBool("DATABASE_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Editor: EditorConfig{
			IdleTTL:         getEnvAsDuration("EDITOR_IDLE_TTL", 2*time.Hour),
			CleanupInterval: getEnvAsDuration("EDITOR_CLEANUP_INTERVAL", 5*time.Minute),
			MoveSemantics:   strings.ToLower(getEnv("EDITOR_MOVE_SEMANTICS", "copy")),
			MaxOpen:         getEnvAsInt("EDITOR_MAX_OPEN", 0),
			Seed:            int64(getEnvAsInt("EDITOR_SEED", 0)),
		},
		Progression: ProgressionConfig{
			ProfilePath: getEnv("PROGRESSION_PROFILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Persistence.Backend {
	case PersistenceHTTP:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend URL is required for the http persistence backend")
		}
	case PersistencePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres persistence backend")
		}
	default:
		return fmt.Errorf("invalid persistence backend: %q", c.Persistence.Backend)
	}

	if c.Catalog.SecondaryPageSize < 1 || c.Catalog.SecondaryPageSize > 100 {
		return fmt.Errorf("secondary page size must be between 1 and 100: %d", c.Catalog.SecondaryPageSize)
	}

	if c.Catalog.MaxPages < 1 {
		return fmt.Errorf("catalog max pages must be positive: %d", c.Catalog.MaxPages)
	}

	if c.Editor.MoveSemantics != "copy" && c.Editor.MoveSemantics != "move" {
		return fmt.Errorf("invalid editor move semantics: %q", c.Editor.MoveSemantics)
	}

	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty items
func getEnvAsList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
