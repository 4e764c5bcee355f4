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
	// Local gateway
	Port string

	// Collaborator APIs
	AuthAPIURL       string
	ExpensesAPIURL   string
	LendBorrowAPIURL string
	HTTPTimeout      time.Duration

	// Session storage
	SessionDir string

	// Offline mirror
	SQLiteDBPath string

	// Background refresh
	SyncInterval time.Duration

	// Summary cache
	CacheTTL  time.Duration
	CacheSize int

	// User search proxy throttle (one upstream call per user per window)
	SearchThrottle time.Duration
}

func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultDir := filepath.Join(home, ".fintrack")

	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		AuthAPIURL:       getEnv("AUTH_API_URL", "http://localhost:4000/api/auth"),
		ExpensesAPIURL:   getEnv("EXPENSES_API_URL", "http://localhost:4001/api/expenses"),
		LendBorrowAPIURL: getEnv("LENDBORROW_API_URL", "http://localhost:4002/api/lendborrow"),
		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		SessionDir: getEnv("SESSION_DIR", filepath.Join(defaultDir, "session")),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(defaultDir, "mirror.db")),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 100),

		SearchThrottle: getEnvDuration("SEARCH_THROTTLE", 300*time.Millisecond),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for name, value := range map[string]string{
		"AUTH_API_URL":       c.AuthAPIURL,
		"EXPENSES_API_URL":   c.ExpensesAPIURL,
		"LENDBORROW_API_URL": c.LendBorrowAPIURL,
	} {
		if value == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", name))
			continue
		}
		parsed, err := url.Parse(value)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, value, err))
			continue
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid %s scheme '%s': must be 'http' or 'https'", name, parsed.Scheme))
		}
	}

	if c.SessionDir == "" {
		errors = append(errors, "session directory cannot be empty")
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
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

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.SearchThrottle < 0 {
		errors = append(errors, fmt.Sprintf("invalid search throttle %v: must not be negative", c.SearchThrottle))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
