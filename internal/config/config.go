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

// Backend names for DATA_BACKEND.
const (
	BackendGviz   = "gviz"
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

// DefaultSharedSheetID is the spreadsheet holding the shared expense
// pool that clusters without a dedicated sheet are filtered from.
const DefaultSharedSheetID = "1Iw76w4c0Jp8xwSj1UgukZlkFRGOclkvJk9TeaZzuiw0"

type Config struct {
	// HTTP Server
	Port string

	// Data source
	DataBackend   string
	SharedSheetID string
	SheetName     string
	// ClusterSheetIDs overrides the built-in dedicated sheet per
	// cluster, as "key=sheetID" pairs.
	ClusterSheetIDs map[string]string
	FetchTimeout    time.Duration

	// Refresh worker
	RefreshInterval time.Duration

	// Snapshot history
	SQLiteDBPath string

	// AMQP (empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:     getEnv("DATA_BACKEND", BackendGviz),
		SharedSheetID:   getEnv("SHARED_SHEET_ID", DefaultSharedSheetID),
		SheetName:       getEnv("SHEET_NAME", "Sheet1"),
		ClusterSheetIDs: parseSheetOverrides(getEnv("CLUSTER_SHEET_IDS", "")),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 30*time.Second),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pcfdash.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pcfdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_completed"),
	}

	return cfg
}

// parseSheetOverrides parses "key=sheetID,key=sheetID" pairs. Malformed
// pairs are skipped.
func parseSheetOverrides(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, id, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" || id == "" {
			continue
		}
		out[key] = id
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{BackendGviz, BackendSheets, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend != BackendMemory {
		if c.SharedSheetID == "" {
			errors = append(errors, "shared sheet ID cannot be empty")
		}
		if c.SheetName == "" {
			errors = append(errors, "sheet name cannot be empty")
		}
	}

	// The sheets backend needs service account credentials from the
	// environment.
	if c.DataBackend == BackendSheets {
		hasJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") != ""
		hasFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "sheets backend requires GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS")
		}
	}

	// Validate SQLite path
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

	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 5 minutes", c.FetchTimeout))
	}

	if c.RefreshInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 10 seconds", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	// Return combined errors
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
