package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session store kinds.
const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

// Config holds runtime settings for the vault CLI.
//
// Fields:
//   - ServerBaseURL: root URL of the remote API, endpoints are appended to it.
//   - RequestTimeout: upper bound of a single HTTP request.
//   - VaultOperationTimeout: upper bound of a whole vault operation, and so of
//     how long the vault lock can be held.
//   - SessionStore: "memory" keeps the session for the process lifetime,
//     "sqlite" persists it in SessionDSN.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerBaseURL         string
	RequestTimeout        time.Duration
	VaultOperationTimeout time.Duration
	SessionStore          string
	SessionDSN            string
	LogLevel              string
}

func defaultSessionDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "protopass", "session.db")
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "https://protopass-backend.azurewebsites.net/api"
	c.RequestTimeout = 30 * time.Second
	c.VaultOperationTimeout = 2 * time.Minute
	c.SessionStore = SessionStoreMemory
	c.SessionDSN = defaultSessionDSN()
	c.LogLevel = "warn"
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	if c.ServerBaseURL == "" {
		return fmt.Errorf("server base url is required")
	}
	if c.RequestTimeout < 0 || c.VaultOperationTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreSQLite:
		if c.SessionDSN == "" {
			return fmt.Errorf("sqlite session store needs a dsn")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
