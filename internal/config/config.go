package config

import (
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	APIBaseURL  string
	StateDBPath string
	HTTPTimeout time.Duration
	LogLevel    string
}

func Load() Config {
	return Config{
		APIBaseURL:  envString("EVENTUP_API_URL", "http://localhost:8000"),
		StateDBPath: envString("EVENTUP_STATE_DB", defaultStateDBPath()),
		HTTPTimeout: envDuration("EVENTUP_HTTP_TIMEOUT", 30*time.Second),
		LogLevel:    envString("EVENTUP_LOG_LEVEL", "info"),
	}
}

func defaultStateDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "eventup.db"
	}
	return filepath.Join(home, ".eventup", "state.db")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
