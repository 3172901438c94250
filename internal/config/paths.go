package config

import (
	"os"
	"path/filepath"
)

// DayplanPath returns the root directory for dayplan data.
// It uses $DAYPLAN_PATH if set, otherwise defaults to ~/.dayplan.
func DayplanPath() string {
	if v := os.Getenv("DAYPLAN_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dayplan")
	}
	return filepath.Join(home, ".dayplan")
}

// ConfigPath returns the path to the dayplan config file.
func ConfigPath() string {
	return filepath.Join(DayplanPath(), "config.jsonc")
}

// DotenvPath returns the path to the dayplan .env file.
func DotenvPath() string {
	return filepath.Join(DayplanPath(), ".env")
}

// HeartbeatPath returns the path of the running server's heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(DayplanPath(), "heartbeat.json")
}
