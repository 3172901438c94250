package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDayplanPath_Default(t *testing.T) {
	t.Setenv("DAYPLAN_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := DayplanPath()
	want := filepath.Join(home, ".dayplan")
	if got != want {
		t.Errorf("DayplanPath() = %q, want %q", got, want)
	}
}

func TestDayplanPath_EnvOverride(t *testing.T) {
	t.Setenv("DAYPLAN_PATH", "/tmp/custom-dayplan")

	if got := DayplanPath(); got != "/tmp/custom-dayplan" {
		t.Errorf("DayplanPath() = %q", got)
	}
}

func TestConfigAndDotenvPath(t *testing.T) {
	t.Setenv("DAYPLAN_PATH", "/tmp/test-dayplan")

	if got := ConfigPath(); got != "/tmp/test-dayplan/config.jsonc" {
		t.Errorf("ConfigPath() = %q", got)
	}
	if got := DotenvPath(); got != "/tmp/test-dayplan/.env" {
		t.Errorf("DotenvPath() = %q", got)
	}
	if got := HeartbeatPath(); got != "/tmp/test-dayplan/heartbeat.json" {
		t.Errorf("HeartbeatPath() = %q", got)
	}
}
