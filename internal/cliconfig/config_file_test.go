package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfig(t, `
listen_addr = ":9090"
schedule = "0 10 * * 2"
response_window = "1h"
roster_source = "static"
roster_members = ["U1", "U2"]
sends_per_second = 2.5
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Fatalf("expected listen addr :9090, got %s", cfg.ListenAddr)
	}
	if cfg.Schedule != "0 10 * * 2" {
		t.Fatalf("expected schedule from file, got %s", cfg.Schedule)
	}
	if cfg.ResponseWindow != time.Hour {
		t.Fatalf("expected 1h window, got %s", cfg.ResponseWindow)
	}
	if cfg.RosterSource != RosterStatic || len(cfg.RosterMembers) != 2 {
		t.Fatalf("expected static roster with 2 members, got %s/%v", cfg.RosterSource, cfg.RosterMembers)
	}
	if cfg.SendsPerSecond != 2.5 {
		t.Fatalf("expected 2.5 sends per second, got %v", cfg.SendsPerSecond)
	}
}

func TestApplyFileConfigRespectsChangedFlags(t *testing.T) {
	fc := FileConfig{ListenAddr: ":9090", Schedule: "0 10 * * 2"}

	cfg := DefaultConfig()
	changed := map[string]bool{"listen-addr": true}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if cfg.ListenAddr != DefaultConfig().ListenAddr {
		t.Fatalf("flag-set listen addr must win over file, got %s", cfg.ListenAddr)
	}
	if cfg.Schedule != "0 10 * * 2" {
		t.Fatalf("schedule should come from file, got %s", cfg.Schedule)
	}
}

func TestLoadFileConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `response_window = "two days"`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}
