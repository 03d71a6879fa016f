package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr     string   `toml:"listen_addr"`
	Schedule       string   `toml:"schedule"`
	ResponseWindow string   `toml:"response_window"`
	RosterSource   string   `toml:"roster_source"`
	RosterMembers  []string `toml:"roster_members"`
	RosterPath     string   `toml:"roster_path"`
	MaxConcurrent  int      `toml:"max_concurrent_sends"`
	SendsPerSecond float64  `toml:"sends_per_second"`
	SendBurst      int      `toml:"send_burst"`
	SendAttempts   int      `toml:"send_attempts"`
	PromptText     string   `toml:"prompt_text"`
	ButtonLabel    string   `toml:"button_label"`
	FormTitle      string   `toml:"form_title"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.rollcall/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rollcall", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen-addr", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("schedule", fc.Schedule, &cfg.Schedule)
	s.setString("roster-source", fc.RosterSource, &cfg.RosterSource)
	s.setStrings("roster-member", fc.RosterMembers, &cfg.RosterMembers)
	s.setString("roster-path", fc.RosterPath, &cfg.RosterPath)
	s.setString("prompt-text", fc.PromptText, &cfg.PromptText)
	s.setString("button-label", fc.ButtonLabel, &cfg.ButtonLabel)
	s.setString("form-title", fc.FormTitle, &cfg.FormTitle)

	if err := s.setDuration("response-window", fc.ResponseWindow, &cfg.ResponseWindow); err != nil {
		return err
	}

	s.setInt("max-concurrent", fc.MaxConcurrent, &cfg.MaxConcurrentSends)
	s.setFloat("sends-per-second", fc.SendsPerSecond, &cfg.SendsPerSecond)
	s.setInt("send-burst", fc.SendBurst, &cfg.SendBurst)
	s.setInt("send-attempts", fc.SendAttempts, &cfg.SendAttempts)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
