// Package cliconfig holds the CLI-facing configuration for rollcall.
//
// Precedence, highest first: command-line flags, ROLLCALL_* environment
// variables, the TOML config file, built-in defaults. Precedence is enforced
// with a changed-flags map supplied by the command layer.
package cliconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Roster source selectors.
const (
	RosterStatic    = "static"
	RosterFile      = "file"
	RosterDirectory = "directory"
)

// Secret names resolved through the secret store at startup.
const (
	SecretBotToken      = "SLACK_BOT_TOKEN"
	SecretSigningSecret = "SLACK_SIGNING_SECRET"
)

type Config struct {
	ListenAddr string

	// Schedule is a 5-field cron expression for the calendar trigger.
	Schedule string

	// ResponseWindow is how long a prompt stays answerable before it is
	// retracted.
	ResponseWindow time.Duration

	RosterSource  string
	RosterMembers []string
	RosterPath    string

	MaxConcurrentSends int
	SendsPerSecond     float64
	SendBurst          int
	SendAttempts       int

	PromptText  string
	ButtonLabel string
	FormTitle   string

	// BotToken and SigningSecret are resolved from the secret store when
	// left empty. Excluded from serialization so they never reach logs.
	BotToken      string `json:"-" toml:"-"`
	SigningSecret string `json:"-" toml:"-"`
}

// DefaultConfig returns a Config with default values: Monday 9am check-ins
// with a 48h response window.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":8080",
		Schedule:           "0 9 * * 1",
		ResponseWindow:     48 * time.Hour,
		RosterSource:       RosterDirectory,
		MaxConcurrentSends: 4,
		SendsPerSecond:     1.0,
		SendBurst:          2,
		SendAttempts:       3,
		PromptText:         "*It's check-in time!* Tell the team how your week is going.",
		ButtonLabel:        "Check in",
		FormTitle:          "Weekly check-in",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen-addr is required")
	}
	if c.Schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if c.ResponseWindow <= 0 {
		return fmt.Errorf("response window must be positive")
	}

	switch c.RosterSource {
	case RosterStatic:
		if len(c.RosterMembers) == 0 {
			return fmt.Errorf("roster-member is required with the static roster source")
		}
	case RosterFile:
		if c.RosterPath == "" {
			return fmt.Errorf("roster-path is required with the file roster source")
		}
	case RosterDirectory:
	default:
		return fmt.Errorf("unknown roster source %q", c.RosterSource)
	}

	if c.MaxConcurrentSends < 1 {
		return fmt.Errorf("max-concurrent must be at least 1")
	}
	if c.SendsPerSecond <= 0 {
		return fmt.Errorf("sends-per-second must be positive")
	}
	return nil
}

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	return logger
}
