// Package rollcall provides a check-in workflow engine for Slack teams.
//
// On a recurring calendar schedule (or a manual trigger) the engine resolves
// a roster of members, sends each one an interactive prompt, tracks every
// prompt's response lifecycle, and retracts prompts left unanswered past a
// configurable deadline.
//
// Example usage:
//
//	cfg := rollcall.DefaultConfig()
//	cfg.RosterSource = "static"
//	cfg.RosterMembers = []string{"U0123456789"}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := rollcall.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Credentials (SLACK_BOT_TOKEN, SLACK_SIGNING_SECRET) are read from the
// environment unless set on the Config.
package rollcall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/adapters/secrets"
	"github.com/bft-labs/rollcall/internal/app"
	"github.com/bft-labs/rollcall/internal/cliconfig"
)

// Config holds the configuration for the check-in engine.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Run starts the engine with the given configuration.
// It blocks until the context is cancelled or startup fails.
func Run(ctx context.Context, cfg Config) error {
	a, err := app.New(cfg, secrets.NewEnv(), cliconfig.Logger())
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// Logger returns the package-level zerolog logger used by the engine.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}
