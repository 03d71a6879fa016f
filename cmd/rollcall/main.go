package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/rollcall/internal/adapters/secrets"
	"github.com/bft-labs/rollcall/internal/app"
	"github.com/bft-labs/rollcall/internal/cliconfig"
)

const helpDescription = `
Periodic check-ins for your Slack team without the nagging.

Highlights:
  - Messages every roster member an interactive prompt on a cron schedule.
  - Tracks each prompt from sent through acknowledged, submitted, or expired.
  - Retracts prompts left unanswered past the response window.
  - Roster from a static list, a watched TOML file, or the workspace directory.

Secrets are read from SLACK_BOT_TOKEN and SLACK_SIGNING_SECRET.
`

var exampleUsage = strings.TrimSpace(`
  rollcall --roster-source directory --schedule "0 9 * * 1"
  rollcall --roster-source static --roster-member U0123456789 --response-window 48h
  rollcall --config $HOME/.rollcall/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "rollcall",
		Short:   "Periodic check-ins for your Slack team",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.rollcall/config.toml),
			// then apply env and flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (ROLLCALL_*) override file config but are
			// overridden by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration; secrets never appear in cfg at this point,
			// they are resolved inside app.New.
			log.Info().Interface("config", cfg).Msg("configuration")

			engine, err := app.New(cfg, secrets.NewEnv(), log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return engine.Run(ctx)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to TOML config file (default $HOME/.rollcall/config.toml)")
	flags.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "HTTP listen address")
	flags.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "cron expression for the check-in cycle")
	flags.DurationVar(&cfg.ResponseWindow, "response-window", cfg.ResponseWindow, "how long prompts stay answerable")
	flags.StringVar(&cfg.RosterSource, "roster-source", cfg.RosterSource, "roster source: static, file, or directory")
	flags.StringSliceVar(&cfg.RosterMembers, "roster-member", cfg.RosterMembers, "member ID for the static roster (repeatable)")
	flags.StringVar(&cfg.RosterPath, "roster-path", cfg.RosterPath, "path to the TOML roster file")
	flags.IntVar(&cfg.MaxConcurrentSends, "max-concurrent", cfg.MaxConcurrentSends, "max in-flight sends per cycle")
	flags.Float64Var(&cfg.SendsPerSecond, "sends-per-second", cfg.SendsPerSecond, "sustained outbound call rate")
	flags.IntVar(&cfg.SendBurst, "send-burst", cfg.SendBurst, "rate limiter burst size")
	flags.IntVar(&cfg.SendAttempts, "send-attempts", cfg.SendAttempts, "max attempts per throttled send")
	flags.StringVar(&cfg.PromptText, "prompt-text", cfg.PromptText, "prompt message body")
	flags.StringVar(&cfg.ButtonLabel, "button-label", cfg.ButtonLabel, "prompt button label")
	flags.StringVar(&cfg.FormTitle, "form-title", cfg.FormTitle, "check-in form title")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("rollcall exited with error")
		os.Exit(1)
	}
}
