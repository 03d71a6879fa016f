// Package app assembles the check-in engine: it resolves secrets, constructs
// every component against its ports, and runs the scheduler and HTTP
// receiver until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/adapters/httpserver"
	"github.com/bft-labs/rollcall/internal/adapters/slackapi"
	"github.com/bft-labs/rollcall/internal/cliconfig"
	"github.com/bft-labs/rollcall/internal/cycle"
	"github.com/bft-labs/rollcall/internal/dispatch"
	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/expiry"
	"github.com/bft-labs/rollcall/internal/interact"
	"github.com/bft-labs/rollcall/internal/ports"
	"github.com/bft-labs/rollcall/internal/roster"
	"github.com/bft-labs/rollcall/internal/store"
)

// Interaction identifiers shared between the outbound prompt and the inbound
// event routing. The platform echoes these back verbatim.
const (
	actionOpenForm = "checkin_open_form"
	actionConfirm  = "checkin_confirm"
	formCallbackID = "weekly_checkin"
	fieldNote      = "checkin_note"
)

// App is the assembled process.
type App struct {
	cfg    cliconfig.Config
	logger zerolog.Logger

	rosterFile *roster.File
	scheduler  *cycle.Scheduler
	expiry     *expiry.Manager
	server     *httpserver.Server
}

// New wires the engine from configuration. Credentials missing from cfg are
// resolved through the secret store; this is the only point in the process
// that touches secrets.
func New(cfg cliconfig.Config, secretStore ports.SecretStore, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if cfg.BotToken == "" {
		token, err := secretStore.Get(cliconfig.SecretBotToken)
		if err != nil {
			return nil, fmt.Errorf("resolve bot token: %w", err)
		}
		cfg.BotToken = token
	}
	if cfg.SigningSecret == "" {
		secret, err := secretStore.Get(cliconfig.SecretSigningSecret)
		if err != nil {
			return nil, fmt.Errorf("resolve signing secret: %w", err)
		}
		cfg.SigningSecret = secret
	}

	client := slackapi.New(cfg.BotToken, logger)
	deliveries := store.NewMemory()
	expiryMgr := expiry.NewManager(client, deliveries, logger)

	dispatcher := dispatch.New(dispatch.Config{
		MaxConcurrent:  cfg.MaxConcurrentSends,
		SendsPerSecond: cfg.SendsPerSecond,
		SendBurst:      cfg.SendBurst,
		MaxAttempts:    cfg.SendAttempts,
	}, client, deliveries, expiryMgr, logger)

	app := &App{cfg: cfg, logger: logger, expiry: expiryMgr}

	var provider roster.Provider
	switch cfg.RosterSource {
	case cliconfig.RosterStatic:
		provider = roster.NewStatic(cfg.RosterMembers)
	case cliconfig.RosterFile:
		app.rosterFile = roster.NewFile(cfg.RosterPath, logger)
		provider = app.rosterFile
	case cliconfig.RosterDirectory:
		provider = roster.NewDirectory(client)
	default:
		return nil, fmt.Errorf("%w: unknown roster source %q", domain.ErrInvalidConfig, cfg.RosterSource)
	}

	prompt := domain.Prompt{
		Text:        cfg.PromptText,
		ButtonLabel: cfg.ButtonLabel,
		ActionID:    actionOpenForm,
	}
	form := domain.FormSpec{
		CallbackID:  formCallbackID,
		Title:       cfg.FormTitle,
		SubmitLabel: "Submit",
		Fields: []domain.FormField{{
			ID:          fieldNote,
			Label:       "How is your week going?",
			Placeholder: "Wins, blockers, anything on your mind",
			Multiline:   true,
		}},
	}

	runner := cycle.NewRunner(provider, dispatcher, deliveries, expiryMgr, prompt, cfg.ResponseWindow, logger)

	scheduler, err := cycle.NewScheduler(cfg.Schedule, runner, logger)
	if err != nil {
		return nil, err
	}
	app.scheduler = scheduler

	router := interact.New(interact.Config{
		ConfirmActionID:  actionConfirm,
		OpenFormActionID: actionOpenForm,
		Form:             form,
	}, deliveries, client, expiryMgr, logger)

	app.server = httpserver.New(cfg.ListenAddr, cfg.SigningSecret, router, runner, logger)
	return app, nil
}

// Run serves until ctx is cancelled. The calendar scheduler and, for the
// file roster source, the roster watcher run alongside the HTTP receiver.
func (a *App) Run(ctx context.Context) error {
	if a.rosterFile != nil {
		if err := a.rosterFile.Watch(ctx); err != nil {
			return fmt.Errorf("watch roster: %w", err)
		}
		defer a.rosterFile.Close()
	}

	a.scheduler.Start()
	defer a.scheduler.Stop()
	defer a.expiry.Stop()

	a.logger.Info().
		Str("schedule", a.cfg.Schedule).
		Str("roster", a.cfg.RosterSource).
		Dur("window", a.cfg.ResponseWindow).
		Msg("rollcall started")

	if err := a.server.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
