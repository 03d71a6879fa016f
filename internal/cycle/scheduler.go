package cycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/domain"
)

// Scheduler fires cycles on a recurring calendar schedule (standard 5-field
// cron expressions, e.g. "0 9 * * 1" for Mondays at 09:00).
type Scheduler struct {
	runner *Runner
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewScheduler creates a scheduler that triggers runner on the given cron
// expression. The expression is validated here; Start cannot fail.
func NewScheduler(spec string, runner *Runner, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		runner: runner,
		cron:   cron.New(),
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %v", domain.ErrInvalidConfig, spec, err)
	}
	return s, nil
}

// Start begins firing scheduled cycles.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for an in-flight trigger callback to
// return. A running cycle itself is not interrupted.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) fire() {
	report, err := s.runner.Run(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrCycleInProgress) {
			s.logger.Warn().Msg("scheduled trigger skipped, cycle already running")
			return
		}
		s.logger.Error().Err(err).Msg("scheduled cycle failed")
		return
	}
	s.logger.Info().
		Str("cycle", report.CycleID).
		Int("sent", len(report.Sent)).
		Int("failed", len(report.Failed)).
		Msg("scheduled cycle complete")
}
