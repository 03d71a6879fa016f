// Package httpserver exposes the engine over HTTP: the platform's event and
// interaction callbacks, a liveness probe, and a manual cycle trigger.
//
// Inbound requests are authenticated with the platform's signing secret
// before anything reaches the core. Interaction callbacks are acknowledged
// within the platform's response window; routing happens afterwards so a
// slow downstream write can never make an interaction look failed to the
// member.
package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/interact"
)

// routeTimeout bounds downstream processing of an already-acknowledged
// interaction.
const routeTimeout = 30 * time.Second

// InteractionRouter routes decoded interaction events. Implemented by
// internal/interact.
type InteractionRouter interface {
	Handle(ctx context.Context, ev interact.Event) (domain.DeliveryRecord, error)
}

// CycleRunner triggers a check-in cycle. Implemented by internal/cycle.
type CycleRunner interface {
	Run(ctx context.Context) (domain.CycleReport, error)
}

// Server is the HTTP receiver.
type Server struct {
	addr          string
	signingSecret string
	router        InteractionRouter
	runner        CycleRunner
	logger        zerolog.Logger

	httpServer *http.Server
}

// New creates the server. The signing secret authenticates every inbound
// platform callback.
func New(addr, signingSecret string, router InteractionRouter, runner CycleRunner, logger zerolog.Logger) *Server {
	s := &Server{
		addr:          addr,
		signingSecret: signingSecret,
		router:        router,
		runner:        runner,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Get("/", s.handleLiveness)
	r.Route("/slack", func(r chi.Router) {
		r.Use(s.verifySignature)
		r.Post("/events", s.handleEvents)
		r.Post("/interactions", s.handleInteractions)
	})
	r.Post("/v1/cycle/run", s.handleRunCycle)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("http server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "rollcall running")
}

// verifySignature authenticates the request with the platform's signed
// header scheme and replays the body for the next handler.
func (s *Server) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		verifier, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
		if err != nil {
			s.logger.Warn().Err(err).Msg("malformed signature headers")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		verifier.Write(body)
		if err := verifier.Ensure(); err != nil {
			s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("signature verification failed")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// handleEvents answers the platform's URL verification handshake and
// acknowledges everything else.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, challenge.Challenge)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleInteractions decodes the interaction payload, acknowledges it
// immediately, and routes it afterwards. Routing outcomes never change the
// response: interactions must always appear successful to the member.
func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &callback); err != nil {
		s.logger.Warn().Err(err).Msg("undecodable interaction payload")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	events := decodeInteraction(callback)

	// Ack first; the platform's response window is independent of how long
	// routing takes.
	w.WriteHeader(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
		defer cancel()
		for _, ev := range events {
			s.route(ctx, ev)
		}
	}()
}

func (s *Server) route(ctx context.Context, ev interact.Event) {
	_, err := s.router.Handle(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnknownDelivery):
		s.logger.Warn().Str("recipient", ev.Recipient()).Str("kind", string(ev.Kind())).Msg("interaction without delivery record ignored")
	case errors.Is(err, domain.ErrAlreadyFinalized):
		s.logger.Info().Str("recipient", ev.Recipient()).Str("kind", string(ev.Kind())).Msg("interaction for finalized record ignored")
	default:
		s.logger.Error().Err(err).Str("recipient", ev.Recipient()).Msg("interaction routing failed")
	}
}

// handleRunCycle is the manual trigger. A cycle already in flight yields
// 409; a roster failure yields 502; success returns the cycle report.
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Run(r.Context())
	switch {
	case errors.Is(err, domain.ErrCycleInProgress):
		http.Error(w, "cycle already running", http.StatusConflict)
		return
	case errors.Is(err, domain.ErrRosterUnavailable):
		http.Error(w, "roster unavailable", http.StatusBadGateway)
		return
	case err != nil:
		http.Error(w, "cycle failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reportBody{
		CycleID: report.CycleID,
		Sent:    report.Sent,
		Failed:  failedIDs(report.Failed),
	})
}

type reportBody struct {
	CycleID string   `json:"cycle_id"`
	Sent    []string `json:"sent"`
	Failed  []string `json:"failed"`
}

func failedIDs(failures []domain.DispatchError) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.RecipientID)
	}
	return out
}
