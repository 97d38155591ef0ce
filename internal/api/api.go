// Package api provides the HTTP server for PitchIQ.
//
// It exposes JSON endpoints for conversation state tracking, persona and
// fear generation, and Sam onboarding analysis. Every response uses the
// {status, message, result} envelope from the models package.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Conversations manages conversation sessions.
type Conversations interface {
	Start(ctx context.Context, req models.StartConversationRequest) (models.ConversationRecord, error)
	AppendTurns(ctx context.Context, id string, turns []models.Turn) (models.ConversationRecord, error)
	Get(ctx context.Context, id string) (models.ConversationRecord, error)
	Prompt(ctx context.Context, id string) (string, error)
	End(ctx context.Context, id string) error
	Len() int
}

// PersonaGenerator produces buyer personas and reports on their diversity.
type PersonaGenerator interface {
	Generate(ctx context.Context, req models.PersonaRequest) models.PersonaFramework
	BiasReport(window int) models.BiasReport
}

// FearGenerator produces product-specific buyer fears.
type FearGenerator interface {
	Generate(productService string, ctx models.FearContext, personalSituation string) models.ContextualFears
}

// SamAnalyzer attributes speakers in Sam onboarding transcripts.
type SamAnalyzer interface {
	Analyze(conversation []string) models.SamAnalysis
}

// Opts holds configuration for the API server.
type Opts struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ShutdownTimeout = d }
}

// Server serves the PitchIQ API.
type Server struct {
	conversations Conversations
	personas      PersonaGenerator
	fears         FearGenerator
	sam           SamAnalyzer

	addr            string
	shutdownTimeout time.Duration
	startedAt       time.Time
}

// NewServer creates a server over the given engine components.
func NewServer(conversations Conversations, personas PersonaGenerator, fears FearGenerator, sam SamAnalyzer, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, ShutdownTimeout: DefaultShutdownTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		conversations:   conversations,
		personas:        personas,
		fears:           fears,
		sam:             sam,
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		startedAt:       time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /conversations", s.startConversationHandler)
	mux.HandleFunc("GET /conversations/{id}", s.getConversationHandler)
	mux.HandleFunc("POST /conversations/{id}/turns", s.appendTurnsHandler)
	mux.HandleFunc("GET /conversations/{id}/prompt", s.promptHandler)
	mux.HandleFunc("DELETE /conversations/{id}", s.endConversationHandler)

	mux.HandleFunc("POST /personas", s.generatePersonaHandler)
	mux.HandleFunc("GET /personas/bias-report", s.biasReportHandler)
	mux.HandleFunc("POST /fears", s.generateFearsHandler)
	mux.HandleFunc("POST /sam/analyze", s.samAnalyzeHandler)

	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Serve: API listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	slog.Info("Server.Serve: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
