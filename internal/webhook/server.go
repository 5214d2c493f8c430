package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/slashgw/internal/interaction"
	"github.com/mattjoyce/slashgw/internal/storage"
)

// Server represents the interactions HTTP server.
type Server struct {
	config     Config
	verifier   *Verifier
	dispatcher Dispatcher
	recorder   Recorder
	logger     *slog.Logger
	server     *http.Server
	startedAt  time.Time
}

// New creates a new webhook server instance. recorder may be nil, in which
// case no audit trail is kept and /admin/interactions is not served.
func New(config Config, verifier *Verifier, dispatcher Dispatcher, recorder Recorder, logger *slog.Logger) *Server {
	if config.EntryPath == "" {
		config.EntryPath = DefaultEntryPath
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}

	return &Server{
		config:     config,
		verifier:   verifier,
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// Start binds the listener and serves until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("webhook server listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled (blocking).
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", ln.Addr().String(), "entry_path", s.config.EntryPath)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.With(middleware.Timeout(s.config.RequestTimeout)).Post(s.config.EntryPath, s.handleEntry)

	if s.config.Admin.Enabled {
		r.Route("/admin", s.adminRoutes)
	}

	return r
}

// loggingMiddleware logs HTTP requests (excludes bodies and signatures).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleEntry verifies, parses, and dispatches one interaction.
// Verification happens on the raw body before any JSON is parsed.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if err := s.verifier.VerifyRequest(r.Header, body); err != nil {
		s.logger.Warn("interaction signature rejected",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(ctx),
			"error", err,
		)
		s.respondError(w, http.StatusUnauthorized, publicMessage(interaction.KindUnauthenticated))
		return
	}

	env, err := interaction.DecodeEnvelope(body)
	if err != nil {
		s.fail(ctx, w, nil, err)
		return
	}

	resp, err := s.dispatcher.Dispatch(ctx, env)
	if err != nil {
		s.fail(ctx, w, env, err)
		return
	}

	var buf bytes.Buffer
	if err := interaction.EncodeResponse(&buf, resp); err != nil {
		s.fail(ctx, w, env, err)
		return
	}

	s.record(ctx, env, http.StatusOK, "")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// fail maps err to its status code and writes a generic error body.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, env *interaction.Envelope, err error) {
	kind := interaction.KindOf(err)
	status := kind.HTTPStatus()

	attrs := []any{
		"kind", kind.String(),
		"status", status,
		"request_id", middleware.GetReqID(ctx),
		"error", err,
	}
	if env != nil && env.ID != "" {
		attrs = append(attrs, "interaction_id", env.ID)
	}
	if name := env.CommandName(); name != "" {
		attrs = append(attrs, "command", name)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("interaction failed", attrs...)
	} else {
		s.logger.Warn("interaction rejected", attrs...)
	}

	s.record(ctx, env, status, kind.String())
	s.respondError(w, status, publicMessage(kind))
}

// record writes an audit entry. Failures are logged and never change the reply.
func (s *Server) record(ctx context.Context, env *interaction.Envelope, status int, errKind string) {
	if s.recorder == nil {
		return
	}
	rec := storage.Record{Status: status, ErrorKind: errKind}
	if env != nil {
		rec.InteractionID = env.ID
		rec.Type = int(env.Type)
		rec.Command = env.CommandName()
	}
	// The audit write must not be cut short by the request timeout.
	if err := s.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("failed to record interaction", "error", err)
	}
}

func publicMessage(kind interaction.Kind) string {
	switch kind {
	case interaction.KindUnauthenticated:
		return "unauthorized"
	case interaction.KindMalformedPayload:
		return "malformed interaction payload"
	case interaction.KindUnknownCommand:
		return "unknown command"
	case interaction.KindUnsupportedInteraction:
		return "unsupported interaction type"
	default:
		return "internal error"
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		Commands:      len(s.dispatcher.Definitions()),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
