// Package control exposes the inspection daemon to the outside: a small
// chi HTTP API and optional MCP tools, both funnelling through the same
// command router.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/domspect/internal/command"
	"github.com/hazyhaar/domspect/internal/config"
	"github.com/hazyhaar/domspect/internal/sink"
)

// Server serves the control API.
type Server struct {
	cmds   *command.Router
	last   func() *sink.Record
	cfg    config.ControlConfig
	logger *slog.Logger
}

// New creates a control Server. last may be nil when no inspector is
// attached yet.
func New(cmds *command.Router, last func() *sink.Record, cfg config.ControlConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cmds: cmds, last: last, cfg: cfg, logger: logger}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Post("/api/command/{name}", s.handleCommand)
		r.Post("/api/ping", s.dispatch("ping"))
		r.Post("/api/scan/toggle", s.dispatch("toggleScan"))
		r.Get("/api/scan/status", s.dispatch("getScanStatus"))
		r.Get("/api/inspect/last", s.handleLast)
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("control: listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// requireToken enforces a bearer token when a hash is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.TokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" ||
			bcrypt.CompareHashAndPassword([]byte(s.cfg.TokenHash), []byte(token)) != nil {
			writeJSON(w, 401, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}
	s.run(w, r, name, payload)
}

func (s *Server) dispatch(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.run(w, r, name, nil)
	}
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, name string, payload []byte) {
	out, err := s.cmds.Dispatch(r.Context(), name, payload)
	if err != nil {
		var unknown *command.ErrUnknownCommand
		if errors.As(err, &unknown) {
			writeJSON(w, 404, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, 500, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(out)
}

func (s *Server) handleLast(w http.ResponseWriter, _ *http.Request) {
	if s.last == nil {
		writeJSON(w, 404, map[string]string{"error": "no inspector attached"})
		return
	}
	rec := s.last()
	if rec == nil {
		writeJSON(w, 404, map[string]string{"error": "nothing pinned yet"})
		return
	}
	writeJSON(w, 200, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
