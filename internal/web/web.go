package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"

	"ducktape/internal/config"
	appLog "ducktape/internal/log"
	"ducktape/internal/pipeline"
)

// maxRequestBody caps /api/parse bodies; inputs are at most 1000 runes.
const maxRequestBody = 16 << 10

// Parser turns one request into a command.
type Parser interface {
	Parse(ctx context.Context, input string) (pipeline.Result, error)
}

// Server is the companion HTTP API: /health and /api/parse.
type Server struct {
	cfg    *config.Config
	parser Parser
	mux    *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, parser Parser) *Server {
	s := &Server{
		cfg:    cfg,
		parser: parser,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes wrapped with Basic Auth (if configured) and
// CORS (if origins are configured).
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	if s.cfg != nil && len(s.cfg.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		})
		h = c.Handler(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
// Preflight requests pass so CORS can answer them.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="ducktape", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/parse", s.handleParse)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type parseRequest struct {
	Input string `json:"input"`
}

// handleParse runs one request through the pipeline.
//
// POST /api/parse {"input": "..."}
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req parseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start := time.Now()
	res, err := s.parser.Parse(r.Context(), req.Input)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			appLog.Error("api parse failed", err, "status", status)
		} else {
			appLog.Info("api parse rejected", "status", status, "reason", err.Error())
		}
		writeError(w, status, err.Error())
		return
	}

	appLog.Info("api parse",
		"family", res.Record.Family.String(),
		"cached", res.Cached,
		"hints", len(res.Hints),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps pipeline errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput),
		errors.Is(err, pipeline.ErrInputTooLong),
		errors.Is(err, pipeline.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnsafeCommand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
