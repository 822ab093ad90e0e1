// Package api provides an HTTP API for hosts that call the selection engine
// over the network instead of linking it: skill inspection, selection
// sessions, store reloads, and the request schema for integrators.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/contextforge/skillet/pkg/engine"
	"github.com/contextforge/skillet/pkg/logger"
	"github.com/contextforge/skillet/pkg/skills"
	"github.com/contextforge/skillet/pkg/telemetry"
)

// ReloadFunc rebuilds the skill store from its source, typically by
// re-running discovery. It is invoked by POST /api/reload and by the watch
// loop.
type ReloadFunc func(ctx context.Context) error

// Server exposes the selection engine over HTTP.
type Server struct {
	router *mux.Router
	engine *engine.Engine
	reload ReloadFunc
	config *ServerConfig
	server *http.Server
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// NewServer creates an API server over the given engine. reload may be nil,
// in which case POST /api/reload responds 501.
func NewServer(eng *engine.Engine, reload ReloadFunc, config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		engine: eng,
		reload: reload,
		config: config,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/select", s.handleSelect).Methods("POST")
	api.HandleFunc("/schema/select", s.handleSelectSchema).Methods("GET")
	api.HandleFunc("/reload", s.handleReload).Methods("POST")

	s.router.Use(s.loggingMiddleware)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// skillSummary is the list representation of a record; the body is omitted
// to keep listings small.
type skillSummary struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Compatibility string   `json:"compatibility,omitempty"`
	Priority      int      `json:"priority"`
	Tags          []string `json:"tags,omitempty"`
	Requires      []string `json:"requires,omitempty"`
	Size          int      `json:"size"`
}

func summarize(rec *skills.Skill) skillSummary {
	return skillSummary{
		Name:          rec.Name,
		Description:   rec.Description,
		Compatibility: rec.Compatibility,
		Priority:      rec.Priority,
		Tags:          rec.Tags,
		Requires:      rec.Requires,
		Size:          len([]rune(rec.Content)),
	}
}

// handleListSkills handles GET /api/skills.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	snapshot := s.engine.Store().Snapshot()

	summaries := make([]skillSummary, 0, snapshot.Len())
	for _, rec := range snapshot.All() {
		summaries = append(summaries, summarize(rec))
	}

	s.writeJSONResponse(w, map[string]any{"skills": summaries})
}

// handleGetSkill handles GET /api/skills/{name}.
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rec, ok := s.engine.Store().Snapshot().Get(name)
	if !ok {
		s.writeErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("skill %q not found", name), nil)
		return
	}

	summary := summarize(rec)
	s.writeJSONResponse(w, map[string]any{
		"skill":   summary,
		"content": rec.Content,
	})
}

// handleSelect handles POST /api/select.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var result *engine.Result
	err := telemetry.WithSpan(r.Context(), "api.select", func(ctx context.Context) error {
		var err error
		result, err = s.engine.Select(ctx, req)
		return err
	})
	if err != nil {
		var emptyStore *engine.EmptyStoreError
		var invalidBudget *engine.InvalidBudgetError
		switch {
		case errors.As(err, &invalidBudget):
			s.writeErrorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
		case errors.As(err, &emptyStore):
			s.writeErrorResponse(w, r, http.StatusConflict, err.Error(), nil)
		default:
			s.writeErrorResponse(w, r, http.StatusInternalServerError, "selection failed", err)
		}
		return
	}

	s.writeJSONResponse(w, result)
}

// handleSelectSchema handles GET /api/schema/select.
func (s *Server) handleSelectSchema(w http.ResponseWriter, _ *http.Request) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s.writeJSONResponse(w, reflector.Reflect(engine.Request{}))
}

// handleReload handles POST /api/reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		s.writeErrorResponse(w, r, http.StatusNotImplemented, "reload is not configured", nil)
		return
	}

	if err := s.reload(r.Context()); err != nil {
		// the failed load left the prior snapshot intact
		s.writeErrorResponse(w, r, http.StatusUnprocessableEntity, "reload failed", err)
		return
	}

	s.writeJSONResponse(w, map[string]any{
		"success": true,
		"skills":  s.engine.Store().Snapshot().Len(),
	})
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		logger.G(r.Context()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to encode error response")
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	logger.G(ctx).WithField("address", address).Info("starting skillet API server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("API server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
