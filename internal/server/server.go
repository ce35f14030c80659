// Package server provides the HTTP server for the mudra gesture interface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

const (
	defaultBroadcastHz = 15
	shutdownTimeout    = 5 * time.Second
)

// Backend is the running application as seen by the HTTP layer.
type Backend interface {
	api.Settings
	Snapshot() app.Snapshot
	Scene() render.Scene
	Subscribe() (<-chan dwell.Activation, func())
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Backend   Backend
	// BroadcastHz caps state pushes per websocket client.
	BroadcastHz   float64
	PreviewWidth  int
	PreviewHeight int
	Log           logrus.FieldLogger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	state  *StateHandler
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Log == nil {
		config.Log = logrus.StandardLogger()
	}
	if config.BroadcastHz <= 0 {
		config.BroadcastHz = defaultBroadcastHz
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    config.Log,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		activations := api.NewActivationHandler(s.config.Store)
		s.mux.Handle("/api/activations", activations)
		s.mux.Handle("/api/activations/", activations)
	}

	if b := s.config.Backend; b != nil {
		settings := api.NewSettingsHandler(b)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)

		s.state = NewStateHandler(b, s.config.BroadcastHz, s.log)
		s.mux.Handle("/api/state/ws", s.state)
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
		s.mux.Handle("/api/preview", NewPreviewHandler(b, s.config.PreviewWidth, s.config.PreviewHeight))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if b := s.config.Backend; b != nil {
		response["enabled"] = b.IsEnabled()
		response["frame"] = b.Snapshot().Frame
	}
	writeJSON(w, http.StatusOK, response)
}

// handleState handles GET requests to /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.Backend.Snapshot())
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled reads or sets whether frames are processed.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	b := s.config.Backend
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var body enabledBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"enabled\": bool}"})
			return
		}
		b.SetEnabled(*body.Enabled)
		s.log.WithField("enabled", *body.Enabled).Info("Processing toggled")
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": b.IsEnabled()})
}

// Run pushes state to websocket clients until ctx is done.
func (s *Server) Run(ctx context.Context) {
	if s.state == nil {
		return
	}
	s.state.Run(ctx)
}

// ListenAndServe serves on addr and broadcasts state until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	s.state.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
