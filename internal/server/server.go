// Package server exposes the analysis engine over HTTP for dashboards and
// automation. The API is read/analyze only; registry edits stay on disk.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/taskgate/taskgate/internal/engine"
	"github.com/taskgate/taskgate/internal/policy"
	"github.com/taskgate/taskgate/store"
)

// Server wraps the engine and optional collaborators behind a net/http mux.
type Server struct {
	engine  *engine.Engine
	store   store.AnalysisStore
	policy  *policy.Engine
	origins map[string]struct{}
	port    int
	version string
	server  *http.Server
}

// Options configures optional collaborators. Store and Policy may be nil;
// the related endpoints then report their absence instead of failing.
type Options struct {
	Store   store.AnalysisStore
	Policy  *policy.Engine
	Origins []string
	Version string
}

// New builds a server on the given port.
func New(eng *engine.Engine, port int, opts Options) *Server {
	s := &Server{
		engine:  eng,
		store:   opts.Store,
		policy:  opts.Policy,
		origins: make(map[string]struct{}, len(opts.Origins)),
		port:    port,
		version: opts.Version,
	}
	for _, origin := range opts.Origins {
		s.origins[origin] = struct{}{}
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.registerRoutes(),
	}
	return s
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in a goroutine tracked by wg, reporting fatal errors on
// errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
