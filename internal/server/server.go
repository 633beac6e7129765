// Package server exposes an engine over a small HTTP/JSON API. It is a
// thin adapter: every semantic lives in pkg/engine, and the JSON shapes
// mirror the engine's export format.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/thewizster/mysse/pkg/engine"
)

// Server wires an engine into an HTTP router.
type Server struct {
	engine *engine.Engine
	router *mux.Router
	log    engine.Logger
}

// New creates a server around an existing engine.
func New(eng *engine.Engine, log engine.Logger) *Server {
	if log == nil {
		log = engine.NopLogger()
	}
	s := &Server{engine: eng, log: log}
	s.router = s.routes()
	return s
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/documents", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/clear", s.handleClear).Methods(http.MethodPost)
	r.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/powers", s.handlePowers).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return r
}

// loggingMiddleware logs request method, path, and latency.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
