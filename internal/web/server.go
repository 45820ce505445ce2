// Package web provides the HTTP status server for the hub.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/diy-hub/internal/metrics"
	"github.com/sweeney/diy-hub/internal/status"
)

// Server serves the status page, its JSON form and Prometheus metrics.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from tracker. When m is nil the
// /metrics endpoint is not registered.
func New(addr string, tracker *status.Tracker, m *metrics.Metrics) *Server {
	s := &Server{tracker: tracker}

	instrument := func(_ string, h http.Handler) http.Handler { return h }
	if m != nil {
		instrument = m.Instrument
	}

	mux := http.NewServeMux()
	mux.Handle("/", instrument("index", http.HandlerFunc(s.handleIndex)))
	mux.Handle("/index.html", instrument("index", http.HandlerFunc(s.handleIndex)))
	mux.Handle("/index.json", instrument("json", http.HandlerFunc(s.handleJSON)))
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
