// Package web serves the Movi operator console: the busDashboard and
// manageRoute pages rendered straight from the transit store, with the
// assistant panel talking to the mounted JSON API.
package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/transit"
	"github.com/movitransit/movi/internal/web/static"
)

// Config wires the console. API is the handler from internal/api; it is
// mounted untouched so API traffic is logged and rate limited exactly
// once, by its own middleware chain.
type Config struct {
	Logger log.Logger
	Store  *transit.Store
	API    http.Handler
}

func (cfg Config) validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("transit store is required")
	}
	if cfg.API == nil {
		return errors.New("api handler is required")
	}
	return nil
}

// Server is the console handler. Like the API server it does not own an
// http.Server; cmd/serve listens and shuts down.
type Server struct {
	mux   *http.ServeMux
	pages http.Handler
}

// NewServer parses the embedded templates and builds the route table.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p, err := newPages(cfg.Logger, cfg.Store)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	mux.HandleFunc("GET /dashboard", p.dashboard)
	mux.HandleFunc("GET /routes", p.routes)
	mux.Handle("GET /static/", http.StripPrefix("/static/", static.Handler()))

	mux.Handle("/api/", cfg.API)
	mux.Handle("/healthz", cfg.API)
	mux.Handle("/readyz", cfg.API)

	return &Server{
		mux:   mux,
		pages: recoveryMiddleware(cfg.Logger)(loggingMiddleware(cfg.Logger)(mux)),
	}, nil
}

// ServeHTTP routes API-bound requests to the mux directly and wraps
// everything else in the page middleware and security headers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if apiBound(r.URL.Path) {
		s.mux.ServeHTTP(w, r)
		return
	}

	setSecurityHeaders(w)
	s.pages.ServeHTTP(w, r)
}

func apiBound(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/healthz" || path == "/readyz"
}

// setSecurityHeaders applies the console CSP. The chat panel script is a
// static file so script-src stays 'self'; img-src allows data: URLs for
// the screenshot preview and media-src for synthesized replies.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; script-src 'self'; style-src 'self'; "+
			"connect-src 'self'; img-src 'self' data:; media-src 'self' data:")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// Handler returns the server for mounting.
func (s *Server) Handler() http.Handler {
	return s
}
