package api

import (
	"errors"
	"net/http"

	"github.com/movitransit/movi/internal/chat"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/speech"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// Config wires the API surface. Speech is optional: without it the voice
// endpoints answer 503 and chat turns are text only. DB overrides the
// readiness probe target and defaults to the transit store's connection.
type Config struct {
	Logger   log.Logger
	Flow     *chat.Flow
	Agent    *chat.Agent
	Sessions *session.Store
	Store    *transit.Store
	Fleet    *tools.FleetToolset
	Speech   *speech.Service
	DB       Pinger

	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS, which is right for same-origin deployments.
	CORSOrigins []string

	// TrustProxy enables client IP resolution from X-Real-IP and
	// X-Forwarded-For. Only set behind a proxy that strips those.
	TrustProxy bool

	// RateLimitRPS and RateLimitBurst shape the per-client limiter.
	// Zero values fall back to 1 rps with a burst of 60.
	RateLimitRPS   float64
	RateLimitBurst int

	// SpeakReplies makes chat turns carry synthesized audio by default.
	// Individual requests can override it either way.
	SpeakReplies bool
}

func (cfg Config) validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Flow == nil {
		return errors.New("chat flow is required")
	}
	if cfg.Agent == nil {
		return errors.New("chat agent is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Store == nil {
		return errors.New("transit store is required")
	}
	if cfg.Fleet == nil {
		return errors.New("fleet toolset is required")
	}
	return nil
}

// Server is the assembled API handler. It does not own an http.Server;
// the web server mounts it next to the admin pages.
type Server struct {
	handler http.Handler
	logger  log.Logger
}

// NewServer builds the route table and middleware chain.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	chatH := &chatHandler{
		flow:         cfg.Flow,
		agent:        cfg.Agent,
		sessions:     cfg.Sessions,
		speech:       cfg.Speech,
		speakReplies: cfg.SpeakReplies,
		logger:       cfg.Logger,
	}
	speechH := &speechHandler{service: cfg.Speech, logger: cfg.Logger}
	transitH := &transitHandler{store: cfg.Store, fleet: cfg.Fleet, logger: cfg.Logger}
	sessionH := &sessionHandler{sessions: cfg.Sessions, logger: cfg.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", chatH.handleSend)
	mux.HandleFunc("POST /api/v1/chat/confirm", chatH.handleConfirm)

	mux.HandleFunc("POST /api/v1/speech/transcriptions", speechH.handleTranscribe)
	mux.HandleFunc("POST /api/v1/speech/speech", speechH.handleSynthesize)

	mux.HandleFunc("GET /api/v1/dashboard", transitH.handleDashboard)
	mux.HandleFunc("GET /api/v1/routes", transitH.handleRoutes)
	mux.HandleFunc("POST /api/v1/routes", transitH.handleCreateRoute)
	mux.HandleFunc("GET /api/v1/stops", transitH.handleStops)
	mux.HandleFunc("POST /api/v1/stops", transitH.handleCreateStop)
	mux.HandleFunc("GET /api/v1/paths", transitH.handlePaths)
	mux.HandleFunc("POST /api/v1/paths", transitH.handleCreatePath)
	mux.HandleFunc("GET /api/v1/fleet/unassigned", transitH.handleUnassigned)
	mux.HandleFunc("POST /api/v1/deployments", transitH.handleCreateDeployment)
	mux.HandleFunc("DELETE /api/v1/deployments/{trip}", transitH.handleRemoveDeployment)

	mux.HandleFunc("GET /api/v1/sessions", sessionH.handleList)
	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", sessionH.handleMessages)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", sessionH.handleDelete)

	limiter := newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = mux
	handler = limiter.middleware(cfg.TrustProxy, cfg.Logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(cfg.Logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(cfg.Logger)(handler)
	handler = setSecurityHeaders(handler)

	db := cfg.DB
	if db == nil {
		db = cfg.Store.DB()
	}

	// Health probes skip the chain: a kubelet hitting /healthz every few
	// seconds should not burn rate limit budget or spam the access log.
	top := http.NewServeMux()
	top.HandleFunc("GET /healthz", handleHealth(cfg.Logger))
	top.HandleFunc("GET /readyz", handleReady(db, cfg.Logger))
	top.Handle("/", handler)

	return &Server{handler: top, logger: cfg.Logger}, nil
}

// Handler returns the routable handler, health probes included.
func (s *Server) Handler() http.Handler {
	return s.handler
}
