// Package api serves the taxiid HTTP API with huma.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/events"
	"github.com/smazurov/opentaxii-core/internal/logging"
)

const authRealm = "TAXII"

// Options configures a Server.
type Options struct {
	Domain        string
	Services      map[string]string
	Authenticator auth.Authenticator
	// Logs backs GET /api/logs. The route returns an empty list when nil.
	Logs *logging.BufferSink
	// Bus receives an AuthAttemptEvent per authenticated request. Optional.
	Bus *events.Bus
	// PrometheusHandler is mounted on GET /metrics without auth. Optional.
	PrometheusHandler http.Handler
}

// Server is the huma API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	bus        *events.Bus
	logs       *logging.BufferSink
	logger     *slog.Logger

	mu       sync.RWMutex
	authn    auth.Authenticator
	domain   string
	services map[string]string
}

// NewServer creates the server and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("TAXII API", "1.0.0")
	config.Info.Description = "Service directory and diagnostics for a TAXII server"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	s := &Server{
		api:      api,
		mux:      mux,
		bus:      opts.Bus,
		logs:     opts.Logs,
		logger:   logging.GetLogger("api"),
		authn:    opts.Authenticator,
		domain:   opts.Domain,
		services: opts.Services,
	}

	api.UseMiddleware(HTTPLoggingMiddleware)
	api.UseMiddleware(s.basicAuthMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// SetAuthenticator swaps the auth backend used for subsequent requests.
func (s *Server) SetAuthenticator(a auth.Authenticator) {
	s.mu.Lock()
	s.authn = a
	s.mu.Unlock()
}

// SetServices replaces the service directory.
func (s *Server) SetServices(domain string, services map[string]string) {
	s.mu.Lock()
	s.domain = domain
	s.services = services
	s.mu.Unlock()
}

func (s *Server) authenticator() auth.Authenticator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authn
}

// Start listens on addr, calls ready once the socket is bound (if not nil)
// and serves until the server is stopped.
func (s *Server) Start(addr string, ready func()) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("api.listening", "addr", ln.Addr().String(), "docs", "http://"+ln.Addr().String()+"/docs")
	if ready != nil {
		ready()
	}

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down, waiting for in-flight requests until ctx is
// done.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("api.stopping")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// withAuth returns the security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
