// Package server exposes the Workspace agents over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"suiteagent/internal/config"
	"suiteagent/internal/google"
	"suiteagent/internal/timeparse"
	"time"

	"github.com/gorilla/mux"
)

const (
	refreshTokenHeader = "X-Refresh-Token"
	shutdownTimeout    = 10 * time.Second
)

// TokenResolver exchanges refresh tokens for access tokens.
type TokenResolver interface {
	AccessToken(ctx context.Context, refreshToken string) (string, error)
	AccessTokenFor(ctx context.Context, clientID, refreshToken string) (string, error)
}

// ChatClient answers free-form questions.
type ChatClient interface {
	Configured() bool
	ExternalUserID() string
	CreateSession(ctx context.Context) (string, error)
	Ask(ctx context.Context, query string) (string, error)
}

// Server wires the HTTP routes to the Workspace and chat clients.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	tokens TokenResolver
	google *google.Connector
	times  *timeparse.Resolver
	chat   ChatClient
}

// New creates a Server. Nothing is started until Run.
func New(cfg *config.Config, logger *slog.Logger, tokens TokenResolver, connector *google.Connector, times *timeparse.Resolver, chat ChatClient) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		tokens: tokens,
		google: connector,
		times:  times,
		chat:   chat,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/token", s.handleDefaultToken).Methods(http.MethodGet)

	s.calendarRoutes(routeGroup{r, "/calendar"})
	s.docsRoutes(routeGroup{r, "/docs"})
	s.sheetsRoutes(routeGroup{r, "/sheets"})
	s.driveRoutes(routeGroup{r, "/drive"})
	s.slidesRoutes(routeGroup{r, "/slides"})
	s.chatRoutes(routeGroup{r, "/chat"})

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	return s.logRequests(s.recoverPanics(r))
}

// routeGroup registers routes under a prefix directly on the root router.
// Routes of a mux subrouter share the prefix matcher, which clears a method
// mismatch and turns every wrong-method request into a 404.
type routeGroup struct {
	root   *mux.Router
	prefix string
}

func (g routeGroup) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *mux.Route {
	return g.root.HandleFunc(g.prefix+path, f)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{"success": false, "error": "Not found", "details": r.URL.Path})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{"success": false, "error": "Method not allowed", "details": r.Method})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// accessToken resolves the caller's refresh token header to an access token.
func (s *Server) accessToken(r *http.Request) (string, error) {
	refreshToken := strings.TrimSpace(r.Header.Get(refreshTokenHeader))
	if refreshToken == "" {
		return "", invalid(refreshTokenHeader, "%s header is required", refreshTokenHeader)
	}
	token, err := s.tokens.AccessToken(r.Context(), refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to resolve access token: %w", err)
	}
	return token, nil
}
