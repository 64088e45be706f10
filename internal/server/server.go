// Package server runs the loopback HTTP server that completes the OAuth2
// authorization code flow for the CLI.
//
// `splay auth login` opens the authorization URL in a browser, starts a
// [CallbackServer] on the redirect URI's host, and waits for the provider to
// redirect back with a code. The [OAuthHandler] validates the state
// parameter, exchanges the code for a token, and delivers exactly one
// [OAuthResult] before the server shuts down.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/splay/internal/shared"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// WithLogging logs each request's method, path, and duration.
func WithLogging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("handled request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// CallbackServer is a short-lived HTTP server bound to the OAuth redirect URI.
type CallbackServer struct {
	srv     *http.Server
	handler *OAuthHandler
	logger  *log.Logger
}

// NewCallbackServer builds a server for handler listening on redirectURI's
// host and serving its path. The redirect URI must be a loopback address
// registered with the provider, e.g. http://localhost:8080/callback.
func NewCallbackServer(handler *OAuthHandler, redirectURI string, logger *log.Logger) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redirect URI %q has no host: %w", redirectURI, shared.ErrInvalidConfig)
	}

	path := u.Path
	if path == "" {
		path = "/callback"
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	mux := http.NewServeMux()
	mux.Handle(path, WithLogging(logger)(handler))

	return &CallbackServer{
		srv:     &http.Server{Addr: u.Host, Handler: mux},
		handler: handler,
		logger:  logger,
	}, nil
}

// Start begins serving in a goroutine. Listen failures surface through Wait.
func (s *CallbackServer) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server failed", "addr", s.srv.Addr, "error", err)
			s.handler.deliver(OAuthResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
}

// Wait blocks until the OAuth flow delivers a result or ctx expires, then
// shuts the server down either way.
func (s *CallbackServer) Wait(ctx context.Context) (OAuthResult, error) {
	defer s.Shutdown()

	select {
	case result, ok := <-s.handler.Result():
		if !ok {
			return OAuthResult{}, fmt.Errorf("callback channel closed without a result")
		}
		return result, result.Error()
	case <-ctx.Done():
		return OAuthResult{}, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

// Shutdown stops the server, giving in-flight responses a moment to finish.
func (s *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("callback server shutdown", "error", err)
	}
}
