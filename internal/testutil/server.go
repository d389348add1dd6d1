package testutil

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/dashboard"
	"finitefield.org/c360-builder/internal/httpserver"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithBasePath sets a custom base path for the dashboard routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithService wires a custom dashboard service implementation.
func WithService(service dashboard.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Service = service
	}
}

// NewServer constructs an httptest server running the dashboard HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:        ":0",
		BasePath:       "/",
		CSRFCookieName: "c360_csrf",
		CSRFHeaderName: "X-CSRF-Token",
		Service:        dashboard.NewDefaultService(),
		Logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv := httpserver.New(cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
