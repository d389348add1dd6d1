package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/dashboard"
	"finitefield.org/c360-builder/internal/httpserver/api"
	custommw "finitefield.org/c360-builder/internal/httpserver/middleware"
	"finitefield.org/c360-builder/internal/httpserver/ui"
	"finitefield.org/c360-builder/internal/platform/httpx"
	"finitefield.org/c360-builder/internal/platform/observability"
	"finitefield.org/c360-builder/public"
)

const (
	defaultRequestTimeout = 20 * time.Second
	apiPrefix             = "/api/v1"
	// formOverhead covers form encoding of the use case plus the CSRF field.
	formOverhead = 1024
)

// Config holds runtime options for the dashboard HTTP server.
type Config struct {
	Address          string
	BasePath         string
	Service          dashboard.Service
	Logger           *zap.Logger
	CSRFCookieName   string
	CSRFCookiePath   string
	CSRFCookieSecure bool
	CSRFHeaderName   string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	StartedAt        time.Time
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	service := cfg.Service
	if service == nil {
		service = dashboard.NewDefaultService()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.TraceMiddleware())
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(chimw.Timeout(defaultRequestTimeout))

	basePath := normalizeBasePath(cfg.BasePath)

	staticContent, err := public.StaticFS()
	if err != nil {
		logger.Fatal("embed static", zap.Error(err))
	}
	staticPrefix := joinBase(basePath, "/static/")
	router.Handle(staticPrefix+"*", http.StripPrefix(staticPrefix, http.FileServer(http.FS(staticContent))))

	health := api.NewHealthHandlers(api.WithHealthStartedAt(cfg.StartedAt))
	router.Get("/healthz", health.Healthz)

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		CookiePath: firstNonEmpty(cfg.CSRFCookiePath, basePath),
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CSRFCookieSecure,
	}

	mountDashboardRoutes(router, basePath, routeOptions{
		Service:    service,
		CSRF:       csrfCfg,
		StaticBase: strings.TrimSuffix(staticPrefix, "/"),
	})
	mountAPIRoutes(router, joinBase(basePath, apiPrefix), service)

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
		ErrorLog:     zap.NewStdLog(logger),
	}
}

type routeOptions struct {
	Service    dashboard.Service
	CSRF       custommw.CSRFConfig
	StaticBase string
}

func mountDashboardRoutes(router chi.Router, base string, opts routeOptions) {
	runPath := joinBase(base, "/runs")
	handlers := ui.NewHandlers(ui.Dependencies{
		Service:     opts.Service,
		RunEndpoint: runPath,
		StaticBase:  opts.StaticBase,
		CSRF:        opts.CSRF,
	})

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.LimitBody(int64(4*opts.Service.Limit() + formOverhead)))
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get(base, handlers.Dashboard)
		if base != "/" {
			r.Get(base+"/", handlers.Dashboard)
		}
		r.Post(runPath, handlers.Run)
	})
}

func mountAPIRoutes(router chi.Router, prefix string, service dashboard.Service) {
	router.Route(prefix, func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
			httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
		})
		api.NewRunHandlers(service).Routes(r)
	})
}

func normalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func joinBase(base, suffix string) string {
	if base == "/" {
		return suffix
	}
	return base + suffix
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
