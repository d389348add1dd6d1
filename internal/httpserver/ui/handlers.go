package ui

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/dashboard"
	custommw "finitefield.org/c360-builder/internal/httpserver/middleware"
	"finitefield.org/c360-builder/internal/platform/observability"
	"finitefield.org/c360-builder/internal/platform/requestctx"
	"finitefield.org/c360-builder/internal/templates"
)

const useCaseField = "use_case"

// Dependencies collects what the UI handlers need.
type Dependencies struct {
	Service     dashboard.Service
	RunEndpoint string
	StaticBase  string
	CSRF        custommw.CSRFConfig
}

// Handlers exposes HTTP handlers for the dashboard page and its results fragment.
type Handlers struct {
	service     dashboard.Service
	runEndpoint string
	staticBase  string
	csrf        custommw.CSRFConfig
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) *Handlers {
	service := deps.Service
	if service == nil {
		service = dashboard.NewDefaultService()
	}
	return &Handlers{
		service:     service,
		runEndpoint: deps.RunEndpoint,
		staticBase:  deps.StaticBase,
		csrf:        deps.CSRF.WithDefaults(),
	}
}

// Dashboard renders the empty dashboard with the default use case prefilled.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	page, err := h.basePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	templ.Handler(templates.Page(page)).ServeHTTP(w, r)
}

// Run executes the pipeline for the submitted use case. htmx requests receive the
// results fragment; plain form posts receive the whole page.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fragment := custommw.IsHTMXRequest(ctx)

	err := custommw.FormErrorFromContext(ctx)
	if err == nil {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(w, r, fragment, r.PostForm.Get(useCaseField), "Use case description is too long.", http.StatusRequestEntityTooLarge)
			return
		}
		h.renderError(w, r, fragment, "", "Could not read the submitted form.", http.StatusBadRequest)
		return
	}
	useCase := r.PostForm.Get(useCaseField)

	report, err := h.service.Run(ctx, useCase)
	switch {
	case errors.Is(err, dashboard.ErrUseCaseTooLong):
		h.renderError(w, r, fragment, useCase, "Use case description is too long.", http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		requestctx.Logger(ctx).Error("dashboard: pipeline run failed", zap.Error(err), zap.String("use_case", observability.Excerpt(useCase, 120)))
		h.renderError(w, r, fragment, useCase, "The builder could not process this use case. Please try again.", http.StatusBadGateway)
		return
	}

	results := templates.BuildResults(report)
	if fragment {
		templ.Handler(templates.Results(results)).ServeHTTP(w, r)
		return
	}

	page, err := h.basePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page.UseCase = useCase
	page.Results = &results
	templ.Handler(templates.Page(page)).ServeHTTP(w, r)
}

func (h *Handlers) basePage(r *http.Request) (templates.PageData, error) {
	c, err := h.service.Catalog(r.Context())
	if err != nil {
		return templates.PageData{}, err
	}
	summary, err := templates.RenderMarkdown(c.Summary)
	if err != nil {
		return templates.PageData{}, err
	}
	return templates.PageData{
		Title:       c.Title,
		SummaryHTML: summary,
		UseCase:     c.DefaultUseCase,
		RunEndpoint: h.runEndpoint,
		StaticBase:  h.staticBase,
		CSRFToken:   custommw.CSRFTokenFromContext(r.Context()),
		CSRFHeader:  h.csrf.HeaderName,
		CSRFField:   h.csrf.FieldName,
		MaxBytes:    h.service.Limit(),
	}, nil
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, fragment bool, useCase, message string, status int) {
	if fragment {
		templ.Handler(templates.ErrorBanner(message), templ.WithStatus(status)).ServeHTTP(w, r)
		return
	}
	page, err := h.basePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if useCase != "" {
		page.UseCase = useCase
	}
	page.Error = message
	templ.Handler(templates.Page(page), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestctx.Logger(r.Context()).Error("dashboard: render failed", zap.Error(err))
	http.Error(w, "The dashboard is temporarily unavailable.", http.StatusServiceUnavailable)
}
