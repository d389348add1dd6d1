// Package api exposes the builder pipeline as a small JSON API.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/catalog"
	"finitefield.org/c360-builder/internal/dashboard"
	"finitefield.org/c360-builder/internal/platform/httpx"
	"finitefield.org/c360-builder/internal/platform/observability"
	"finitefield.org/c360-builder/internal/platform/requestctx"
)

const (
	// escapeFactor bounds how much JSON escaping can grow the use case text:
	// encoding/json writes <, > and & as six-byte \u escapes.
	escapeFactor = 6
	// jsonOverhead leaves room for the envelope around the use case text.
	jsonOverhead = 1024
)

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body too large")
)

// RunHandlers serves pipeline runs and the catalog over JSON.
type RunHandlers struct {
	service dashboard.Service
}

// NewRunHandlers constructs the handler set. A nil service responds with 503.
func NewRunHandlers(service dashboard.Service) *RunHandlers {
	return &RunHandlers{service: service}
}

// Routes registers the run and catalog endpoints.
func (h *RunHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/runs", h.createRun)
	r.Get("/catalog", h.getCatalog)
}

type runRequest struct {
	UseCase *string `json:"useCase"`
}

type catalogResponse struct {
	Title          string                `json:"title"`
	DefaultUseCase string                `json:"defaultUseCase"`
	Categories     []catalog.Category    `json:"categories"`
	Sources        []catalog.SourceEntry `json:"sources"`
	IngressEgress  catalog.IngressEgress `json:"ingressEgress"`
}

func (h *RunHandlers) createRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "builder service not available", http.StatusServiceUnavailable))
		return
	}

	limit := h.service.Limit()
	body, err := readLimitedBody(r, maxBodyBytes(limit))
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge).
				WithDetails(map[string]any{"limit": limit}))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	req, err := parseRunRequest(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	report, err := h.service.Run(ctx, *req.UseCase)
	if err != nil {
		switch {
		case errors.Is(err, dashboard.ErrUseCaseTooLong):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", fmt.Sprintf("useCase exceeds %d bytes", limit), http.StatusRequestEntityTooLarge).
				WithDetails(map[string]any{"limit": limit}))
		case errors.Is(err, dashboard.ErrNotConfigured):
			httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "builder service not available", http.StatusServiceUnavailable))
		default:
			requestctx.Logger(ctx).Error("api: pipeline run failed", zap.Error(err), zap.String("use_case", observability.Excerpt(*req.UseCase, 120)))
			httpx.WriteError(ctx, w, httpx.NewError("run_failed", "failed to run builder", http.StatusInternalServerError))
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, report.Normalized())
}

func (h *RunHandlers) getCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "builder service not available", http.StatusServiceUnavailable))
		return
	}
	c, err := h.service.Catalog(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog not available", http.StatusServiceUnavailable))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, catalogResponse{
		Title:          c.Title,
		DefaultUseCase: c.DefaultUseCase,
		Categories:     c.Categories,
		Sources:        c.SourceTable(),
		IngressEgress:  c.IngressEgress,
	})
}

func parseRunRequest(data []byte) (runRequest, error) {
	var req runRequest
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, errors.New("invalid JSON payload")
	}
	if req.UseCase == nil {
		return req, errors.New("useCase is required")
	}
	return req, nil
}

// maxBodyBytes is the raw body cap for a use case of limit decoded bytes. The
// decoded length is enforced by the service.
func maxBodyBytes(limit int) int64 {
	return int64(escapeFactor*limit + jsonOverhead)
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}
