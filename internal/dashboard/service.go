package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finitefield.org/c360-builder/internal/builder"
	"finitefield.org/c360-builder/internal/catalog"
)

// DefaultMaxUseCaseBytes caps the use case text accepted by a run.
const DefaultMaxUseCaseBytes = 16 * 1024

var (
	// ErrNotConfigured indicates the dashboard service dependency has not been provided.
	ErrNotConfigured = errors.New("dashboard service not configured")
	// ErrUseCaseTooLong is returned when the use case text exceeds the configured limit.
	ErrUseCaseTooLong = errors.New("use case text too long")
)

// Service runs the data product builder on behalf of the HTTP and CLI surfaces.
type Service interface {
	// Run executes the builder pipeline over the use case text.
	Run(ctx context.Context, useCase string) (builder.Report, error)
	// Catalog returns the catalog driving the pipeline.
	Catalog(ctx context.Context) (*catalog.Catalog, error)
	// Limit reports the maximum accepted use case size in bytes.
	Limit() int
}

// PipelineService is the Service backed by an in-process builder.Pipeline.
type PipelineService struct {
	pipeline *builder.Pipeline
	maxBytes int
}

// NewPipelineService wraps pipeline. A non-positive maxBytes selects DefaultMaxUseCaseBytes.
func NewPipelineService(pipeline *builder.Pipeline, maxBytes int) *PipelineService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUseCaseBytes
	}
	return &PipelineService{pipeline: pipeline, maxBytes: maxBytes}
}

// NewDefaultService runs the embedded catalog with default limits.
func NewDefaultService() *PipelineService {
	return NewPipelineService(builder.NewPipeline(catalog.Default()), 0)
}

// Run implements Service. Surrounding whitespace is trimmed before the pipeline sees it.
func (s *PipelineService) Run(ctx context.Context, useCase string) (builder.Report, error) {
	if s == nil || s.pipeline == nil {
		return builder.Report{}, ErrNotConfigured
	}
	if len(useCase) > s.maxBytes {
		return builder.Report{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrUseCaseTooLong, len(useCase), s.maxBytes)
	}
	return s.pipeline.Run(ctx, strings.TrimSpace(useCase))
}

// Catalog implements Service.
func (s *PipelineService) Catalog(context.Context) (*catalog.Catalog, error) {
	if s == nil || s.pipeline == nil {
		return nil, ErrNotConfigured
	}
	return s.pipeline.Catalog(), nil
}

// Limit implements Service.
func (s *PipelineService) Limit() int {
	if s == nil {
		return DefaultMaxUseCaseBytes
	}
	return s.maxBytes
}
