package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/catalog"
	"finitefield.org/c360-builder/internal/platform/requestctx"
)

const instrumentationName = "finitefield.org/c360-builder/internal/builder"

var tracer = otel.Tracer(instrumentationName)

// Pipeline runs the interpretation, recommendation, sourcing, mapping and
// certification stages against one catalog. It holds no mutable state and is safe
// for concurrent use.
type Pipeline struct {
	catalog *catalog.Catalog
	now     func() time.Time
	newID   func() string
	meter   metric.Meter

	runs                metric.Int64Counter
	runsEnabled         bool
	stageLatency        metric.Float64Histogram
	stageLatencyEnabled bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the run identifier generator.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.meter = m
		}
	}
}

// NewPipeline builds a pipeline over c, falling back to the embedded catalog when c is nil.
func NewPipeline(c *catalog.Catalog, opts ...Option) *Pipeline {
	if c == nil {
		c = catalog.Default()
	}
	p := &Pipeline{
		catalog: c,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.meter == nil {
		p.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}

	runs, err := p.meter.Int64Counter(
		"builder.runs",
		metric.WithDescription("Count of pipeline runs by certification status"),
	)
	if err != nil {
		zap.L().Warn("builder: unable to register run counter", zap.Error(err))
	}
	p.runs, p.runsEnabled = runs, err == nil

	latency, err := p.meter.Float64Histogram(
		"builder.stage.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of each pipeline stage"),
	)
	if err != nil {
		zap.L().Warn("builder: unable to register stage latency metric", zap.Error(err))
	}
	p.stageLatency, p.stageLatencyEnabled = latency, err == nil

	return p
}

// Catalog returns the catalog the pipeline runs against.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Run executes every stage over text. The only error is a cancelled context.
func (p *Pipeline) Run(ctx context.Context, text string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("builder: run aborted: %w", err)
	}

	report := Report{
		RunID:     p.newID(),
		StartedAt: p.now(),
		UseCase:   text,
	}
	ctx = requestctx.WithRunID(ctx, report.RunID)

	ctx, span := tracer.Start(ctx, "builder.run", trace.WithAttributes(
		attribute.String("builder.run_id", report.RunID),
		attribute.Int("builder.use_case_bytes", len(text)),
	))
	defer span.End()

	p.stage(ctx, "builder.interpret", func(s trace.Span) {
		report.Interpretation = Interpret(p.catalog, text)
		s.SetAttributes(attribute.StringSlice("builder.categories", report.Interpretation.MatchedCategories(p.catalog)))
	})
	p.stage(ctx, "builder.recommend", func(s trace.Span) {
		report.Structure = Recommend(p.catalog, report.Interpretation)
		s.SetAttributes(attribute.Int("builder.attributes", len(report.Structure)))
	})
	p.stage(ctx, "builder.identify_sources", func(trace.Span) {
		report.Sources = IdentifySources(p.catalog, report.Structure)
	})
	p.stage(ctx, "builder.generate_mapping", func(trace.Span) {
		report.Mapping = GenerateMapping(report.Structure, report.Sources)
	})
	report.IngressEgress = DescribeIngressEgress(p.catalog)
	p.stage(ctx, "builder.certify", func(s trace.Span) {
		report.Certification = Certify(report.Mapping)
		s.SetAttributes(attribute.Bool("builder.certified", report.Certification.Passed))
	})

	if p.runsEnabled {
		p.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("certification.status", report.Certification.Status)))
	}

	requestctx.Logger(ctx).Info("pipeline run completed",
		zap.String("run_id", report.RunID),
		zap.Strings("categories", report.Interpretation.MatchedCategories(p.catalog)),
		zap.Int("attributes", len(report.Structure)),
		zap.Int("unknown_sources", countUnknown(report.Mapping)),
		zap.String("certification", report.Certification.Status),
		zap.Strings("failed_checks", report.Certification.FailedChecks()),
	)

	return report, nil
}

// stage runs fn inside a child span tagged with the run ID stored on ctx and
// records its latency.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(trace.Span)) {
	runID := requestctx.RunID(ctx)
	_, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("builder.run_id", runID)))
	defer span.End()

	start := time.Now()
	fn(span)
	elapsed := time.Since(start)

	if p.stageLatencyEnabled {
		p.stageLatency.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(attribute.String("builder.stage", name)))
	}
	requestctx.Logger(ctx).Debug("pipeline stage completed",
		zap.String("run_id", runID),
		zap.String("stage", name),
		zap.Duration("elapsed", elapsed),
	)
}

func countUnknown(rows []MappingRow) int {
	n := 0
	for _, row := range rows {
		if row.SourceSystem == UnknownSource {
			n++
		}
	}
	return n
}
