package builder

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"finitefield.org/c360-builder/internal/catalog"
	"finitefield.org/c360-builder/internal/platform/requestctx"
)

func newTestPipeline() *Pipeline {
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return NewPipeline(catalog.Default(),
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "run-test" }),
	)
}

func TestPipelineRunExample(t *testing.T) {
	t.Parallel()

	report, err := newTestPipeline().Run(context.Background(), "customer name and email, plus transaction spending")
	require.NoError(t, err)

	require.Equal(t, "run-test", report.RunID)
	require.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), report.StartedAt)
	require.Subset(t, report.Interpretation[catalog.CategoryCustomerIdentification], []string{"name", "email"})
	require.Subset(t, report.Interpretation[catalog.CategoryTransactions], []string{"transaction", "spending"})
	require.Subset(t, report.Structure, []string{
		"Customer_ID", "Full_Name", "Email", "Phone_Number",
		"Last_Transaction_Date", "Monthly_Spend", "Transaction_Count",
	})
	require.Len(t, report.Mapping, len(report.Structure))
	for _, row := range report.Mapping {
		require.Equal(t, report.Sources[row.TargetAttribute], row.SourceSystem)
		require.Equal(t, row.TargetAttribute, row.SourceAttribute)
		require.Equal(t, TransformationDirect, row.Transformation)
	}
	require.True(t, report.Certification.Passed)
	require.Equal(t, StatusPassed, report.Certification.Status)
	for _, name := range CheckOrder {
		require.True(t, report.Certification.Checks[name], name)
	}
	require.Equal(t, "OAuth2 with RBAC", report.IngressEgress.Egress.Auth)
}

func TestPipelineRunEmptyInput(t *testing.T) {
	t.Parallel()

	report, err := newTestPipeline().Run(context.Background(), "")
	require.NoError(t, err)

	for category, matches := range report.Interpretation {
		require.Empty(t, matches, category)
	}
	require.NotNil(t, report.Structure)
	require.Empty(t, report.Structure)
	require.Empty(t, report.Sources)
	require.Empty(t, report.Mapping)
	require.False(t, report.Certification.Passed)
	require.False(t, report.Certification.Checks[CheckMappingCoverage])
	require.Equal(t, []string{CheckMappingCoverage}, report.Certification.FailedChecks())
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil)
	text := "Loan history, credit score, DOB and preferred SMS channel for each customer_id"

	first, err := p.Run(context.Background(), text)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), text)
	require.NoError(t, err)

	require.Equal(t, first.Interpretation, second.Interpretation)
	require.ElementsMatch(t, first.Structure, second.Structure)
	require.Equal(t, first.Normalized().Mapping, second.Normalized().Mapping)
	require.NotEqual(t, first.RunID, second.RunID)

	_, err = ulid.Parse(first.RunID)
	require.NoError(t, err, "default run ids are ULIDs")
}

func TestPipelineRunUnknownAttributes(t *testing.T) {
	t.Parallel()

	c, err := catalog.Parse([]byte(`
categories:
  - {name: loyalty, keywords: [points], attributes: [Loyalty_Tier, Email]}
sources:
  Email: CRM_DB
`))
	require.NoError(t, err)

	report, err := NewPipeline(c).Run(context.Background(), "loyalty POINTS balance")
	require.NoError(t, err)

	normalized := report.Normalized()
	require.Equal(t, []string{"Email", "Loyalty_Tier"}, normalized.Structure)
	require.Equal(t, UnknownSource, report.Sources["Loyalty_Tier"])
	require.Equal(t, TransformationManual, normalized.Mapping[1].Transformation)
	require.Equal(t, TransformationDirect, normalized.Mapping[0].Transformation)
	require.True(t, report.Certification.Passed)
}

func TestPipelineRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline().Run(ctx, "name")
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipelineRunLogsSummary(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := requestctx.WithLogger(context.Background(), zap.New(core))

	_, err := newTestPipeline().Run(ctx, "")
	require.NoError(t, err)

	entries := logs.FilterMessage("pipeline run completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "run-test", fields["run_id"])
	require.Equal(t, StatusFailed, fields["certification"])
	require.EqualValues(t, 0, fields["attributes"])
}

func TestReportNormalizedDoesNotMutate(t *testing.T) {
	t.Parallel()

	report := Report{
		Structure: []string{"b", "a"},
		Mapping:   []MappingRow{{TargetAttribute: "b"}, {TargetAttribute: "a"}},
	}
	normalized := report.Normalized()

	require.Equal(t, []string{"a", "b"}, normalized.Structure)
	require.Equal(t, "a", normalized.Mapping[0].TargetAttribute)
	require.Equal(t, []string{"b", "a"}, report.Structure)
	require.Equal(t, "b", report.Mapping[0].TargetAttribute)
}

func TestPipelineRunTagsStagesWithRunID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := requestctx.WithLogger(context.Background(), zap.New(core))

	_, err := newTestPipeline().Run(ctx, "customer email")
	require.NoError(t, err)

	entries := logs.FilterMessage("pipeline stage completed").All()
	stages := make([]string, 0, len(entries))
	for _, entry := range entries {
		fields := entry.ContextMap()
		require.Equal(t, "run-test", fields["run_id"])
		stages = append(stages, fields["stage"].(string))
	}
	require.Equal(t, []string{
		"builder.interpret",
		"builder.recommend",
		"builder.identify_sources",
		"builder.generate_mapping",
		"builder.certify",
	}, stages)
}

func TestPipelineRecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	p := NewPipeline(catalog.Default(), WithMeter(provider.Meter("builder-test")))
	ctx := context.Background()
	for _, text := range []string{"customer name and email", "loan exposure", ""} {
		_, err := p.Run(ctx, text)
		require.NoError(t, err)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	runs := map[string]int64{}
	stageCounts := map[string]uint64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch m.Name {
			case "builder.runs":
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "builder.runs should be an int64 sum")
				for _, dp := range sum.DataPoints {
					status, _ := dp.Attributes.Value(attribute.Key("certification.status"))
					runs[status.AsString()] += dp.Value
				}
			case "builder.stage.latency":
				hist, ok := m.Data.(metricdata.Histogram[float64])
				require.True(t, ok, "builder.stage.latency should be a float64 histogram")
				for _, dp := range hist.DataPoints {
					stage, _ := dp.Attributes.Value(attribute.Key("builder.stage"))
					stageCounts[stage.AsString()] += dp.Count
				}
			}
		}
	}

	require.Equal(t, map[string]int64{StatusPassed: 2, StatusFailed: 1}, runs)
	require.Equal(t, map[string]uint64{
		"builder.interpret":        3,
		"builder.recommend":        3,
		"builder.identify_sources": 3,
		"builder.generate_mapping": 3,
		"builder.certify":          3,
	}, stageCounts)
}
