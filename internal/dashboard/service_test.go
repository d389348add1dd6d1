package dashboard

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/c360-builder/internal/builder"
	"finitefield.org/c360-builder/internal/catalog"
)

func TestPipelineServiceRun(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	report, err := svc.Run(context.Background(), "  customer email and loan status  ")
	require.NoError(t, err)
	require.Equal(t, "customer email and loan status", report.UseCase)
	require.Equal(t, []string{"email"}, report.Interpretation[catalog.CategoryCustomerIdentification])
	require.Equal(t, []string{"loan"}, report.Interpretation[catalog.CategoryLoans])
	require.True(t, report.Certification.Passed)
}

func TestPipelineServiceRejectsLongInput(t *testing.T) {
	t.Parallel()

	svc := NewPipelineService(builder.NewPipeline(nil), 8)
	require.Equal(t, 8, svc.Limit())

	_, err := svc.Run(context.Background(), strings.Repeat("a", 9))
	require.ErrorIs(t, err, ErrUseCaseTooLong)

	_, err = svc.Run(context.Background(), strings.Repeat("a", 8))
	require.NoError(t, err)
}

func TestPipelineServiceNotConfigured(t *testing.T) {
	t.Parallel()

	var svc *PipelineService
	_, err := svc.Run(context.Background(), "name")
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = (&PipelineService{}).Catalog(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestPipelineServiceCatalog(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	c, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Same(t, catalog.Default(), c)
	require.Equal(t, DefaultMaxUseCaseBytes, svc.Limit())
}
