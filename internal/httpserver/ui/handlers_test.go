package ui_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/c360-builder/internal/builder"
	"finitefield.org/c360-builder/internal/catalog"
	"finitefield.org/c360-builder/internal/dashboard"
	custommw "finitefield.org/c360-builder/internal/httpserver/middleware"
	"finitefield.org/c360-builder/internal/httpserver/ui"
)

const exampleUseCase = "We need customer name, email, phone number, and loyalty status to personalize offers."

func newHandlers(service dashboard.Service) *ui.Handlers {
	return ui.NewHandlers(ui.Dependencies{
		Service:     service,
		RunEndpoint: "/runs",
		StaticBase:  "/static",
	})
}

// withHTMX runs the request through the htmx middleware so handlers see HX-* metadata.
func withHTMX(h http.HandlerFunc) http.Handler {
	return custommw.HTMX()(h)
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func postForm(useCase string, htmx bool) *http.Request {
	form := url.Values{"use_case": {useCase}}
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestDashboardRendersDefaultUseCase(t *testing.T) {
	t.Parallel()

	h := newHandlers(dashboard.NewDefaultService())
	rec := httptest.NewRecorder()
	withHTMX(h.Dashboard).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)

	require.Equal(t, catalog.Default().Title, doc.Find("title").Text())
	require.Equal(t, catalog.Default().DefaultUseCase, doc.Find("textarea#use_case").Text())
	require.Equal(t, "Run Multi-Agent System", doc.Find("button#run").Text())
	require.Equal(t, "/runs", doc.Find("form#use-case-form").AttrOr("hx-post", ""))
	require.Equal(t, 1, doc.Find(".summary strong").Length(), "summary markdown should render bold text")
	require.Zero(t, doc.Find("#results .results").Length(), "no results before a run")
}

func TestRunReturnsFragmentForHTMX(t *testing.T) {
	t.Parallel()

	h := newHandlers(dashboard.NewDefaultService())
	rec := httptest.NewRecorder()
	withHTMX(h.Run).ServeHTTP(rec, postForm(exampleUseCase, true))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.NotContains(t, body, "<html")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	require.Equal(t, []string{"Customer_ID", "Email", "Full_Name", "Phone_Number"}, doc.Find("#structure li").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	}))
	require.Equal(t, 4, doc.Find("#mapping tbody tr").Length())
	require.Contains(t, doc.Find("#certification .status").Text(), "PASSED")
	require.Equal(t, "true", doc.Find(`#certification li[data-check="Completeness"]`).AttrOr("data-passed", ""))
	require.Contains(t, doc.Find(".alert-success").Text(), "Multi-Agent Flow Complete")
}

func TestRunReturnsFullPageWithoutHTMX(t *testing.T) {
	t.Parallel()

	h := newHandlers(dashboard.NewDefaultService())
	rec := httptest.NewRecorder()
	withHTMX(h.Run).ServeHTTP(rec, postForm("Track the mortgage and churn risk of each household", false))

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)

	require.Equal(t, 1, doc.Find("form#use-case-form").Length())
	require.Equal(t, "Track the mortgage and churn risk of each household", doc.Find("textarea#use_case").Text())
	require.Equal(t, 1, doc.Find("#results .results").Length())
	require.Greater(t, doc.Find("#structure li").Length(), 0)
}

func TestRunWithoutMatchesShowsEmptySections(t *testing.T) {
	t.Parallel()

	h := newHandlers(dashboard.NewDefaultService())
	rec := httptest.NewRecorder()
	withHTMX(h.Run).ServeHTTP(rec, postForm("Forecast quarterly warehouse throughput", true))

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)

	require.Equal(t, "[]", strings.TrimSpace(doc.Find("#structure p.empty").Text()))
	require.Equal(t, 1, doc.Find("#mapping tr.empty").Length())
	require.Contains(t, doc.Find("#certification .status").Text(), "FAILED")
	require.Equal(t, "false", doc.Find(`#certification li[data-check="Mapping Coverage"]`).AttrOr("data-passed", ""))
}

func TestRunRejectsOversizedUseCase(t *testing.T) {
	t.Parallel()

	pipeline := builder.NewPipeline(catalog.Default())
	h := newHandlers(dashboard.NewPipelineService(pipeline, 32))

	rec := httptest.NewRecorder()
	withHTMX(h.Run).ServeHTTP(rec, postForm(strings.Repeat("customer email ", 10), true))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	doc := parse(t, rec)
	require.Equal(t, "alert", doc.Find(".alert-error").AttrOr("role", ""))
}

func TestRunRendersErrorPageOnServiceFailure(t *testing.T) {
	t.Parallel()

	h := newHandlers(&failingService{err: errors.New("boom")})
	rec := httptest.NewRecorder()
	withHTMX(h.Run).ServeHTTP(rec, postForm(exampleUseCase, false))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	doc := parse(t, rec)
	require.Equal(t, 1, doc.Find("form#use-case-form").Length())
	require.Equal(t, exampleUseCase, doc.Find("textarea#use_case").Text())
	require.NotEmpty(t, doc.Find(".alert-error").Text())
}

type failingService struct {
	err error
}

func (s *failingService) Run(context.Context, string) (builder.Report, error) {
	return builder.Report{}, s.err
}

func (s *failingService) Catalog(context.Context) (*catalog.Catalog, error) {
	return catalog.Default(), nil
}

func (s *failingService) Limit() int { return dashboard.DefaultMaxUseCaseBytes }
