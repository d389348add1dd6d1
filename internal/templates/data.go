package templates

import (
	"encoding/json"
	"html/template"

	"finitefield.org/c360-builder/internal/builder"
	"finitefield.org/c360-builder/internal/catalog"
)

// PageData is the full dashboard payload.
type PageData struct {
	Title       string
	SummaryHTML template.HTML
	UseCase     string
	RunEndpoint string
	StaticBase  string
	CSRFToken   string
	CSRFHeader  string
	CSRFField   string
	MaxBytes    int
	Results     *ResultsData
	Error       string
}

// ResultsData holds the six dashboard sections for one run.
type ResultsData struct {
	RunID              string
	InterpretationJSON string
	Structure          []string
	SourcesJSON        string
	Mapping            []builder.MappingRow
	Ingress            catalog.Ingress
	Egress             catalog.Egress
	Certification      CertificationView
}

// CertificationView is the rendered certification outcome.
type CertificationView struct {
	Passed      bool
	StatusLabel string
	Checks      []CheckView
}

// CheckView is one named check.
type CheckView struct {
	Name   string
	Passed bool
}

// BuildResults converts a report into section payloads. Attribute order is normalised.
func BuildResults(report builder.Report) ResultsData {
	r := report.Normalized()

	status := "✔️ " + builder.StatusPassed
	if !r.Certification.Passed {
		status = "❌ " + builder.StatusFailed
	}
	checks := make([]CheckView, 0, len(builder.CheckOrder))
	for _, name := range builder.CheckOrder {
		checks = append(checks, CheckView{Name: name, Passed: r.Certification.Checks[name]})
	}

	return ResultsData{
		RunID:              r.RunID,
		InterpretationJSON: indentJSON(r.Interpretation),
		Structure:          r.Structure,
		SourcesJSON:        indentJSON(r.Sources),
		Mapping:            r.Mapping,
		Ingress:            r.IngressEgress.Ingress,
		Egress:             r.IngressEgress.Egress,
		Certification: CertificationView{
			Passed:      r.Certification.Passed,
			StatusLabel: status,
			Checks:      checks,
		},
	}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
