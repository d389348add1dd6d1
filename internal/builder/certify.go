package builder

import "strings"

// Certification check names.
const (
	CheckCompleteness            = "Completeness"
	CheckMappingCoverage         = "Mapping Coverage"
	CheckTransformationSpecified = "Transformation Specified"
)

// Certification status labels.
const (
	StatusPassed = "PASSED"
	StatusFailed = "FAILED"
)

// CheckOrder is the display order of the certification checks.
var CheckOrder = []string{CheckCompleteness, CheckMappingCoverage, CheckTransformationSpecified}

// Certification is the outcome of validating a mapping table.
type Certification struct {
	Passed bool            `json:"passed"`
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
}

// FailedChecks returns the names of failing checks in display order.
func (c Certification) FailedChecks() []string {
	var failed []string
	for _, name := range CheckOrder {
		if !c.Checks[name] {
			failed = append(failed, name)
		}
	}
	return failed
}

// Certify runs the three mapping checks. Completeness and Transformation Specified
// hold vacuously for an empty table; Mapping Coverage requires at least one row.
func Certify(rows []MappingRow) Certification {
	complete := true
	specified := true
	for _, row := range rows {
		if strings.TrimSpace(row.SourceAttribute) == "" || strings.TrimSpace(row.SourceSystem) == "" {
			complete = false
		}
		if strings.TrimSpace(row.Transformation) == "" {
			specified = false
		}
	}

	checks := map[string]bool{
		CheckCompleteness:            complete,
		CheckMappingCoverage:         len(rows) > 0,
		CheckTransformationSpecified: specified,
	}
	passed := complete && specified && len(rows) > 0
	status := StatusFailed
	if passed {
		status = StatusPassed
	}
	return Certification{Passed: passed, Status: status, Checks: checks}
}
