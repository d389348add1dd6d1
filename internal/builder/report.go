package builder

import (
	"sort"
	"time"

	"finitefield.org/c360-builder/internal/catalog"
)

// Report aggregates the output of every pipeline stage for one use case.
type Report struct {
	RunID          string                `json:"runId"`
	StartedAt      time.Time             `json:"startedAt"`
	UseCase        string                `json:"useCase"`
	Interpretation Interpretation        `json:"interpretation"`
	Structure      []string              `json:"structure"`
	Sources        map[string]string     `json:"sources"`
	Mapping        []MappingRow          `json:"mapping"`
	IngressEgress  catalog.IngressEgress `json:"ingressEgress"`
	Certification  Certification         `json:"certification"`
}

// Normalized returns a copy whose structure and mapping rows are sorted by attribute
// name, for rendering and comparisons that must not depend on set order.
func (r Report) Normalized() Report {
	out := r
	out.Structure = append([]string{}, r.Structure...)
	sort.Strings(out.Structure)

	out.Mapping = append([]MappingRow{}, r.Mapping...)
	sort.Slice(out.Mapping, func(i, j int) bool {
		return out.Mapping[i].TargetAttribute < out.Mapping[j].TargetAttribute
	})
	return out
}
