package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"finitefield.org/c360-builder/internal/builder"
	"finitefield.org/c360-builder/internal/catalog"
)

var headingStyle = lipgloss.NewStyle().Bold(true)

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeReportJSON(w io.Writer, report builder.Report) error {
	return writeJSON(w, report.Normalized())
}

// writeReportTable prints the six report sections for a terminal. Categories
// follow the catalog order.
func writeReportTable(w io.Writer, report builder.Report, c *catalog.Catalog) error {
	r := report.Normalized()
	var sb strings.Builder

	section := func(title string) {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(headingStyle.Render(title))
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Run %s\n", r.RunID)

	section("1. Use Case Interpretation")
	interpretation := newTable("Category", "Matched keywords")
	for _, name := range c.CategoryNames() {
		interpretation.Row(name, strings.Join(r.Interpretation[name], ", "))
	}
	sb.WriteString(interpretation.String())
	sb.WriteString("\n")

	section("2. Target Data Product Structure")
	if len(r.Structure) == 0 {
		sb.WriteString("[]\n")
	}
	for _, attr := range r.Structure {
		fmt.Fprintf(&sb, "- %s\n", attr)
	}

	section("3. Source System Identification")
	sources := newTable("Attribute", "Source system")
	for _, attr := range r.Structure {
		sources.Row(attr, r.Sources[attr])
	}
	sb.WriteString(sources.String())
	sb.WriteString("\n")

	section("4. Attribute Mapping")
	mapping := newTable("", "Target_Attribute", "Source_System", "Source_Attribute", "Transformation")
	for i, row := range r.Mapping {
		mapping.Row(strconv.Itoa(i), row.TargetAttribute, row.SourceSystem, row.SourceAttribute, row.Transformation)
	}
	sb.WriteString(mapping.String())
	sb.WriteString("\n")

	section("5. Ingress & Egress Design")
	fmt.Fprintf(&sb, "Ingress: Method: %s; Tools: %s\n", r.IngressEgress.Ingress.Method, strings.Join(r.IngressEgress.Ingress.Tools, ", "))
	fmt.Fprintf(&sb, "Egress: Access Methods: %s; Auth: %s\n", strings.Join(r.IngressEgress.Egress.AccessMethods, ", "), r.IngressEgress.Egress.Auth)

	section("6. Data Product Certification")
	fmt.Fprintf(&sb, "Certification Status: %s\n", r.Certification.Status)
	for _, name := range builder.CheckOrder {
		fmt.Fprintf(&sb, "  %s: %t\n", name, r.Certification.Checks[name])
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}
