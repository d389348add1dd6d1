package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"finitefield.org/c360-builder/internal/catalog"
)

type catalogResponse struct {
	Title          string                `json:"title"`
	Summary        string                `json:"summary"`
	DefaultUseCase string                `json:"defaultUseCase"`
	Categories     []catalog.Category    `json:"categories"`
	Sources        []catalog.SourceEntry `json:"sources"`
	IngressEgress  catalog.IngressEgress `json:"ingressEgress"`
}

func newCatalogCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the active keyword catalog and source table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var err error
			if a.opts.Format == FormatJSON {
				err = writeJSON(out, catalogResponse{
					Title:          a.catalog.Title,
					Summary:        a.catalog.Summary,
					DefaultUseCase: a.catalog.DefaultUseCase,
					Categories:     a.catalog.Categories,
					Sources:        a.catalog.SourceTable(),
					IngressEgress:  a.catalog.IngressEgress,
				})
			} else {
				err = writeCatalogTable(out, a.catalog)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "write catalog", err)
			}
			return nil
		},
	}
}

func writeCatalogTable(w io.Writer, c *catalog.Catalog) error {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render(c.Title))
	sb.WriteString("\n")

	if c.Summary != "" {
		summary, err := glamour.Render(c.Summary, "notty")
		if err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
		sb.WriteString(summary)
	}

	categories := newTable("Category", "Keywords", "Attributes")
	for _, cat := range c.Categories {
		categories.Row(cat.Label, strings.Join(cat.Keywords, ", "), strings.Join(cat.Attributes, ", "))
	}
	sb.WriteString(categories.String())
	sb.WriteString("\n\n")

	sources := newTable("Attribute", "Source system")
	for _, entry := range c.SourceTable() {
		sources.Row(entry.Attribute, entry.Source)
	}
	sb.WriteString(sources.String())
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
