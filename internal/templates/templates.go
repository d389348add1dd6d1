// Package templates renders the dashboard. Pages are html/template files embedded in
// the binary and exposed as templ components so handlers can serve them with templ.Handler.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"
)

//go:embed html/*.tmpl
var files embed.FS

var pages = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(files, "html/*.tmpl"))

// Page renders the full dashboard document.
func Page(data PageData) templ.Component {
	return execute("page", data)
}

// Results renders only the results fragment, for htmx swaps.
func Results(data ResultsData) templ.Component {
	return execute("results", data)
}

// ErrorBanner renders an inline error fragment.
func ErrorBanner(message string) templ.Component {
	return execute("error", message)
}

func execute(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}
