package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"statusClass": func(status string) string {
		if status == "completed" {
			return "badge badge-done"
		}
		return "badge badge-pending"
	},
}).ParseFS(templateFS, "templates/*.html"))

// Page names accepted by Render.
const (
	PageLanding  = "landing"
	PageRegistry = "registry"
)

// Render executes the named page into w. The page is rendered into a
// buffer first so a template error never leaves a partial response.
func Render(w io.Writer, name string, data any) error {
	if pages.Lookup(name) == nil {
		return fmt.Errorf("view: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
