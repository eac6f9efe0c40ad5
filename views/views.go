// Package views renders the wizard page from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/giygas/medsafe/wizard"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data the wizard template renders
type Page struct {
	View       wizard.View
	CountInput string
	MaxCount   int
	Layout     wizard.Layout
	// Drafts re-fill the name inputs after a rejected check, in field order
	Drafts      []string
	Suggestions []string
	// Alert, when set, is shown in the blocking dialog
	Alert      string
	Disclaimer template.HTML
}

// CountVisible reports whether the count entry popup is shown
func (p Page) CountVisible() bool { return p.View == wizard.ViewCountEntry }

// NamesVisible reports whether the name entry section is shown
func (p Page) NamesVisible() bool { return p.View == wizard.ViewNameEntry }

// ResultVisible reports whether the result section is shown
func (p Page) ResultVisible() bool { return p.View == wizard.ViewResult }

// Renderer executes the parsed page template
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"draft": draftValue,
	}

	tmpl, err := template.New("page.html").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page to w. Nothing is written when execution fails.
func (r *Renderer) Render(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", page); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// Static returns the stylesheet directory served under /static/
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// draftValue returns the draft for the 1-based field index, or ""
func draftValue(drafts []string, index int) string {
	if index < 1 || index > len(drafts) {
		return ""
	}
	return drafts[index-1]
}
