package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates static
var assets embed.FS

// Renderer executes the embedded HTML templates.
type Renderer struct {
	tpl *template.Template
}

type optionList struct {
	Options  []Option
	Selected string
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tpl, err := template.New("docuflow").Funcs(template.FuncMap{
		"selectOptions": func(opts []Option, selected string) optionList {
			return optionList{Options: opts, Selected: selected}
		},
	}).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Page writes the full organizer page.
func (r *Renderer) Page(w io.Writer, p Page) error {
	return r.tpl.ExecuteTemplate(w, "page", p)
}

// Grid writes only the document grid (or the empty state).
func (r *Renderer) Grid(w io.Writer, g GridView) error {
	return r.tpl.ExecuteTemplate(w, "grid", g)
}

// Nav writes only the category sidebar.
func (r *Renderer) Nav(w io.Writer, n NavView) error {
	return r.tpl.ExecuteTemplate(w, "nav", n)
}

// Static returns the stylesheet and other static assets.
func Static() fs.FS {
	sub, _ := fs.Sub(assets, "static")
	return sub
}
