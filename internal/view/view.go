// Package view renders listing and error pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"time"

	"github.com/taigrr/dirindex/internal/i18n"
	"github.com/taigrr/dirindex/internal/types"
	"github.com/taigrr/dirindex/internal/uri"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Render.
const (
	PageIndex = "index"
	PageError = "error"
)

// Page is the data every template receives.
type Page struct {
	Title   string
	Lang    string
	T       i18n.Translator
	Listing types.Listing
	Message string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"dirLink":       uri.DirLink,
		"parentDir":     path.Dir,
		"sizeForHumans": SizeForHumans,
		"formatTime":    FormatTime,
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageIndex, PageError} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes the named page and returns the HTML.
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, ok := r.pages[name]
	if !ok {
		return "", fmt.Errorf("unknown template: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderResponse renders the named page into a response with status.
func (r *Renderer) RenderResponse(status int, name string, data any) (types.Response, error) {
	body, err := r.Render(name, data)
	if err != nil {
		return types.Response{}, err
	}
	return types.Response{
		Status:      status,
		Body:        body,
		ContentType: types.HTMLContentType,
	}, nil
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// SizeForHumans formats a byte count with two decimals and a binary unit,
// e.g. "1.50KB".
func SizeForHumans(size int64) string {
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f%s", value, sizeUnits[unit])
}

// FormatTime formats a modification time for the listing.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
