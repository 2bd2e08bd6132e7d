// Package templates handles HTML rendering for the viewer page and its
// Datastar SSE fragments.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"os"
	"sync"
)

//go:embed web
var embedded embed.FS

// Patterns are the template globs, relative to the web root.
var Patterns = []string{"fragments/*.html", "pages/*.html"}

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
}

// Renderer manages the page and fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// Default returns a renderer over the embedded templates.
func Default() (*Renderer, error) {
	root, err := fs.Sub(embedded, "web")
	if err != nil {
		return nil, err
	}
	return New(root)
}

// New creates a renderer from a web root holding fragments/ and pages/.
func New(fsys fs.FS) (*Renderer, error) {
	tmpl, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(fsys, Patterns...)
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	return r.Execute(buf, name, data)
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Reload reloads templates from a directory on disk (useful for dev hot-reload).
func (r *Renderer) Reload(webDir string) error {
	tmpl, err := parse(os.DirFS(webDir))
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
