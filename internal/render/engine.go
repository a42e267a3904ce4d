// Package render parses and executes the site's html/template layouts.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"sklinet.org/web/internal/blocks"
	"sklinet.org/web/internal/i18n"
)

//go:embed templates
var embedded embed.FS

// Options configures an Engine.
type Options struct {
	// Dir overrides the embedded templates with a directory on disk.
	Dir string
	// Dev reparses templates on every render.
	Dev  bool
	I18n *i18n.Bundle
}

// Engine renders named templates. In dev mode, templates are reparsed on each render.
type Engine struct {
	opts   Options
	cached *template.Template
}

// New parses the templates once and returns an Engine.
func New(opts Options) (*Engine, error) {
	e := &Engine{opts: opts}
	t, err := e.parse()
	if err != nil {
		return nil, err
	}
	e.cached = t
	return e, nil
}

func (e *Engine) source() (fs.FS, error) {
	if strings.TrimSpace(e.opts.Dir) != "" {
		return os.DirFS(e.opts.Dir), nil
	}
	return fs.Sub(embedded, "templates")
}

func (e *Engine) parse() (*template.Template, error) {
	src, err := e.source()
	if err != nil {
		return nil, err
	}
	// Recursively discover all .tmpl files. Note: ParseFS globs don't support **.
	var files []string
	if err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found")
	}
	root := template.New("_root")
	grid := &lazyPartial{name: "lazy/grid_helper"}
	root.Funcs(template.FuncMap{
		"now": time.Now,
		"t":   e.translate,
		"renderBlock": func(entry blocks.Entry, v *View) (template.HTML, error) {
			return renderBlock(root, entry, v)
		},
		"gridHelper": func() (template.HTML, error) {
			return grid.render(root)
		},
		"seq": seq,
	})
	return root.ParseFS(src, files...)
}

func (e *Engine) translate(lang, key string) string {
	if e.opts.I18n == nil {
		return key
	}
	return e.opts.I18n.T(lang, key)
}

func (e *Engine) templates() (*template.Template, error) {
	if e.opts.Dev {
		return e.parse()
	}
	if e.cached == nil {
		return nil, fmt.Errorf("template not initialized")
	}
	return e.cached, nil
}

// Render executes the named template into w. Nothing is written on error.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	t, err := e.templates()
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("template exec error: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Has reports whether a template with name is defined.
func (e *Engine) Has(name string) bool {
	t, err := e.templates()
	return err == nil && t.Lookup(name) != nil
}

func renderBlock(root *template.Template, entry blocks.Entry, v *View) (template.HTML, error) {
	name := entry.Template
	if name == "" || root.Lookup(name) == nil {
		name = blocks.UnknownTemplate
	}
	bv := BlockView{
		ID:   entry.ID,
		Type: entry.Type,
		Data: entry.Props.Data,
		Item: entry.Props.Item,
	}
	if v != nil {
		bv.Lang = v.Lang
		bv.Preview = v.App != nil && v.App.Preview
		bv.now = v.Now
		bv.static = v.Static
		if v.App != nil {
			bv.calendar = v.App.Calendar
		}
	}
	var buf bytes.Buffer
	if err := root.ExecuteTemplate(&buf, name, bv); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// lazyPartial renders a data-free template the first time it is needed and
// reuses the output afterwards.
type lazyPartial struct {
	name string
	once sync.Once
	html template.HTML
	err  error
}

func (p *lazyPartial) render(root *template.Template) (template.HTML, error) {
	p.once.Do(func() {
		var buf bytes.Buffer
		p.err = root.ExecuteTemplate(&buf, p.name, nil)
		p.html = template.HTML(buf.String())
	})
	return p.html, p.err
}
