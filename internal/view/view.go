// Package view renders HTML pages from the templates directory. Every page
// template is parsed together with layout.html and cached after first use
// (set DEV=1 to re-parse on each request while editing templates).
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oficinatec/oficina/internal/pdf"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the helpers available inside templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": pdf.Money,
		"date": func(v interface{ Format(string) string }) string {
			return v.Format("02/01/2006")
		},
		"lower": strings.ToLower,
	}
}

func load(name string) (*template.Template, error) {
	dev := os.Getenv("DEV") == "1"
	if !dev {
		tplCache.RLock()
		if t, ok := tplCache.m[name]; ok {
			tplCache.RUnlock()
			return t, nil
		}
		tplCache.RUnlock()
	}
	once.Do(detectBase)
	files := []string{filepath.Join(baseDir, "layout.html"), filepath.Join(baseDir, name)}
	t, err := template.New("layout.html").Funcs(Funcs()).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if !dev {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render writes the named page wrapped in the layout. Rendering goes
// through a buffer so a template error never produces a half-written page.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	t, err := load(name)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(buf.Bytes())
	return err
}

// RenderStandalone renders a template without the layout, used for document
// exports (e.g. the Word download).
func RenderStandalone(w http.ResponseWriter, name string, data map[string]any) error {
	once.Do(detectBase)
	t, err := template.New(name).Funcs(Funcs()).ParseFiles(filepath.Join(baseDir, name))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}
