// internal/view/render.go
//
// Central view engine: template lookup, override chain, func-map injection,
// and one parsed *template.Template* set per page.
//
// Public helpers
// --------------
//   - New            – parse every page once at boot.
//   - Render         – buffer, then write HTML with a status code.
//
// Lookup precedence (first hit wins), per file:
//   1. <override dir>/<file>.html   (operator theme, optional)
//   2. templates/<file>.html        (embedded defaults)
//
// Every page set is layout.html plus the page file; the page defines the
// "content" block that layout.html calls.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/sheetzu/internal/head"
	"github.com/yanizio/sheetzu/internal/routing"
)

// Page names.
const (
	Home     = "home"
	Site     = "site"
	NotFound = "notfound"
	Error    = "error"
)

var pages = []string{Home, Site, NotFound, Error}

const layout = "layout.html"

//go:embed templates/*.html
var embedded embed.FS

// Page is the value every template receives.
type Page struct {
	Head    *head.Builder
	Product string
	Body    any
}

// Engine holds the parsed sets.  Safe for concurrent use after New.
type Engine struct {
	sets map[string]*template.Template
}

// New parses layout.html with each page.  overrideDir may be empty or
// missing; files found there replace the embedded copies.
func New(overrideDir string) (*Engine, error) {
	e := &Engine{sets: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t := template.New(layout).Funcs(funcMap())
		for _, f := range []string{layout, p + ".html"} {
			src, origin, err := readTemplate(overrideDir, f)
			if err != nil {
				return nil, err
			}
			if _, err := t.New(f).Parse(string(src)); err != nil {
				return nil, fmt.Errorf("view: parse %s (%s): %w", f, origin, err)
			}
		}
		e.sets[p] = t
	}
	return e, nil
}

// Render executes page into a buffer and writes it with status.  Nothing
// reaches w when execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, page string, data Page) error {
	t, ok := e.sets[page]
	if !ok {
		return fmt.Errorf("view: unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout, data); err != nil {
		return fmt.Errorf("view: execute %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

//
// internal: load
//

func readTemplate(overrideDir, name string) ([]byte, string, error) {
	if overrideDir != "" {
		p := filepath.Join(overrideDir, name)
		src, err := os.ReadFile(p)
		if err == nil {
			zap.S().Debugw("template override", "file", p)
			return src, p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, p, err
		}
	}
	src, err := fs.ReadFile(embedded, "templates/"+name)
	return src, "embedded", err
}

//
// func-map builders
//

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":     dict,
		"sitePath": routing.SitePath,
		"year":     func() int { return time.Now().Year() },
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
