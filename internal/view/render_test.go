package view

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanizio/sheetzu/internal/head"
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/site"
)

func render(t *testing.T, e *Engine, status int, page string, body any) *httptest.ResponseRecorder {
	t.Helper()
	h := head.New()
	h.SetTitle("T")
	rec := httptest.NewRecorder()
	if err := e.Render(rec, status, page, Page{Head: h, Product: "sheetzu", Body: body}); err != nil {
		t.Fatalf("Render(%s): %v", page, err)
	}
	return rec
}

func TestEmbeddedPages(t *testing.T) {
	e, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := render(t, e, http.StatusOK, Site, SiteBody{
		Title: "Ana <Bakery>",
		Items: []site.Item{{Name: "Bread", Price: "4.50"}},
		Pages: []site.Page{{Title: "About", Slug: "about", Content: "Since 1999"}},
	})
	body := rec.Body.String()
	for _, want := range []string{"Ana &lt;Bakery&gt;", "Bread", "4.50", `id="about"`, "Since 1999"} {
		if !strings.Contains(body, want) {
			t.Errorf("site page missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = render(t, e, http.StatusOK, Home, HomeBody{
		Latest: []signup.User{{Username: "user15", IsPaid: true}},
	})
	if !strings.Contains(rec.Body.String(), `href="/user15"`) {
		t.Error("home page missing latest signup link")
	}

	rec = render(t, e, http.StatusNotFound, NotFound, NotFoundBody{Host: "ghost.sheetzu.com", HomeURL: "https://sheetzu.com/"})
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "ghost.sheetzu.com") {
		t.Errorf("notfound = %d %s", rec.Code, rec.Body.String())
	}

	rec = render(t, e, http.StatusInternalServerError, Error, ErrorBody{Message: "boom"})
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("error = %d", rec.Code)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	src := `{{ define "content" }}custom {{ .Body.Host }}{{ end }}`
	if err := os.WriteFile(filepath.Join(dir, "notfound.html"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := render(t, e, http.StatusNotFound, NotFound, NotFoundBody{Host: "x"})
	if !strings.Contains(rec.Body.String(), "custom x") {
		t.Errorf("override ignored: %s", rec.Body.String())
	}
}

func TestRender_UnknownPage(t *testing.T) {
	e, _ := New("")
	rec := httptest.NewRecorder()
	if err := e.Render(rec, http.StatusOK, "nope", Page{Head: head.New()}); err == nil {
		t.Fatal("unknown page rendered")
	}
	if rec.Body.Len() != 0 {
		t.Error("partial output written")
	}
}
