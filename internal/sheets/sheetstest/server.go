// Package sheetstest runs an in-process stand-in for the Sheets v4 API so
// packages that depend on internal/sheets can be tested without network
// access or credentials.
//
//	srv := sheetstest.NewServer(t)
//	srv.Put("S1", sheetstest.Doc{Title: "Shop", Tabs: ...})
//	cli := srv.Client(t)
package sheetstest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/yanizio/sheetzu/internal/sheets"
)

// Doc is one fake spreadsheet.
type Doc struct {
	Title string

	// Tabs maps tab name to rows.  Order is the Order slice when set,
	// otherwise tab names are reported in map order.
	Tabs  map[string][][]any
	Order []string

	// Status, when non-zero, is returned for every request on this doc
	// (for example 403 to simulate an unshared sheet).
	Status int

	// FailRanges forces a status code for individual range reads.
	FailRanges map[string]int
}

// Server is a fake Sheets API.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	docs  map[string]Doc
	calls []string
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{docs: map[string]Doc{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Put installs or replaces a document.
func (s *Server) Put(id string, d Doc) {
	s.mu.Lock()
	s.docs[id] = d
	s.mu.Unlock()
}

// Calls returns every request seen so far as "metadata:<id>" or
// "range:<id>:<range>".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Client returns a sheets.Client wired to this server.
func (s *Server) Client(t testing.TB) *sheets.Client {
	t.Helper()
	cli, err := sheets.New(context.Background(), sheets.Options{
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(s.URL + "/"),
			option.WithoutAuthentication(),
			option.WithHTTPClient(s.Server.Client()),
		},
	})
	if err != nil {
		t.Fatalf("sheetstest: client: %v", err)
	}
	return cli
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets/")
	if !ok {
		writeError(w, http.StatusNotFound, "unknown path")
		return
	}

	id, tail, _ := strings.Cut(rest, "/")
	if tail == "" {
		s.metadata(w, id)
		return
	}
	rng, ok := strings.CutPrefix(tail, "values/")
	if !ok {
		writeError(w, http.StatusNotFound, "unknown path")
		return
	}
	s.values(w, id, rng)
}

func (s *Server) metadata(w http.ResponseWriter, id string) {
	s.mu.Lock()
	s.calls = append(s.calls, "metadata:"+id)
	d, ok := s.docs[id]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	if d.Status != 0 {
		writeError(w, d.Status, http.StatusText(d.Status))
		return
	}

	type props struct {
		Title string `json:"title"`
	}
	type tab struct {
		Properties props `json:"properties"`
	}
	out := struct {
		SpreadsheetID string `json:"spreadsheetId"`
		Properties    props  `json:"properties"`
		Sheets        []tab  `json:"sheets"`
	}{SpreadsheetID: id, Properties: props{Title: d.Title}}
	for _, name := range d.tabNames() {
		out.Sheets = append(out.Sheets, tab{Properties: props{Title: name}})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) values(w http.ResponseWriter, id, rng string) {
	s.mu.Lock()
	s.calls = append(s.calls, "range:"+id+":"+rng)
	d, ok := s.docs[id]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	if d.Status != 0 {
		writeError(w, d.Status, http.StatusText(d.Status))
		return
	}
	if code, bad := d.FailRanges[rng]; bad {
		writeError(w, code, http.StatusText(code))
		return
	}

	rows, found := d.lookup(rng)
	if !found {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unable to parse range: %s", rng))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"range":          rng,
		"majorDimension": "ROWS",
		"values":         rows,
	})
}

func (d Doc) tabNames() []string {
	if len(d.Order) > 0 {
		return d.Order
	}
	names := make([]string, 0, len(d.Tabs))
	for n := range d.Tabs {
		names = append(names, n)
	}
	return names
}

// lookup understands tab names, "A1", and "A:C" on the first tab.
func (d Doc) lookup(rng string) ([][]any, bool) {
	if rows, ok := d.Tabs[rng]; ok {
		return rows, true
	}

	names := d.tabNames()
	var first [][]any
	if len(names) > 0 {
		first = d.Tabs[names[0]]
	}

	switch rng {
	case sheets.ProbeRange:
		if len(first) == 0 || len(first[0]) == 0 {
			return nil, true
		}
		return [][]any{{first[0][0]}}, true
	case "A:C":
		out := make([][]any, 0, len(first))
		for _, row := range first {
			if len(row) > 3 {
				row = row[:3]
			}
			out = append(out, row)
		}
		return out, true
	}
	return nil, false
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Storefront returns a document holding the three storefront tabs.
func Storefront(title string) Doc {
	return Doc{
		Title: title,
		Order: []string{"Events/Products", "Settings", "WebPages"},
		Tabs: map[string][][]any{
			"Events/Products": {
				{"Name", "Description", "Price"},
				{"Sourdough", "Slow rise", 8.5},
			},
			"Settings": {
				{"Key", "Value"},
				{"Title", title},
				{"Description", "Fresh every morning"},
				{"Footer Text", "Baked in Lisbon"},
			},
			"WebPages": {
				{"Title", "Content"},
				{"About Us", "We bake."},
			},
		},
	}
}
