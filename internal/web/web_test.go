package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/yanizio/sheetzu/internal/form"
	"github.com/yanizio/sheetzu/internal/sheets/sheetstest"
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/site"
	"github.com/yanizio/sheetzu/internal/tenant"
	"github.com/yanizio/sheetzu/internal/view"
)

const base = "sheetzu.com"

type fixture struct {
	srv    *sheetstest.Server
	store  *tenant.MemoryStore
	csrf   *form.Signer
	router http.Handler
}

func newFixture(t *testing.T, unresolved string) *fixture {
	t.Helper()
	srv := sheetstest.NewServer(t)
	srv.Put("S1", sheetstest.Storefront("Ana Bakes"))
	srv.Put("M", sheetstest.Doc{
		Order: []string{"Users"},
		Tabs: map[string][][]any{"Users": {
			{"isPaid", "username", "sheetId"},
			{"FALSE", "legacy", "S1"},
		}},
	})

	views, err := view.New("")
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	client := srv.Client(t)
	store := tenant.NewMemoryStore()
	csrf := form.NewSigner("")
	w := New(Deps{
		CSRF:  csrf,
		Views: views,
		Resolver: tenant.NewResolver(store, tenant.ResolverConfig{
			BaseDomain: base,
			DevDomains: []string{"localhost", "127.0.0.1"},
			Reserved:   []string{"www", "app", "admin", "sheetzu"},
		}),
		Aggregator:     site.NewAggregator(client),
		Registrar:      tenant.NewRegistrar(store, client, base),
		Users:          signup.New(client, "M"),
		Product:        "sheetzu",
		ServiceAccount: "bot@proj.iam.gserviceaccount.com",
		Unresolved:     unresolved,
	})
	return &fixture{srv: srv, store: store, csrf: csrf, router: w.Routes()}
}

func (f *fixture) get(host, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) register(username, sheetID string) *httptest.ResponseRecorder {
	tok, _ := f.csrf.Token()
	return f.post(url.Values{"username": {username}, "sheetId": {sheetID}, form.FieldName: {tok}})
}

func (f *fixture) post(vals url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(vals.Encode()))
	req.Host = base
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func rangeCalls(calls []string) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c, "range:") {
			out = append(out, c)
		}
	}
	return out
}

func TestGhostHost_NotFoundWithoutUpstreamCalls(t *testing.T) {
	f := newFixture(t, OnMissNotFound)

	rec := f.get("ghost."+base, "/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ghost."+base) {
		t.Error("not-found page does not name the host")
	}
	if calls := f.srv.Calls(); len(calls) != 0 {
		t.Fatalf("upstream calls for ghost host: %v", calls)
	}
}

func TestGhostHost_Redirect(t *testing.T) {
	f := newFixture(t, OnMissRedirect)

	rec := f.get("ghost."+base, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "http://"+base+"/" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRegisterThenVisit(t *testing.T) {
	f := newFixture(t, OnMissNotFound)

	rec := f.register("Ana Baker!", "S1")
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "anabaker."+base) {
		t.Error("confirmation does not show the new domain")
	}

	before := len(rangeCalls(f.srv.Calls()))
	rec = f.get("anabaker."+base, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("site status = %d body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Ana Bakes</title>", "Sourdough", "8.5", `id="about-us"`, "Fresh every morning", `<p class="site-footer">Baked in Lisbon</p>`} {
		if !strings.Contains(body, want) {
			t.Errorf("site page missing %q", want)
		}
	}

	got := rangeCalls(f.srv.Calls())[before:]
	want := []string{"range:S1:Events/Products", "range:S1:Settings", "range:S1:WebPages"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("fetches = %v, want %v", got, want)
	}

	// Dev alias reaches the same record.
	if rec := f.get("anabaker.localhost:8080", "/"); rec.Code != http.StatusOK {
		t.Errorf("dev alias status = %d", rec.Code)
	}
}

func TestRegister_Rejected(t *testing.T) {
	f := newFixture(t, OnMissNotFound)
	f.srv.Put("private", sheetstest.Doc{Status: http.StatusForbidden})

	rec := f.register("eve", "private")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bot@proj.iam.gserviceaccount.com") {
		t.Error("access-denied message does not name the service account")
	}
	if all, _ := f.store.All(t.Context()); len(all) != 0 {
		t.Fatalf("directory changed: %+v", all)
	}

	if rec := f.register("", "S1"); rec.Code != http.StatusBadRequest {
		t.Errorf("empty username status = %d", rec.Code)
	}

	rec = f.post(url.Values{"username": {"mallory"}, "sheetId": {"S1"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing csrf token status = %d", rec.Code)
	}
	if all, _ := f.store.All(t.Context()); len(all) != 0 {
		t.Fatalf("registered without csrf token: %+v", all)
	}
}

func TestSectionFailure_ErrorView(t *testing.T) {
	f := newFixture(t, OnMissNotFound)
	f.register("ana", "S1")

	doc := sheetstest.Storefront("Ana Bakes")
	doc.FailRanges = map[string]int{"Events/Products": http.StatusForbidden}
	f.srv.Put("S1", doc)

	rec := f.get("ana."+base, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if n := len(rangeCalls(f.srv.Calls())); n != 2 { // probe at register + Events/Products
		t.Errorf("range calls = %d, want 2: %v", n, f.srv.Calls())
	}
}

func TestStorefront_TitleFallsBackToUsername(t *testing.T) {
	f := newFixture(t, OnMissNotFound)
	doc := sheetstest.Storefront("")
	doc.Tabs["Settings"] = [][]any{{"Key", "Value"}}
	f.srv.Put("S2", doc)

	if rec := f.register("Bo", "S2"); rec.Code != http.StatusOK {
		t.Fatalf("register status = %d", rec.Code)
	}
	rec := f.get("bo."+base, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("site status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Bo&#39;s Website</h1>") {
		t.Errorf("missing username fallback title in %s", body)
	}
	if strings.Contains(body, "site-footer") {
		t.Error("footer rendered without footer text")
	}
}

func TestHomeAndUserPage(t *testing.T) {
	f := newFixture(t, OnMissNotFound)

	rec := f.get(base, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("home status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/legacy"`) {
		t.Error("home page missing latest signup")
	}
	if !strings.Contains(rec.Body.String(), `name="csrf_token" value="`) {
		t.Error("home page missing csrf token")
	}

	rec = f.get(base, "/legacy")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sourdough") {
		t.Fatalf("user page status = %d", rec.Code)
	}

	if rec := f.get(base, "/nobody"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d", rec.Code)
	}

	before := len(f.srv.Calls())
	if rec := f.get(base, "/favicon.ico"); rec.Code != http.StatusNotFound {
		t.Errorf("favicon status = %d", rec.Code)
	}
	if len(f.srv.Calls()) != before {
		t.Error("favicon request reached the spreadsheet API")
	}
}

func TestReservedSubdomainIsMainSite(t *testing.T) {
	f := newFixture(t, OnMissNotFound)
	rec := f.get("www."+base, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/register"`) {
		t.Fatalf("www status = %d", rec.Code)
	}
}
