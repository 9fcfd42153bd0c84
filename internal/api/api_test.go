package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sheetzu/internal/sheets/sheetstest"
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/tenant"
)

const base = "sheetzu.com"

type fixture struct {
	srv    *sheetstest.Server
	store  *tenant.MemoryStore
	router http.Handler
}

func newFixture(t *testing.T, debug bool) *fixture {
	t.Helper()
	srv := sheetstest.NewServer(t)
	srv.Put("S1", sheetstest.Storefront("Ana Bakes"))
	srv.Put("private", sheetstest.Doc{Status: http.StatusForbidden})
	srv.Put("M", sheetstest.Doc{
		Order: []string{"Users"},
		Tabs: map[string][][]any{"Users": {
			{"isPaid", "username", "sheetId"},
			{"FALSE", "ana", "S1"},
			{"TRUE", "bo", "S2"},
		}},
	})

	client := srv.Client(t)
	store := tenant.NewMemoryStore()
	a := New(Deps{
		Sheets:         client,
		ServiceAccount: "bot@proj.iam.gserviceaccount.com",
		Registrar:      tenant.NewRegistrar(store, client, base),
		Store:          store,
		Users:          signup.New(client, "M"),
		Debug:          debug,
	})

	r := chi.NewRouter()
	res := tenant.NewResolver(store, tenant.ResolverConfig{BaseDomain: base, DevDomains: []string{"localhost"}})
	r.With(tenant.Middleware(res, nil)).Mount("/api", a.Routes())
	return &fixture{srv: srv, store: store, router: r}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSheet_SlugMapping(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/sheets/Events_Products?sheetId=S1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Range  string  `json:"range"`
		Values [][]any `json:"values"`
	}](t, rec)
	if got.Range != "Events/Products" || len(got.Values) != 2 {
		t.Fatalf("body = %+v", got)
	}
	if got.Values[1][2] != 8.5 {
		t.Errorf("price cell = %#v, want number", got.Values[1][2])
	}
}

func TestSheet_Errors(t *testing.T) {
	f := newFixture(t, false)

	cases := []struct {
		target string
		status int
		msg    string
	}{
		{"/api/sheets/Settings", http.StatusBadRequest, "Sheet ID is required"},
		{"/api/sheets/Settings?sheetId=nope", http.StatusNotFound, "Google Sheet not found"},
		{"/api/sheets/Settings?sheetId=private", http.StatusForbidden, "bot@proj.iam.gserviceaccount.com"},
		{"/api/sheets/Missing?sheetId=S1", http.StatusNotFound, `Sheet "Missing" not found`},
	}
	for _, c := range cases {
		rec := f.do(http.MethodGet, c.target, "")
		if rec.Code != c.status {
			t.Errorf("%s: status %d, want %d", c.target, rec.Code, c.status)
			continue
		}
		if body := decode[errorBody](t, rec); !strings.Contains(body.Error, c.msg) {
			t.Errorf("%s: error %q, want %q", c.target, body.Error, c.msg)
		}
	}
}

func TestSheet_FallsBackToResolvedTenant(t *testing.T) {
	f := newFixture(t, false)
	if rec := f.do(http.MethodPost, "/api/register", `{"username":"Ana Baker!","sheetId":"S1"}`); rec.Code != http.StatusOK {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sheets/Settings", nil)
	req.Host = "anabaker.localhost:8080"
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/api/register", `{"username":"Ana Baker!","sheetId":"S1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	ten := decode[tenant.Tenant](t, rec)
	if ten.Domain != "anabaker."+base || ten.SheetID != "S1" || !ten.IsActive {
		t.Fatalf("tenant = %+v", ten)
	}

	rec = f.do(http.MethodPost, "/api/register", `{"username":"eve","sheetId":"private"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("private sheet status = %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/register", `{"username":"","sheetId":"S1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty username status = %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/register", `{"username":"`+strings.Repeat("a", 65)+`","sheetId":"S1"}`)
	if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "Username must be at most 64 characters" {
		t.Fatalf("long username = %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(http.MethodPost, "/api/register", `{"username":"ana","sheetId":"`+strings.Repeat("s", 129)+`"}`)
	if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "Sheet ID must be at most 128 characters" {
		t.Fatalf("long sheet id = %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(http.MethodPost, "/api/register", `{"username":"!!!","sheetId":"S1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unnormalizable username status = %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/register", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}

	all, _ := f.store.All(t.Context())
	if len(all) != 1 {
		t.Fatalf("directory has %d records, want 1", len(all))
	}
}

func TestValidateSheet(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/validate-sheet?sheetId=S1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[validateResponse](t, rec); !got.Success || got.Title != "Ana Bakes" {
		t.Fatalf("body = %+v", got)
	}

	if rec := f.do(http.MethodGet, "/api/validate-sheet?sheetId=private", ""); rec.Code != http.StatusForbidden {
		t.Errorf("private status = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/validate-sheet", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d", rec.Code)
	}
}

func TestLatest(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/users/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	users := decode[[]signup.User](t, rec)
	if len(users) != 2 || users[0].Username != "bo" || !users[0].IsPaid {
		t.Fatalf("users = %+v", users)
	}

	f.srv.Put("M", sheetstest.Doc{Order: []string{"Users"}, Tabs: map[string][][]any{"Users": {}}})
	if rec := f.do(http.MethodGet, "/api/users/latest", ""); rec.Code != http.StatusNotFound {
		t.Errorf("empty master status = %d", rec.Code)
	}
}

func TestTenants_DebugOnly(t *testing.T) {
	if rec := newFixture(t, false).do(http.MethodGet, "/api/tenants", ""); rec.Code != http.StatusNotFound {
		t.Errorf("tenants without debug: %d", rec.Code)
	}
	f := newFixture(t, true)
	f.do(http.MethodPost, "/api/register", `{"username":"ana","sheetId":"S1"}`)
	rec := f.do(http.MethodGet, "/api/tenants", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[[]tenant.Tenant](t, rec); len(got) != 1 || got[0].Username != "ana" {
		t.Fatalf("tenants = %+v", got)
	}
}
