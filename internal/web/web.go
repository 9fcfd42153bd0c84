// internal/web/web.go
//
// HTML pages.
//
// Context
// -------
// One router serves every host.  tenant.Middleware classifies the Host
// header first; the handlers then branch on the outcome:
//
//   • Resolved       – `GET /` renders the tenant's storefront from its
//     three spreadsheet sections.
//   • NotApplicable  – the main site: `GET /` is the home page with the
//     registration form and latest signups, `POST /register` creates a
//     tenant after checking the form's CSRF token, `GET /{username}`
//     renders a master-sheet user's storefront.
//   • Unresolved     – never reaches these handlers; the middleware hands
//     it to the not-found view or the base-domain redirect.
//
// Instrumentation
// ---------------
//   • One INFO line per rendered page with visitor fields from
//     requestinfo, plus the page_views_total counter.
//   • Section fetch failures render error.html (500) and log at WARN.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/sheetzu/internal/api"
	"github.com/yanizio/sheetzu/internal/form"
	"github.com/yanizio/sheetzu/internal/head"
	"github.com/yanizio/sheetzu/internal/metrics"
	"github.com/yanizio/sheetzu/internal/requestinfo"
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/site"
	"github.com/yanizio/sheetzu/internal/tenant"
	"github.com/yanizio/sheetzu/internal/view"
)

// Unresolved-host policies.
const (
	OnMissNotFound = "notfound"
	OnMissRedirect = "redirect"
)

// Deps wires the page handlers.  Users may be nil.
type Deps struct {
	Views          *view.Engine
	Resolver       *tenant.Resolver
	Aggregator     *site.Aggregator
	Registrar      *tenant.Registrar
	Users          *signup.Directory
	CSRF           *form.Signer
	Product        string
	ServiceAccount string
	Unresolved     string
}

// Web renders every HTML page.
type Web struct {
	Deps
}

func New(d Deps) *Web { return &Web{Deps: d} }

// Routes returns the page router.  Mount it at "/".
func (h *Web) Routes() chi.Router {
	onMiss := http.HandlerFunc(h.notFound)
	var miss http.Handler = onMiss
	if h.Unresolved == OnMissRedirect {
		miss = tenant.RedirectToBase(h.Resolver.BaseDomain())
	}

	r := chi.NewRouter()
	r.Use(requestinfo.Enrich)
	r.Use(tenant.Middleware(h.Resolver, miss))

	r.Get("/", h.index)
	r.Post("/register", h.mainOnly(h.register))
	r.Get("/{username}", h.mainOnly(h.userSite))
	r.NotFound(onMiss)
	return r
}

// mainOnly 404s on tenant hosts.
func (h *Web) mainOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if res, _ := tenant.FromContext(r.Context()); res.Outcome == tenant.Resolved {
			h.notFound(w, r)
			return
		}
		next(w, r)
	}
}

//
// Handlers
//

func (h *Web) index(w http.ResponseWriter, r *http.Request) {
	if res, _ := tenant.FromContext(r.Context()); res.Outcome == tenant.Resolved {
		h.storefront(w, r, res.SheetID, res.Username)
		return
	}
	h.home(w, r, http.StatusOK, view.HomeBody{})
}

func (h *Web) register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		h.home(w, r, http.StatusBadRequest, view.HomeBody{Error: "Could not read the form."})
		return
	}
	in := view.RegisterForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		SheetID:  strings.TrimSpace(r.PostForm.Get("sheetId")),
	}
	if !h.CSRF.Verify(r.PostForm.Get(form.FieldName)) {
		h.home(w, r, http.StatusBadRequest, view.HomeBody{Form: in, Error: "This form expired.  Please submit it again."})
		return
	}

	t, err := h.Registrar.Create(r.Context(), in.Username, in.SheetID)
	if err != nil {
		msg := api.Message(err, "", h.ServiceAccount, "Registration failed.  Please try again.")
		h.home(w, r, api.StatusOf(err), view.HomeBody{Form: in, Error: msg})
		return
	}
	h.home(w, r, http.StatusOK, view.HomeBody{Created: &t, SiteURL: schemeOf(r) + "://" + t.Domain + "/"})
}

func (h *Web) userSite(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "username"))
	// Asset-looking paths (favicon.ico, robots.txt) never hit the sheet.
	if err != nil || h.Users == nil || strings.Contains(name, ".") {
		h.notFound(w, r)
		return
	}
	u, ok, err := h.Users.Find(r.Context(), name)
	if err != nil && !errors.Is(err, signup.ErrEmpty) {
		h.fail(w, r, err, "We could not load the site directory.")
		return
	}
	if !ok {
		h.notFound(w, r)
		return
	}
	h.storefront(w, r, u.SheetID, u.Username)
}

func (h *Web) notFound(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if res, ok := tenant.FromContext(r.Context()); ok && res.Host != "" {
		host = res.Host
	}
	hb := head.New()
	hb.SetTitle("Site not found")
	hb.Meta("robots", "noindex")
	h.render(w, r, http.StatusNotFound, view.NotFound, hb, view.NotFoundBody{
		Host:    host + r.URL.Path,
		HomeURL: schemeOf(r) + "://" + h.Resolver.BaseDomain() + "/",
	})
}

//
// Rendering
//

// storefront fetches all three sections and renders site.html, or the
// error view when any section fails.
func (h *Web) storefront(w http.ResponseWriter, r *http.Request, sheetID, username string) {
	data, err := h.Aggregator.Fetch(r.Context(), sheetID)
	if err != nil {
		msg := "This site's content could not be loaded."
		var se *site.SectionError
		if errors.As(err, &se) {
			msg = "This site's " + se.Range + " sheet could not be loaded."
		}
		h.fail(w, r, err, msg)
		return
	}

	title := firstNonEmpty(data.Setting("title"), data.Setting("sitename"), username+"'s Website")
	desc := data.Setting("description")

	hb := head.New()
	hb.SetTitle(title)
	hb.Meta("description", desc)
	hb.Property("og:title", title)
	hb.Property("og:description", desc)
	hb.Property("og:image", data.Setting("image"))
	hb.Link("icon", data.Setting("favicon"))
	hb.JSONLD(storeLD{Context: "https://schema.org", Type: "Store", Name: title, Description: desc})

	h.render(w, r, http.StatusOK, view.Site, hb, view.SiteBody{
		Title:   title,
		Tagline: firstNonEmpty(data.Setting("tagline"), desc),
		Items:   data.Items(),
		Pages:   data.Pages(),
		Footer:  data.Setting("footertext"),
	})
}

type storeLD struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *Web) home(w http.ResponseWriter, r *http.Request, status int, body view.HomeBody) {
	if h.Users != nil {
		latest, err := h.Users.Latest(r.Context(), signup.DefaultLimit)
		if err != nil && !errors.Is(err, signup.ErrEmpty) {
			zap.L().Warn("latest signups", zap.Error(err))
		}
		body.Latest = latest
	}
	body.ServiceAccount = h.ServiceAccount
	tok, err := h.CSRF.Token()
	if err != nil {
		h.fail(w, r, err, "The registration form is unavailable.")
		return
	}
	body.CSRFToken = tok

	hb := head.New()
	hb.SetTitle(h.Product)
	hb.Meta("description", "Publish a storefront from a Google Sheet.")
	h.render(w, r, status, view.Home, hb, body)
}

func (h *Web) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zap.L().Warn("page failed",
		zap.String("host", r.Host),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	hb := head.New()
	hb.SetTitle("Error")
	hb.Meta("robots", "noindex")
	h.render(w, r, http.StatusInternalServerError, view.Error, hb, view.ErrorBody{
		Message:   msg,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

func (h *Web) render(w http.ResponseWriter, r *http.Request, status int, page string, hb *head.Builder, body any) {
	if err := h.Views.Render(w, status, page, view.Page{Head: hb, Product: h.Product, Body: body}); err != nil {
		zap.L().Error("render", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pageView(r, page, status)
}

// pageView logs the visit and bumps the page-view counter.
func pageView(r *http.Request, page string, status int) {
	info := requestinfo.FromContext(r.Context())
	if info == nil {
		return
	}
	metrics.PageViewsTotal.WithLabelValues(info.UA.Device, strconv.FormatBool(info.UA.IsBot)).Inc()
	fields := append([]any{"page", page, "status", status, "host", r.Host}, info.LogFields()...)
	zap.S().Infow("page view", fields...)
}

//
// Helpers
//

func schemeOf(r *http.Request) string {
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
