// internal/api/api.go
//
// JSON endpoints under /api.
//
// Context
// -------
// The storefront pages render server-side, but the same data is exposed
// as JSON for client scripts and for the registration flow:
//
//   GET  /api/sheets/{section...}?sheetId=   one range, raw grid
//   GET  /api/users/latest                   last ten master-sheet signups
//   GET  /api/validate-sheet?sheetId=        metadata + A1 probe
//   POST /api/register                       {username, sheetId}
//   GET  /api/tenants                        directory dump (debug only)
//
// Errors are `{"error": "<message>"}` with the status chosen by StatusOf.
//
// Notes
// -----
//   • `sheetId` on /api/sheets falls back to the tenant resolved from the
//     Host header, so a storefront can call `/api/sheets/Settings` bare.
//   • Oxford commas, two spaces after periods.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/sheetzu/internal/sheets"
	"github.com/yanizio/sheetzu/internal/signup"
	"github.com/yanizio/sheetzu/internal/site"
	"github.com/yanizio/sheetzu/internal/tenant"
)

// LatestLimit is the size of /api/users/latest.
const LatestLimit = signup.DefaultLimit

const maxBody = 64 << 10

// Sheets is the slice of *sheets.Client the handlers use.
type Sheets interface {
	GetMetadata(ctx context.Context, sheetID string) (sheets.Metadata, error)
	GetRange(ctx context.Context, sheetID, rng string) (sheets.ValueRange, error)
	Check(ctx context.Context, sheetID string) (sheets.Metadata, error)
}

var _ Sheets = (*sheets.Client)(nil)

// Deps wires the handlers.  Users may be nil when no master sheet is
// configured.
type Deps struct {
	Sheets         Sheets
	ServiceAccount string
	Registrar      *tenant.Registrar
	Store          tenant.Store
	Users          *signup.Directory
	Debug          bool
}

// API serves the JSON endpoints.
type API struct {
	Deps
	validate *validator.Validate
}

func New(d Deps) *API {
	return &API{Deps: d, validate: validator.New()}
}

// Routes returns the /api sub-router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/sheets/*", a.sheet)
	r.Get("/users/latest", a.latest)
	r.Get("/validate-sheet", a.validateSheet)
	r.Post("/register", a.register)
	if a.Debug {
		r.Get("/tenants", a.tenants)
	}
	return r
}

//
// Handlers
//

func (a *API) sheet(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "Sheet name is required")
		return
	}
	rng := site.RangeForSlug(name)

	id := r.URL.Query().Get("sheetId")
	if id == "" {
		if res, ok := tenant.FromContext(r.Context()); ok && res.Outcome == tenant.Resolved {
			id = res.SheetID
		}
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "Sheet ID is required")
		return
	}

	// Metadata first so a missing document and a missing tab get
	// different messages.
	if _, err := a.Sheets.GetMetadata(r.Context(), id); err != nil {
		a.fail(w, r, err, rng, "Failed to fetch sheet data")
		return
	}
	vr, err := a.Sheets.GetRange(r.Context(), id, rng)
	if err != nil {
		a.fail(w, r, err, rng, "Failed to fetch sheet data")
		return
	}
	writeJSON(w, http.StatusOK, vr)
}

func (a *API) latest(w http.ResponseWriter, r *http.Request) {
	if a.Users == nil {
		writeError(w, http.StatusNotFound, "No data found in master sheet")
		return
	}
	users, err := a.Users.Latest(r.Context(), LatestLimit)
	if errors.Is(err, signup.ErrEmpty) {
		writeError(w, http.StatusNotFound, "No data found in master sheet")
		return
	}
	if err != nil {
		a.fail(w, r, err, signup.MasterRange, "Failed to fetch latest signups")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type validateResponse struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
}

func (a *API) validateSheet(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sheetId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Sheet ID is required")
		return
	}
	md, err := a.Sheets.Check(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, sheets.ProbeRange, "Error accessing Google Sheet")
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Success: true, Title: md.Title})
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	SheetID  string `json:"sheetId"  validate:"required,max=128"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, invalidMessage(err))
		return
	}

	t, err := a.Registrar.Create(r.Context(), req.Username, req.SheetID)
	if err != nil {
		a.fail(w, r, err, sheets.ProbeRange, "Failed to register tenant")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// invalidMessage reports the first failing rule of a registerRequest.
func invalidMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid registration request"
	}
	fe := verrs[0]
	name := "Username"
	if fe.StructField() == "SheetID" {
		name = "Sheet ID"
	}
	switch fe.Tag() {
	case "required":
		return "Username and sheet ID are required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

func (a *API) tenants(w http.ResponseWriter, r *http.Request) {
	all, err := a.Store.All(r.Context())
	if err != nil {
		a.fail(w, r, err, "", "Failed to list tenants")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

//
// Errors
//

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, tenant.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, sheets.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, sheets.ErrNotFound),
		errors.Is(err, sheets.ErrRangeNotFound),
		errors.Is(err, signup.ErrEmpty):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message renders err for end users.  Access-denied messages name the
// service account the sheet must be shared with.
func Message(err error, rng, serviceAccount, fallback string) string {
	switch {
	case errors.Is(err, tenant.ErrInvalid):
		return "Username and sheet ID are required"
	case errors.Is(err, sheets.ErrAccessDenied):
		if serviceAccount == "" {
			return "Access denied. Please make sure the Google Sheet is shared with the service account."
		}
		return "Access denied. Please make sure the Google Sheet is shared with the service account email: " + serviceAccount
	case errors.Is(err, sheets.ErrNotFound):
		return "Google Sheet not found. Please check the Sheet ID and make sure the sheet exists."
	case errors.Is(err, sheets.ErrRangeNotFound):
		return fmt.Sprintf("Sheet %q not found in the spreadsheet. Please make sure it exists.", rng)
	default:
		return fallback
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error, rng, fallback string) {
	status := StatusOf(err)
	log := zap.L().With(zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	if status >= http.StatusInternalServerError {
		log.Error("api request failed")
	} else {
		log.Info("api request rejected")
	}
	writeError(w, status, Message(err, rng, a.ServiceAccount, fallback))
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}
