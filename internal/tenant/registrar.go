package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/sheetzu/internal/metrics"
	"github.com/yanizio/sheetzu/internal/sheets"
)

// Checker confirms a spreadsheet is readable end to end.  *sheets.Client
// satisfies it.
type Checker interface {
	Check(ctx context.Context, sheetID string) (sheets.Metadata, error)
}

// Registrar creates tenants.  A tenant is only written after its sheet
// passes Checker, so the directory never holds an unreadable sheet.
type Registrar struct {
	store      Store
	checker    Checker
	baseDomain string

	now   func() time.Time
	newID func() string
}

// NewRegistrar wires a Registrar.
func NewRegistrar(store Store, checker Checker, baseDomain string) *Registrar {
	return &Registrar{
		store:      store,
		checker:    checker,
		baseDomain: baseDomain,
		now:        time.Now,
		newID:      NewID,
	}
}

// Create validates input, checks sheet access, and inserts the record.
// Sheet failures keep their sheets taxonomy member (ErrNotFound,
// ErrAccessDenied, ...); bad input wraps ErrInvalid.
func (r *Registrar) Create(ctx context.Context, username, sheetID string) (Tenant, error) {
	username = strings.TrimSpace(username)
	sheetID = strings.TrimSpace(sheetID)
	if username == "" || sheetID == "" {
		metrics.TenantRegisterTotal.WithLabelValues("invalid").Inc()
		return Tenant{}, fmt.Errorf("%w: username and sheet id are required", ErrInvalid)
	}
	if Normalize(username) == "" {
		metrics.TenantRegisterTotal.WithLabelValues("invalid").Inc()
		return Tenant{}, fmt.Errorf("%w: username %q has no letters or digits", ErrInvalid, username)
	}

	md, err := r.checker.Check(ctx, sheetID)
	if err != nil {
		metrics.TenantRegisterTotal.WithLabelValues("sheet_error").Inc()
		zap.L().Info("tenant registration rejected",
			zap.String("username", username),
			zap.String("sheet_id", sheetID),
			zap.Error(err))
		return Tenant{}, fmt.Errorf("register %q: %w", username, err)
	}

	now := r.now().UTC()
	t := Tenant{
		ID:        r.newID(),
		Username:  username,
		SheetID:   sheetID,
		Domain:    DomainFor(username, r.baseDomain),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Insert(ctx, t); err != nil {
		metrics.TenantRegisterTotal.WithLabelValues("store_error").Inc()
		return Tenant{}, fmt.Errorf("store tenant %q: %w", username, err)
	}

	metrics.TenantRegisterTotal.WithLabelValues("ok").Inc()
	zap.L().Info("tenant registered",
		zap.String("id", t.ID),
		zap.String("domain", t.Domain),
		zap.String("sheet_title", md.Title))
	return t, nil
}
