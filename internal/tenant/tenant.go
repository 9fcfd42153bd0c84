// internal/tenant/tenant.go
//
// Tenant record and directory contract.
//
// Context
// -------
// A Tenant is one published site: a username, the Google Sheet that backs
// it, and the host name it answers on.  The host name is always derived
// from the username by DomainFor; it is never set independently, or
// lookups would silently miss.
//
// The directory itself is the Store interface.  MemoryStore is the
// default and forgets everything on restart.  SQLStore keeps records in
// MySQL, and CachedStore fronts either one with an idle-evicting read
// cache.
//
// Notes
// -----
//   - IsActive is true on creation and nothing transitions it.
//   - UpdatedAt is set once, at creation.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks caller input that fails validation (missing username
// or sheet id, or a username with no usable characters).
var ErrInvalid = errors.New("invalid tenant input")

// Tenant mirrors one directory record.
type Tenant struct {
	ID        string    `json:"id"        db:"id"`
	Username  string    `json:"username"  db:"username"`
	SheetID   string    `json:"sheetId"   db:"sheet_id"`
	Domain    string    `json:"domain"    db:"domain"`
	IsActive  bool      `json:"isActive"  db:"is_active"`
	IsPaid    bool      `json:"isPaid"    db:"is_paid"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Store is the tenant directory.
//
// ByDomain returns the first record, in insertion order, whose Domain
// equals domain.  A miss is (Tenant{}, false, nil); the error is reserved
// for storage failures.
type Store interface {
	Insert(ctx context.Context, t Tenant) error
	ByDomain(ctx context.Context, domain string) (Tenant, bool, error)
	All(ctx context.Context) ([]Tenant, error)
}

// NewID returns a fresh opaque tenant identifier.
func NewID() string { return uuid.NewString() }
