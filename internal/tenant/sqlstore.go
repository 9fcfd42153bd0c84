// internal/tenant/sqlstore.go
//
// MySQL-backed tenant directory.
//
// Context
// -------
// SQLStore keeps the directory in the `tenant` table so registrations
// survive restarts and are shared by every instance pointed at the same
// database.  Insertion order, which decides the winner when two usernames
// normalize to the same domain, is the auto-increment `seq` column.
//
// Schema reference
//
//	CREATE TABLE tenant (
//	    seq         BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    id          CHAR(36)      NOT NULL UNIQUE,
//	    username    VARCHAR(255)  NOT NULL,
//	    sheet_id    VARCHAR(255)  NOT NULL,
//	    domain      VARCHAR(255)  NOT NULL,
//	    is_active   TINYINT(1)    NOT NULL DEFAULT 1,
//	    is_paid     TINYINT(1)    NOT NULL DEFAULT 0,
//	    created_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    KEY tenant_domain (domain)
//	);
//
// Notes
// -----
//   - Column list matches the fields in Tenant; update both together.
//   - `is_paid` is only ever set by operators, never by this code.
//   - Errors are returned verbatim so the caller can wrap or log them.
package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const tenantColumns = `id, username, sheet_id, domain, is_active, is_paid,
               created_at, updated_at`

// SQLStore implements Store on a *sqlx.DB.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

// Insert writes one row.
func (s *SQLStore) Insert(ctx context.Context, t Tenant) error {
	const q = `
        INSERT INTO tenant (` + tenantColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		t.ID, t.Username, t.SheetID, t.Domain,
		t.IsActive, t.IsPaid, t.CreatedAt, t.UpdatedAt)
	return err
}

// ByDomain fetches the earliest row for domain.
func (s *SQLStore) ByDomain(ctx context.Context, domain string) (Tenant, bool, error) {
	const q = `
        SELECT ` + tenantColumns + `
        FROM   tenant
        WHERE  domain = ?
        ORDER  BY seq
        LIMIT  1`
	var t Tenant
	err := s.db.GetContext(ctx, &t, q, domain)
	if errors.Is(err, sql.ErrNoRows) {
		return Tenant{}, false, nil
	}
	if err != nil {
		return Tenant{}, false, err
	}
	return t, true, nil
}

// All returns every row in insertion order.
func (s *SQLStore) All(ctx context.Context) ([]Tenant, error) {
	const q = `
        SELECT ` + tenantColumns + `
        FROM   tenant
        ORDER  BY seq`
	var rows []Tenant
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
