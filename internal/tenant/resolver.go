// internal/tenant/resolver.go
//
// Host → tenant resolution.
//
// Context
// -------
// Tenant sites answer on `<label>.<base domain>`.  For every inbound
// request the resolver splits the Host header into its first label and the
// rest, then decides one of three outcomes:
//
//   • NotApplicable: the label is reserved (www, app, admin, product
//     name) or the rest is not a base domain.  Serve the main site.
//   • Resolved: the directory holds `<label>.<base domain>`.
//   • Unresolved: a tenant-shaped host with no record.  Callers show
//     the not-found view or redirect to the bare base domain.
//
// Dev aliases (`localhost`, `127.0.0.1`) map onto the production base
// domain, so `ana.localhost:8080` finds the tenant registered as
// `ana.sheetzu.com`.
//
// Notes
// -----
//   • Unresolved is an outcome, not an error.  Resolve only errors when
//     the store itself fails.
//   • Oxford commas, two spaces after periods.
package tenant

import (
	"context"
	"strings"

	"github.com/yanizio/sheetzu/internal/metrics"
)

// Outcome classifies a resolution.
type Outcome int

const (
	NotApplicable Outcome = iota
	Resolved
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "not_applicable"
	}
}

// Resolution is the resolver's verdict plus, on a hit, the fields
// downstream handlers need.
type Resolution struct {
	Outcome   Outcome
	Host      string // lowercased, port stripped
	Subdomain string
	Domain    string // canonical lookup key

	TenantID string
	SheetID  string
	Username string
	IsPaid   bool
}

// ResolverConfig lists the host names the resolver recognises.
type ResolverConfig struct {
	BaseDomain string
	DevDomains []string
	Reserved   []string
}

// Resolver maps Host headers onto directory records.
type Resolver struct {
	store      Store
	baseDomain string
	bases      map[string]struct{}
	reserved   map[string]struct{}
}

// NewResolver builds a Resolver.  BaseDomain is always accepted as a base;
// DevDomains add local aliases.
func NewResolver(store Store, cfg ResolverConfig) *Resolver {
	r := &Resolver{
		store:      store,
		baseDomain: strings.ToLower(cfg.BaseDomain),
		bases:      map[string]struct{}{strings.ToLower(cfg.BaseDomain): {}},
		reserved:   make(map[string]struct{}, len(cfg.Reserved)),
	}
	for _, d := range cfg.DevDomains {
		r.bases[strings.ToLower(stripPort(d))] = struct{}{}
	}
	for _, s := range cfg.Reserved {
		r.reserved[strings.ToLower(s)] = struct{}{}
	}
	return r
}

// BaseDomain returns the production base domain.
func (r *Resolver) BaseDomain() string { return r.baseDomain }

// Resolve classifies host and, for tenant hosts, consults the directory.
func (r *Resolver) Resolve(ctx context.Context, host string) (Resolution, error) {
	h := strings.ToLower(stripPort(host))
	sub, rest := splitHost(h)
	res := Resolution{Host: h, Subdomain: sub}

	_, reserved := r.reserved[sub]
	_, isBase := r.bases[rest]
	if sub == "" || reserved || !isBase {
		metrics.TenantResolveTotal.WithLabelValues(NotApplicable.String()).Inc()
		return res, nil
	}

	res.Domain = sub + "." + r.baseDomain
	t, ok, err := r.store.ByDomain(ctx, res.Domain)
	if err != nil {
		metrics.TenantResolveTotal.WithLabelValues("error").Inc()
		return res, err
	}
	if !ok {
		res.Outcome = Unresolved
		metrics.TenantResolveTotal.WithLabelValues(Unresolved.String()).Inc()
		return res, nil
	}

	res.Outcome = Resolved
	res.TenantID = t.ID
	res.SheetID = t.SheetID
	res.Username = t.Username
	res.IsPaid = t.IsPaid
	metrics.TenantResolveTotal.WithLabelValues(Resolved.String()).Inc()
	return res, nil
}
