// internal/tenant/helpers.go
//
// Host-name helpers shared by the registrar, the resolver, and tests.
//
//   • Normalize: lowercases a username and drops every rune outside
//     [a-z0-9], so "Ana Baker!" becomes "anabaker".
//   • DomainFor: the one canonical construction of a tenant domain.
//   • stripPort: removes ":port" from a Host header.
//   • splitHost: first label and the remaining labels.
//
// No logging here; caller decides what to log.

package tenant

import (
	"net"
	"strings"
)

// Normalize turns a username into its subdomain label.
func Normalize(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DomainFor returns Normalize(username) + "." + baseDomain, all lowercase
// so it matches what Resolver looks up.
func DomainFor(username, baseDomain string) string {
	return Normalize(username) + "." + strings.ToLower(baseDomain)
}

// stripPort removes :port from the Host header when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return h
}

// splitHost returns the first label and everything after the first dot.
func splitHost(h string) (sub, rest string) {
	sub, rest, _ = strings.Cut(h, ".")
	return sub, rest
}
