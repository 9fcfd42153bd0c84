// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ForceHTTPS returns a wrapper that issues a 308 Permanent Redirect to the
// HTTPS version of plain-HTTP requests.  Requests already on TLS, those a
// proxy marks with `X-Forwarded-Proto: https`, and hosts under a dev alias
// (`localhost`, `ana.localhost:8080`) pass through unchanged.  A disabled
// wrapper is the identity.
func ForceHTTPS(enabled bool, devHosts []string) func(http.Handler) http.Handler {
	dev := make(map[string]struct{}, len(devHosts))
	for _, d := range devHosts {
		dev[strings.ToLower(d)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" || isDev(dev, r.Host) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusPermanentRedirect)
		})
	}
}

// isDev reports whether host, or the part after its first label, is a dev
// alias.
func isDev(dev map[string]struct{}, host string) bool {
	h := strings.ToLower(stripPort(host))
	if _, ok := dev[h]; ok {
		return true
	}
	_, rest, found := strings.Cut(h, ".")
	if !found {
		return false
	}
	_, ok := dev[rest]
	return ok
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return h
}
