// context.go carries the Resolution through request.Context and provides
// the chi-compatible middleware that computes it.
package tenant

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type ctxKey struct{} // unexported, collision-proof

// WithResolution returns ctx carrying res.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, ctxKey{}, res)
}

// FromContext returns the Resolution stored by Middleware.  ok is false
// when the middleware has not run.
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(ctxKey{}).(Resolution)
	return res, ok
}

// Middleware resolves the Host header of every request and stores the
// result in the request context.  Unresolved hosts go to onMiss; a nil
// onMiss lets them through so the handler can decide.
func Middleware(res *Resolver, onMiss http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out, err := res.Resolve(r.Context(), r.Host)
			if err != nil {
				zap.L().Error("tenant resolve", zap.String("host", r.Host), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			r = r.WithContext(WithResolution(r.Context(), out))
			if out.Outcome == Unresolved && onMiss != nil {
				onMiss.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToBase sends unresolved visitors to the bare base domain,
// keeping the request scheme.
func RedirectToBase(baseDomain string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		http.Redirect(w, r, scheme+"://"+baseDomain+"/", http.StatusFound)
	})
}
