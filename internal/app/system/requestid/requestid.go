// Package requestid assigns each request a UUID for log correlation.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const Header = "X-Request-ID"

type ctxKey struct{}

// Middleware attaches a request ID to the context and response header.
// An inbound X-Request-ID is trusted and propagated; otherwise a fresh
// UUID is generated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the request ID, or "" if none was assigned.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
