// Package requestid tags each request with an id that follows it through
// logs and audit events.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header is the request and response header carrying the id.
const Header = "X-Request-ID"

type ctxKey struct{}

// Middleware reuses an incoming X-Request-ID or generates a new one, echoes
// it on the response and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(Header)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		w.Header().Set(Header, rid)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), rid)))
	})
}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id, or "" if none was set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Field returns a zap field for the request id in ctx.
func Field(ctx context.Context) zap.Field {
	return zap.String("request_id", FromContext(ctx))
}
