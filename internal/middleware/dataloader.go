package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/recordsearch/internal/domain"
)

type ctxKey string

const lookupKey ctxKey = "entityLookup"

// LookupMiddleware attaches a request scoped lookup to the request context. build
// is called once per request so batching loaders never share their cache across
// requests.
func LookupMiddleware(build func() domain.EntityLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLookup(r.Context(), build())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLookup stores lookup in ctx.
func WithLookup(ctx context.Context, lookup domain.EntityLookup) context.Context {
	return context.WithValue(ctx, lookupKey, lookup)
}

// LookupFromContext retrieves the request lookup, or nil when none is attached.
func LookupFromContext(ctx context.Context) domain.EntityLookup {
	if l, ok := ctx.Value(lookupKey).(domain.EntityLookup); ok {
		return l
	}
	return nil
}
