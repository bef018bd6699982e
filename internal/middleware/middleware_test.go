package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/recordsearch/internal/domain"
)

func TestLookupMiddlewareBuildsPerRequest(t *testing.T) {
	builds := 0
	build := func() domain.EntityLookup {
		builds++
		return domain.LookupFunc(func(ctx context.Context, entityType domain.EntityType, id string, fields []string) (*domain.EntityStub, error) {
			return domain.NewEntityStub(entityType, id, nil), nil
		})
	}

	var seen domain.EntityLookup
	handler := LookupMiddleware(build)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = LookupFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 2, builds)
	require.NotNil(t, seen)
	stub, err := seen.Lookup(context.Background(), domain.EntityTypePeople, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", stub.UUID)
}

func TestLookupFromContextMissing(t *testing.T) {
	assert.Nil(t, LookupFromContext(context.Background()))
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "[HTTP] request")
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "path=/api/search/filters")
}
