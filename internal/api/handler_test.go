package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/lookup"
	"github.com/rpattn/recordsearch/internal/repository"
	"github.com/rpattn/recordsearch/internal/registry"
	"github.com/rpattn/recordsearch/internal/search"
)

type fixture struct {
	router http.Handler
	org    domain.Record
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	org := domain.NewRecord(domain.EntityTypeOrganizations, map[string]string{
		"shortName": "EF 2.2",
		"longName":  "Ministry of Planning",
	})
	repo := repository.NewMemoryRecordRepository(org)

	rehydrator := search.NewRehydrator(registry.Default(), nil)
	perRequest := func() domain.EntityLookup {
		return lookup.NewBatched(repo, 0)
	}
	router := NewRouter(RouterConfig{
		Search:   New(rehydrator, nil),
		Records:  NewRecordsHandler(repo, nil),
		Lookup:   perRequest,
		Gatherer: prometheus.NewRegistry(),
	})
	return fixture{router: router, org: org}
}

func (f fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleFiltersListsExtrasFirst(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/search/filters?entityType=positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FiltersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.EntityTypePositions, resp.EntityType)
	require.NotEmpty(t, resp.Filters)
	assert.Equal(t, "matchPersonName", resp.Filters[0].Key)
	assert.True(t, resp.Filters[0].IsExtra)
	assert.Equal(t, "positionType", resp.Filters[1].Key)
	assert.Len(t, resp.Filters[1].Options, 4)
}

func TestHandleFiltersRejectsUnknownEntityType(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/search/filters?entityType=Spaceships", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/search/filters", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCompose(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/search/compose", map[string]any{
		"entityType": "People",
		"filters": []map[string]any{
			{"key": "status", "value": map[string]any{"value": "INACTIVE"}},
			{"key": "organizationUuid", "value": map[string]any{"value": map[string]any{"uuid": f.org.ID.String(), "shortName": "EF 2.2"}}},
			{"key": "unknownKey", "value": map[string]any{"value": "x"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ComposeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INACTIVE", resp.Query["status"])
	assert.Equal(t, f.org.ID.String(), resp.Query["organizationUuid"])
	assert.Len(t, resp.Query, 2)
	assert.Equal(t, "organizationUuid="+f.org.ID.String()+"&status=INACTIVE", resp.QueryString)
}

func TestHandleComposeRejectsInvalidValue(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/search/compose", map[string]any{
		"entityType": "People",
		"filters": []map[string]any{
			{"key": "status", "value": map[string]any{"value": "RETIRED"}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleComposeRejectsInvertedDateRange(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/search/compose", map[string]any{
		"entityType": "Reports",
		"filters": []map[string]any{
			{"key": "engagementDate", "value": map[string]any{"relative": "BETWEEN", "start": "2024-02-01", "end": "2024-01-01"}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestHandleRehydrate(t *testing.T) {
	f := newFixture(t)

	values := url.Values{
		"entityType":       {"People"},
		"status":           {"INACTIVE"},
		"organizationUuid": {f.org.ID.String()},
		"locationUuid":     {uuid.NewString()},
	}
	rec := f.do(t, http.MethodGet, "/api/search/rehydrate?"+values.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		EntityType string `json:"entityType"`
		Filters    []struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		} `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "People", resp.EntityType)

	// the unknown location is dropped
	require.Len(t, resp.Filters, 2)
	assert.Equal(t, "status", resp.Filters[0].Key)
	assert.JSONEq(t, `{"value":"INACTIVE"}`, string(resp.Filters[0].Value))
	assert.Equal(t, "organizationUuid", resp.Filters[1].Key)
	assert.JSONEq(t,
		`{"value":{"uuid":"`+f.org.ID.String()+`","shortName":"EF 2.2","longName":"Ministry of Planning"}}`,
		string(resp.Filters[1].Value))
}

func TestHandleRehydrateMalformedQuery(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/search/rehydrate?entityType=People&status%5B%5D=A&status%5Bx%5D=B", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", nil).Code)
}
