package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/recordsearch/internal/domain"
)

func rehydrateKeys(t *testing.T, f fixture, values url.Values) []string {
	t.Helper()
	rec := f.do(t, http.MethodGet, "/api/search/rehydrate?"+values.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Filters []struct {
			Key string `json:"key"`
		} `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	keys := make([]string, 0, len(resp.Filters))
	for _, fv := range resp.Filters {
		keys = append(keys, fv.Key)
	}
	return keys
}

func TestDeletedRecordDropsFromRehydratedQuery(t *testing.T) {
	f := newFixture(t)
	values := url.Values{
		"entityType":       {"People"},
		"status":           {"ACTIVE"},
		"organizationUuid": {f.org.ID.String()},
	}

	assert.Equal(t, []string{"status", "organizationUuid"}, rehydrateKeys(t, f, values))

	rec := f.do(t, http.MethodDelete, "/api/records/"+f.org.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"status"}, rehydrateKeys(t, f, values))

	rec = f.do(t, http.MethodDelete, "/api/records/"+f.org.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutAndGetRecord(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	rec := f.do(t, http.MethodPut, "/api/records/"+id.String(), RecordRequest{
		EntityType: "tasks",
		Labels:     map[string]string{"shortName": "1.1.A", "longName": "Train the trainers"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/records/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, domain.EntityTypeTasks, got.EntityType)
	assert.Equal(t, "1.1.A", got.Labels["shortName"])

	// the new task resolves as a reference straight away
	keys := rehydrateKeys(t, f, url.Values{"entityType": {"Reports"}, "taskUuid": {id.String()}})
	assert.Contains(t, keys, "taskUuid")
}

func TestPutRecordValidation(t *testing.T) {
	f := newFixture(t)
	target := "/api/records/" + uuid.NewString()

	tests := []struct {
		name string
		body RecordRequest
	}{
		{"unknown type", RecordRequest{EntityType: "Widgets", Labels: map[string]string{"name": "x"}}},
		{"no labels", RecordRequest{EntityType: "Tasks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, target, tt.body).Code)
		})
	}
}

func TestRecordRoutesRejectBadIDs(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/records/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodDelete, "/api/records/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/records/"+uuid.NewString(), nil).Code)
}

func TestRecordCounts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/records/counts", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Counts[domain.EntityTypeOrganizations])
	assert.Equal(t, int64(0), resp.Counts[domain.EntityTypeTasks])
	assert.Len(t, resp.Counts, len(domain.AllEntityTypes()))
}
