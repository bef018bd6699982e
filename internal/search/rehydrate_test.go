package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
	"github.com/rpattn/recordsearch/internal/registry"
)

func TestRehydratePeopleScenario(t *testing.T) {
	lookup := newStubLookup(j2())
	r := NewRehydrator(registry.Default(), lookup)

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypePeople, domain.SearchQuery{
		"status":              "ACTIVE",
		"organizationUuid":    "org-123",
		"pendingVerification": "x",
	})
	require.NoError(t, err)

	want := []ActiveFilter{
		{Key: "status", Value: filter.TextValue(filter.KindRadio, "ACTIVE")},
		{Key: "organizationUuid", Value: filter.ReferenceValue(
			domain.NewEntityStub(domain.EntityTypeOrganizations, "org-123", map[string]string{"shortName": "J2"}),
			false,
		)},
	}
	assert.Equal(t, want, filters)
}

func TestRehydrateDropsDeletedReference(t *testing.T) {
	recorder := &stubRecorder{}
	r := NewRehydrator(registry.Default(), newStubLookup(), WithRecorder(recorder))

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypeReports, domain.SearchQuery{
		"taskUuid": "5c1a3a5e-0000-4000-8000-000000000001",
		"state":    "PUBLISHED",
	})
	require.NoError(t, err)

	require.Len(t, filters, 1)
	assert.Equal(t, "state", filters[0].Key)
	assert.Contains(t, recorder.outcomes, outcomeRecord{key: "taskUuid", outcome: filter.OutcomeDropped})
	assert.Contains(t, recorder.outcomes, outcomeRecord{key: "state", outcome: filter.OutcomeResolved})
}

func TestRehydrateIsolatesLookupFailures(t *testing.T) {
	lookup := newStubLookup(
		domain.NewEntityStub(domain.EntityTypePeople, "person-1", map[string]string{"name": "Jack Jackson", "rank": "CIV"}),
	)
	lookup.failures["loc-1"] = errors.New("connection reset by peer")
	r := NewRehydrator(registry.Default(), lookup)

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypeReports, domain.SearchQuery{
		"authorUuid":   "person-1",
		"locationUuid": "loc-1",
		"attendeeUuid": "person-unknown",
	})
	require.NoError(t, err)

	require.Len(t, filters, 1)
	assert.Equal(t, "authorUuid", filters[0].Key)
	assert.Equal(t, "CIV Jack Jackson", filters[0].Value.Entity.Label())
	assert.Equal(t, 3, lookup.callCount())
}

func TestRehydrateRegistryOrderWithExtrasFirst(t *testing.T) {
	lookup := newStubLookup(
		j2(),
		domain.NewEntityStub(domain.EntityTypeTasks, "task-1", map[string]string{"shortName": "T1"}),
	)
	r := NewRehydrator(registry.Default(), lookup, WithConcurrency(1))

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypeReports, domain.SearchQuery{
		"sensitiveInfo":       "true",
		"taskUuid":            "task-1",
		"state":               "DRAFT",
		"orgUuid":             "org-123",
		"orgRecurseStrategy":  "CHILDREN",
		"engagementDayOfWeek": []string{"1", "2"},
		"engagementDateStart": "2024-01-01",
	})
	require.NoError(t, err)

	keys := make([]string, len(filters))
	for i, f := range filters {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"engagementDayOfWeek", "orgUuid", "engagementDate", "taskUuid", "state", "sensitiveInfo"}, keys)

	assert.Equal(t, filter.ExtraValue([]string{"1", "2"}), filters[0].Value)
	assert.True(t, filters[1].Value.IncludeChildren)
	assert.Equal(t, filter.DateRange{Relative: filter.RelativeAfter, Start: "2024-01-01"}, filters[2].Value.Dates)
	assert.Equal(t, filter.CheckboxValue(true), filters[5].Value)
}

func TestRehydrateRoundTripsComposedQuery(t *testing.T) {
	reg := registry.Default()
	lookup := newStubLookup(j2())
	r := NewRehydrator(reg, lookup)

	original := []ActiveFilter{
		{Key: "positionType", Value: filter.TextValue(filter.KindPositionType, "ADVISOR")},
		{Key: "organizationUuid", Value: filter.ReferenceValue(
			domain.NewEntityStub(domain.EntityTypeOrganizations, "org-123", map[string]string{"shortName": "J2", "identificationCode": "J2-001"}),
			true,
		)},
		{Key: "status", Value: filter.TextValue(filter.KindRadio, "INACTIVE")},
		{Key: "isFilled", Value: filter.CheckboxValue(false)},
	}
	q, err := Compose(reg, domain.EntityTypePositions, original)
	require.NoError(t, err)

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypePositions, q)
	require.NoError(t, err)
	require.Len(t, filters, len(original))
	for i := range original {
		assert.Equal(t, original[i].Key, filters[i].Key)
		assert.True(t, filter.Equal(original[i].Value, filters[i].Value), "%s: want %+v, got %+v", original[i].Key, original[i].Value, filters[i].Value)
	}

	again, err := Compose(reg, domain.EntityTypePositions, filters)
	require.NoError(t, err)
	assert.Equal(t, q, again)
}

func TestRehydrateMalformedValuesUseDefaults(t *testing.T) {
	r := NewRehydrator(registry.Default(), newStubLookup())

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypeTasks, domain.SearchQuery{
		"status":                 "ARCHIVED",
		"plannedCompletionStart": "not-a-date",
	})
	require.NoError(t, err)

	require.Len(t, filters, 2)
	assert.Equal(t, filter.TextValue(filter.KindRadio, "ACTIVE"), filters[0].Value)
	assert.Equal(t, filter.DateRangeValue(filter.DateRange{Relative: filter.RelativeBetween}), filters[1].Value)
}

func TestRehydrateEmptyQuery(t *testing.T) {
	lookup := newStubLookup()
	r := NewRehydrator(registry.Default(), lookup)

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypePeople, domain.SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, filters)
	assert.Zero(t, lookup.callCount())
}

func TestRehydrateUnknownEntityType(t *testing.T) {
	r := NewRehydrator(registry.Default(), newStubLookup())
	_, err := r.Rehydrate(context.Background(), "Spaceships", domain.SearchQuery{"status": "ACTIVE"})
	assert.ErrorIs(t, err, domain.ErrUnknownEntityType)
}

func TestRehydrateCancelledContext(t *testing.T) {
	lookup := newStubLookup(j2())
	lookup.gate = make(chan struct{})
	r := NewRehydrator(registry.Default(), lookup)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rehydrate(ctx, domain.EntityTypePeople, domain.SearchQuery{"organizationUuid": "org-123"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithLookupLeavesOriginalUntouched(t *testing.T) {
	base := newStubLookup()
	request := newStubLookup(j2())
	r := NewRehydrator(registry.Default(), base)

	filters, err := r.WithLookup(request).Rehydrate(context.Background(), domain.EntityTypePeople, domain.SearchQuery{"organizationUuid": "org-123"})
	require.NoError(t, err)
	assert.Len(t, filters, 1)

	filters, err = r.Rehydrate(context.Background(), domain.EntityTypePeople, domain.SearchQuery{"organizationUuid": "org-123"})
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestRehydrateWithoutBaseLookupFailsReferences(t *testing.T) {
	recorder := &stubRecorder{}
	r := NewRehydrator(registry.Default(), nil, WithRecorder(recorder))
	q := domain.SearchQuery{"status": "ACTIVE", "organizationUuid": "org-123"}

	filters, err := r.Rehydrate(context.Background(), domain.EntityTypePeople, q)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, "status", filters[0].Key)
	assert.Contains(t, recorder.outcomes, outcomeRecord{key: "organizationUuid", outcome: filter.OutcomeFailed})

	filters, err = r.WithLookup(newStubLookup(j2())).Rehydrate(context.Background(), domain.EntityTypePeople, q)
	require.NoError(t, err)
	assert.Len(t, filters, 2)
}
