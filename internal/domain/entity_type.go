package domain

import "strings"

// EntityType names a searchable record type.
type EntityType string

const (
	EntityTypePeople              EntityType = "People"
	EntityTypeOrganizations       EntityType = "Organizations"
	EntityTypePositions           EntityType = "Positions"
	EntityTypeLocations           EntityType = "Locations"
	EntityTypeTasks               EntityType = "Tasks"
	EntityTypeReports             EntityType = "Reports"
	EntityTypeEvents              EntityType = "Events"
	EntityTypeAuthorizationGroups EntityType = "AuthorizationGroups"
)

var allEntityTypes = []EntityType{
	EntityTypePeople,
	EntityTypeOrganizations,
	EntityTypePositions,
	EntityTypeLocations,
	EntityTypeTasks,
	EntityTypeReports,
	EntityTypeEvents,
	EntityTypeAuthorizationGroups,
}

// AllEntityTypes returns every known entity type in display order.
func AllEntityTypes() []EntityType {
	out := make([]EntityType, len(allEntityTypes))
	copy(out, allEntityTypes)
	return out
}

// ParseEntityType matches a raw name case-insensitively against the known types.
func ParseEntityType(raw string) (EntityType, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, t := range allEntityTypes {
		if strings.EqualFold(string(t), trimmed) {
			return t, true
		}
	}
	return "", false
}

func (t EntityType) String() string {
	return string(t)
}
