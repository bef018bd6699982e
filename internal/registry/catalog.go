package registry

import (
	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
)

const orgRecurseKey = "orgRecurseStrategy"

var (
	statusOptions = []filter.Option{
		{Value: "ACTIVE", Label: "Active"},
		{Value: "INACTIVE", Label: "Inactive"},
	}

	positionTypeOptions = []filter.Option{
		{Value: "ADVISOR", Label: "Advisor"},
		{Value: "PRINCIPAL", Label: "Principal"},
		{Value: "SUPER_USER", Label: "Super User"},
		{Value: "ADMINISTRATOR", Label: "Administrator"},
	}

	orgFields      = []string{"shortName", "longName", "identificationCode"}
	personFields   = []string{"name", "rank", "role"}
	locationFields = []string{"name"}
	taskFields     = []string{"shortName", "longName"}
	positionFields = []string{"name", "code"}
)

func status() *filter.Definition {
	return &filter.Definition{
		Key:        "status",
		Label:      "Status",
		Kind:       filter.KindRadio,
		Capability: filter.CapabilityForm,
		Props:      filter.Props{Options: statusOptions, Default: "ACTIVE"},
	}
}

func reference(key, label string, entityType domain.EntityType, fields []string) *filter.Definition {
	return &filter.Definition{
		Key:        key,
		Label:      label,
		Kind:       filter.KindReference,
		Capability: filter.CapabilityForm,
		Props:      filter.Props{EntityType: entityType, Fields: fields},
	}
}

func orgReference(key, label string) *filter.Definition {
	def := reference(key, label, domain.EntityTypeOrganizations, orgFields)
	def.Props.RecurseKey = orgRecurseKey
	return def
}

func choice(key, label string, options ...filter.Option) *filter.Definition {
	return &filter.Definition{
		Key:        key,
		Label:      label,
		Kind:       filter.KindSelect,
		Capability: filter.CapabilityForm,
		Props:      filter.Props{Options: options},
	}
}

func checkbox(key, label string, checked bool) *filter.Definition {
	return &filter.Definition{
		Key:        key,
		Label:      label,
		Kind:       filter.KindCheckbox,
		Capability: filter.CapabilityForm,
		Props:      filter.Props{DefaultChecked: checked},
	}
}

func dateRange(key, label string) *filter.Definition {
	return &filter.Definition{
		Key:        key,
		Label:      label,
		Kind:       filter.KindDateRange,
		Capability: filter.CapabilityForm,
	}
}

func text(key, label string) *filter.Definition {
	return &filter.Definition{
		Key:        key,
		Label:      label,
		Kind:       filter.KindText,
		Capability: filter.CapabilityForm,
	}
}

func positionType() *filter.Definition {
	return &filter.Definition{
		Key:        "positionType",
		Label:      "Position type",
		Kind:       filter.KindPositionType,
		Capability: filter.CapabilityForm,
		Props: filter.Props{
			Options: positionTypeOptions,
			Expansions: map[string][]string{
				"ADVISOR": {"ADVISOR", "SUPER_USER", "ADMINISTRATOR"},
			},
		},
	}
}

// DefaultSets returns the filter tables of every searchable entity type.
func DefaultSets() []FilterSet {
	return []FilterSet{
		{
			EntityType: domain.EntityTypeReports,
			Filters: []*filter.Definition{
				reference("authorUuid", "Author", domain.EntityTypePeople, personFields),
				reference("attendeeUuid", "Attendee", domain.EntityTypePeople, personFields),
				reference("pendingApprovalOf", "Pending approval of", domain.EntityTypePeople, personFields),
				orgReference("orgUuid", "Organization"),
				dateRange("engagementDate", "Engagement date"),
				dateRange("createdAt", "Creation date"),
				dateRange("releasedAt", "Release date"),
				reference("locationUuid", "Location", domain.EntityTypeLocations, locationFields),
				reference("taskUuid", "Task", domain.EntityTypeTasks, taskFields),
				choice("state", "State",
					filter.Option{Value: "DRAFT", Label: "Draft"},
					filter.Option{Value: "PENDING_APPROVAL", Label: "Pending approval"},
					filter.Option{Value: "APPROVED", Label: "Approved"},
					filter.Option{Value: "PUBLISHED", Label: "Published"},
					filter.Option{Value: "CANCELLED", Label: "Cancelled"},
					filter.Option{Value: "REJECTED", Label: "Changes requested"},
				),
				choice("atmosphere", "Atmospherics",
					filter.Option{Value: "POSITIVE", Label: "Positive"},
					filter.Option{Value: "NEUTRAL", Label: "Neutral"},
					filter.Option{Value: "NEGATIVE", Label: "Negative"},
				),
				text("keyOutcomes", "Key outcomes"),
				checkbox("sensitiveInfo", "Has sensitive information", true),
			},
			Extras: []string{"includeEngagementDayOfWeek", "engagementDayOfWeek"},
		},
		{
			EntityType: domain.EntityTypePeople,
			Filters: []*filter.Definition{
				status(),
				reference("organizationUuid", "Organization", domain.EntityTypeOrganizations, []string{"shortName", "longName"}),
				choice("role", "Role",
					filter.Option{Value: "ADVISOR", Label: "Advisor"},
					filter.Option{Value: "PRINCIPAL", Label: "Principal"},
				),
				reference("locationUuid", "Location", domain.EntityTypeLocations, locationFields),
				choice("rank", "Rank",
					filter.Option{Value: "CIV", Label: "Civilian"},
					filter.Option{Value: "OF-1"},
					filter.Option{Value: "OF-2"},
					filter.Option{Value: "OF-3"},
					filter.Option{Value: "OF-4"},
					filter.Option{Value: "OF-5"},
					filter.Option{Value: "OF-6"},
					filter.Option{Value: "OR-4"},
					filter.Option{Value: "OR-6"},
					filter.Option{Value: "OR-9"},
				),
				text("country", "Nationality"),
				checkbox("hasBiography", "Has biography", true),
			},
		},
		{
			EntityType: domain.EntityTypeOrganizations,
			Filters: []*filter.Definition{
				status(),
				choice("type", "Organization type",
					filter.Option{Value: "ADVISOR_ORG", Label: "Advisor organization"},
					filter.Option{Value: "PRINCIPAL_ORG", Label: "Principal organization"},
				),
				orgReference("parentOrgUuid", "Parent organization"),
				reference("locationUuid", "Location", domain.EntityTypeLocations, locationFields),
			},
		},
		{
			EntityType: domain.EntityTypePositions,
			Filters: []*filter.Definition{
				positionType(),
				orgReference("organizationUuid", "Organization"),
				status(),
				reference("locationUuid", "Location", domain.EntityTypeLocations, locationFields),
				checkbox("isFilled", "Filled", true),
			},
			Extras: []string{"matchPersonName"},
		},
		{
			EntityType: domain.EntityTypeLocations,
			Filters: []*filter.Definition{
				status(),
				choice("type", "Location type",
					filter.Option{Value: "PHYSICAL_LOCATION", Label: "Physical location"},
					filter.Option{Value: "GEOGRAPHICAL_AREA", Label: "Geographical area"},
					filter.Option{Value: "PRINCIPAL_LOCATION", Label: "Principal location"},
					filter.Option{Value: "VIRTUAL_LOCATION", Label: "Virtual location"},
				),
			},
		},
		{
			EntityType: domain.EntityTypeTasks,
			Filters: []*filter.Definition{
				orgReference("taskedOrgUuid", "Tasked organization"),
				reference("parentTaskUuid", "Parent task", domain.EntityTypeTasks, taskFields),
				status(),
				dateRange("plannedCompletion", "Planned completion"),
				dateRange("projectedCompletion", "Projected completion"),
				choice("projectStatus", "Project status",
					filter.Option{Value: "GREEN", Label: "On track"},
					filter.Option{Value: "AMBER", Label: "At risk"},
					filter.Option{Value: "RED", Label: "Off track"},
				),
			},
		},
		{
			EntityType: domain.EntityTypeEvents,
			Filters: []*filter.Definition{
				choice("type", "Event type",
					filter.Option{Value: "CONFERENCE", Label: "Conference"},
					filter.Option{Value: "EXERCISE", Label: "Exercise"},
					filter.Option{Value: "VISIT", Label: "Visit"},
					filter.Option{Value: "OTHER", Label: "Other"},
				),
				orgReference("hostOrgUuid", "Host organization"),
				reference("adminOrgUuid", "Admin organization", domain.EntityTypeOrganizations, orgFields),
				reference("locationUuid", "Location", domain.EntityTypeLocations, locationFields),
				reference("taskUuid", "Task", domain.EntityTypeTasks, taskFields),
				dateRange("startDate", "Start date"),
			},
			Extras: []string{"status"},
		},
		{
			EntityType: domain.EntityTypeAuthorizationGroups,
			Filters: []*filter.Definition{
				status(),
				reference("positionUuid", "Position", domain.EntityTypePositions, positionFields),
			},
		},
	}
}

// Default builds the registry used by the service.
func Default() *Registry {
	return MustNew(DefaultSets()...)
}
