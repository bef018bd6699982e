package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is a catalog entry for any searchable record. Labels hold the display fields
// (shortName, longName, name, rank, ...) that reference filters project into stubs.
type Record struct {
	ID         uuid.UUID         `json:"id"`
	EntityType EntityType        `json:"entity_type"`
	Labels     map[string]string `json:"labels"`
	DeletedAt  *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewRecord creates a new record with immutable pattern
func NewRecord(entityType EntityType, labels map[string]string) Record {
	now := time.Now()
	return Record{
		ID:         uuid.New(),
		EntityType: entityType,
		Labels:     copyFields(labels),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithLabel returns a new record with an added/updated label
func (r Record) WithLabel(key, value string) Record {
	labels := copyFields(r.Labels)
	labels[key] = value
	next := r
	next.Labels = labels
	next.UpdatedAt = time.Now()
	return next
}

// WithID returns a new record with the given id, used by imports that carry their own uuids
func (r Record) WithID(id uuid.UUID) Record {
	next := r
	next.Labels = copyFields(r.Labels)
	next.ID = id
	return next
}

// Deleted returns a new record marked as deleted at the given time
func (r Record) Deleted(at time.Time) Record {
	next := r
	next.Labels = copyFields(r.Labels)
	next.DeletedAt = &at
	next.UpdatedAt = at
	return next
}

// IsDeleted reports whether the record has been soft deleted.
func (r Record) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Stub projects the record onto the requested label fields.
func (r Record) Stub(fields []string) *EntityStub {
	return NewEntityStub(r.EntityType, r.ID.String(), r.Labels).Project(fields)
}
