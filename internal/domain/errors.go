package domain

import "errors"

var (
	// ErrNotFound is returned by lookups when a record does not exist or was deleted.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownEntityType is returned when no filters are registered for an entity type.
	ErrUnknownEntityType = errors.New("unknown entity type")
)
