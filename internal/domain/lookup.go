package domain

import "context"

// EntityLookup resolves a record uuid into a stub carrying the requested fields.
// Implementations return ErrNotFound (possibly wrapped) for unknown or deleted records.
type EntityLookup interface {
	Lookup(ctx context.Context, entityType EntityType, uuid string, fields []string) (*EntityStub, error)
}

// LookupFunc adapts a function to EntityLookup.
type LookupFunc func(ctx context.Context, entityType EntityType, uuid string, fields []string) (*EntityStub, error)

// Lookup implements EntityLookup.
func (f LookupFunc) Lookup(ctx context.Context, entityType EntityType, uuid string, fields []string) (*EntityStub, error) {
	return f(ctx, entityType, uuid, fields)
}
