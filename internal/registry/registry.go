package registry

import (
	"fmt"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
)

// FilterSet is the ordered table of filters for one entity type, plus the extra keys
// that are carried through queries without an editable row.
type FilterSet struct {
	EntityType domain.EntityType
	Filters    []*filter.Definition
	Extras     []string
}

type entry struct {
	defs   []*filter.Definition
	extras []*filter.Definition
	order  map[string]int
	byKey  map[string]*filter.Definition
}

// Registry maps entity types to their filter sets. It is built once and never
// mutated; definitions handed out must not be modified.
type Registry struct {
	entries map[domain.EntityType]*entry
	types   []domain.EntityType
}

// New validates the sets and builds an immutable registry.
func New(sets ...FilterSet) (*Registry, error) {
	r := &Registry{entries: make(map[domain.EntityType]*entry, len(sets))}
	for _, set := range sets {
		if _, dup := r.entries[set.EntityType]; dup {
			return nil, fmt.Errorf("duplicate filter set for %s", set.EntityType)
		}
		if err := ValidateSet(set); err != nil {
			return nil, err
		}

		e := &entry{
			order: make(map[string]int, len(set.Extras)+len(set.Filters)),
			byKey: make(map[string]*filter.Definition, len(set.Extras)+len(set.Filters)),
		}
		for _, key := range set.Extras {
			def := filter.ExtraDefinition(key)
			e.order[key] = len(e.order)
			e.byKey[key] = def
			e.extras = append(e.extras, def)
		}
		for _, def := range set.Filters {
			copied := *def
			e.order[def.Key] = len(e.order)
			e.byKey[def.Key] = &copied
			e.defs = append(e.defs, &copied)
		}
		r.entries[set.EntityType] = e
		r.types = append(r.types, set.EntityType)
	}
	return r, nil
}

// MustNew is New for statically known tables.
func MustNew(sets ...FilterSet) *Registry {
	r, err := New(sets...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefinitionsFor returns the ordered filter definitions of an entity type, or
// domain.ErrUnknownEntityType.
func (r *Registry) DefinitionsFor(entityType domain.EntityType) ([]*filter.Definition, error) {
	e, err := r.entry(entityType)
	if err != nil {
		return nil, err
	}
	out := make([]*filter.Definition, len(e.defs))
	copy(out, e.defs)
	return out, nil
}

// ExtrasFor returns the pass-through definitions of an entity type in order.
func (r *Registry) ExtrasFor(entityType domain.EntityType) ([]*filter.Definition, error) {
	e, err := r.entry(entityType)
	if err != nil {
		return nil, err
	}
	out := make([]*filter.Definition, len(e.extras))
	copy(out, e.extras)
	return out, nil
}

// Definition finds one filter (editable or extra) by key.
func (r *Registry) Definition(entityType domain.EntityType, key string) (*filter.Definition, bool) {
	e, err := r.entry(entityType)
	if err != nil {
		return nil, false
	}
	def, ok := e.byKey[key]
	return def, ok
}

// Position returns the composition order of a key: extras first, then filters in
// registration order.
func (r *Registry) Position(entityType domain.EntityType, key string) (int, bool) {
	e, err := r.entry(entityType)
	if err != nil {
		return 0, false
	}
	pos, ok := e.order[key]
	return pos, ok
}

// EntityTypes lists the entity types with a filter set, in registration order.
func (r *Registry) EntityTypes() []domain.EntityType {
	out := make([]domain.EntityType, len(r.types))
	copy(out, r.types)
	return out
}

func (r *Registry) entry(entityType domain.EntityType) (*entry, error) {
	e, ok := r.entries[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, entityType)
	}
	return e, nil
}
