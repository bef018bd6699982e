package search

import (
	"log/slog"
	"sort"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
	"github.com/rpattn/recordsearch/internal/registry"
)

// ActiveFilter is one filter currently applied to a search.
type ActiveFilter struct {
	Key   string       `json:"key"`
	Value filter.Value `json:"value"`
}

// Compose folds the query fragments of every active filter into one flat query.
// Fragments are applied extras first, then in registry order, so a later filter may
// overwrite keys written by an earlier one. Filters the registry does not know for
// the entity type are skipped.
func Compose(reg *registry.Registry, entityType domain.EntityType, filters []ActiveFilter) (domain.SearchQuery, error) {
	if _, err := reg.DefinitionsFor(entityType); err != nil {
		return nil, err
	}

	type positioned struct {
		pos   int
		def   *filter.Definition
		value filter.Value
	}
	ordered := make([]positioned, 0, len(filters))
	for _, f := range filters {
		def, ok := reg.Definition(entityType, f.Key)
		if !ok {
			slog.Debug("skipping unregistered filter", "entity_type", entityType, "key", f.Key)
			continue
		}
		pos, _ := reg.Position(entityType, f.Key)
		ordered = append(ordered, positioned{pos: pos, def: def, value: f.Value})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].pos < ordered[j].pos
	})

	result := domain.SearchQuery{}
	for _, p := range ordered {
		result.Merge(p.def.ToQuery(p.value))
	}
	return result, nil
}
