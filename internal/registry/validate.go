package registry

import (
	"fmt"
	"strings"

	"github.com/rpattn/recordsearch/internal/filter"
)

// ValidateSet ensures keys are unique across filters and extras, that each filter's
// outbound keys do not collide with another filter's, and that every definition
// carries the props its kind needs.
func ValidateSet(set FilterSet) error {
	if strings.TrimSpace(string(set.EntityType)) == "" {
		return fmt.Errorf("filter set has no entity type")
	}

	keys := make(map[string]struct{}, len(set.Filters)+len(set.Extras))
	queryKeys := make(map[string]string)
	for _, extra := range set.Extras {
		if _, dup := keys[extra]; dup {
			return fmt.Errorf("%s: duplicate extra key %s", set.EntityType, extra)
		}
		keys[extra] = struct{}{}
		queryKeys[extra] = extra
	}

	for _, def := range set.Filters {
		if def == nil {
			return fmt.Errorf("%s: nil filter definition", set.EntityType)
		}
		if def.IsExtra || def.Kind == filter.KindExtra {
			return fmt.Errorf("%s: extra filter %s must be listed in Extras", set.EntityType, def.Key)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("%s: %w", set.EntityType, err)
		}
		if _, dup := keys[def.Key]; dup {
			return fmt.Errorf("%s: duplicate filter key %s", set.EntityType, def.Key)
		}
		keys[def.Key] = struct{}{}

		outbound := def.QueryKeys()
		if def.Props.RecurseKey != "" {
			outbound = append(outbound, def.Props.RecurseKey)
		}
		for _, qk := range outbound {
			if owner, taken := queryKeys[qk]; taken && owner != def.Key {
				return fmt.Errorf("%s: query key %s used by both %s and %s", set.EntityType, qk, owner, def.Key)
			}
			queryKeys[qk] = def.Key
		}
	}
	return nil
}
