package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/recordsearch/internal/domain"
)

const (
	RecurseChildren = "CHILDREN"
	RecurseNone     = "NONE"
)

// ErrNoLookup is reported when a reference filter is deserialized without a lookup.
var ErrNoLookup = errors.New("no entity lookup configured")

type referenceCodec struct{}

func (referenceCodec) defaultValue(*Definition) Value {
	return ReferenceValue(nil, false)
}

func (referenceCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	if v.Entity == nil || v.Entity.UUID == "" {
		return domain.SearchQuery{}
	}
	q := domain.SearchQuery{d.QueryKey(): v.Entity.UUID}
	if d.Props.RecurseKey != "" {
		if v.IncludeChildren {
			q[d.Props.RecurseKey] = RecurseChildren
		} else {
			q[d.Props.RecurseKey] = RecurseNone
		}
	}
	return q
}

func (referenceCodec) display(d *Definition, v Value) string {
	if v.Entity == nil {
		return ""
	}
	label := v.Entity.Label()
	if d.Props.RecurseKey != "" && v.IncludeChildren {
		label += " (and sub-organizations)"
	}
	return label
}

func (referenceCodec) queryKeys(d *Definition) []string {
	// the recurse key alone does not make the filter present
	return []string{d.QueryKey()}
}

func (c referenceCodec) deserialize(ctx context.Context, d *Definition, q domain.SearchQuery, lookup domain.EntityLookup) Result {
	raw, ok := q.String(d.QueryKey())
	uuid := strings.TrimSpace(raw)
	if !ok || uuid == "" {
		return absent(c.defaultValue(d))
	}
	if lookup == nil {
		return Result{Outcome: OutcomeFailed, Err: ErrNoLookup}
	}

	stub, err := lookup.Lookup(ctx, d.Props.EntityType, uuid, d.Props.Fields)
	switch {
	case errors.Is(err, domain.ErrNotFound), err == nil && stub == nil:
		return Result{Outcome: OutcomeDropped, Err: fmt.Errorf("%s %s: %w", d.Props.EntityType, uuid, domain.ErrNotFound)}
	case err != nil:
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("failed to look up %s %s: %w", d.Props.EntityType, uuid, err)}
	}

	includeChildren := false
	if d.Props.RecurseKey != "" {
		strategy, _ := q.String(d.Props.RecurseKey)
		includeChildren = strings.EqualFold(strategy, RecurseChildren)
	}
	return resolved(ReferenceValue(stub.Project(d.Props.Fields), includeChildren))
}

func (referenceCodec) decode(d *Definition, raw json.RawMessage) (Value, error) {
	var w struct {
		Value           *domain.EntityStub `json:"value"`
		IncludeChildren bool               `json:"includeChildren"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return Value{}, err
	}
	if w.Value != nil {
		w.Value.Type = d.Props.EntityType
	}
	return ReferenceValue(w.Value, w.IncludeChildren && d.Props.RecurseKey != ""), nil
}

func (referenceCodec) validate(d *Definition) error {
	if d.Props.EntityType == "" {
		return errors.New("reference filters need an entity type")
	}
	return nil
}
