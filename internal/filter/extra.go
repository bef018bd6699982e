package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpattn/recordsearch/internal/domain"
)

// extraCodec copies a query value through unchanged. Extra filters have no editable
// row; they only need to survive a round trip.
type extraCodec struct{}

func (extraCodec) defaultValue(*Definition) Value {
	return ExtraValue(nil)
}

func (extraCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	if v.Raw == nil {
		return domain.SearchQuery{}
	}
	return domain.SearchQuery{d.QueryKey(): domain.CloneValue(v.Raw)}
}

func (extraCodec) display(_ *Definition, v Value) string {
	if v.Raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", v.Raw)
}

func (extraCodec) queryKeys(d *Definition) []string {
	return []string{d.QueryKey()}
}

func (c extraCodec) deserialize(_ context.Context, d *Definition, q domain.SearchQuery, _ domain.EntityLookup) Result {
	raw, ok := q[d.QueryKey()]
	if !ok {
		return absent(c.defaultValue(d))
	}
	return resolved(ExtraValue(domain.CloneValue(raw)))
}

func (extraCodec) decode(_ *Definition, raw json.RawMessage) (Value, error) {
	var w struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return Value{}, err
	}
	return ExtraValue(w.Value), nil
}

func (extraCodec) validate(*Definition) error {
	return nil
}

// ExtraDefinition builds the pass-through definition used for an extra key.
func ExtraDefinition(key string) *Definition {
	return &Definition{Key: key, Label: key, Kind: KindExtra, Capability: CapabilityDisplay, IsExtra: true}
}
