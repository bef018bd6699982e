package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/recordsearch/internal/domain"
)

var (
	// ErrInvalidValue is returned when a wire value does not fit its filter.
	ErrInvalidValue = errors.New("invalid filter value")
	// ErrInvalidDefinition is returned when a definition is missing kind specific props.
	ErrInvalidDefinition = errors.New("invalid filter definition")
)

// Option is one choice of a select, radio or position type filter.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Props configures a filter kind. Only the fields relevant to the kind are read.
type Props struct {
	// QueryKey is the outbound query key; it defaults to the filter key. Date ranges
	// use it as a prefix for the Start and End keys.
	QueryKey string
	Options  []Option
	// Default is the default option value for choice kinds.
	Default        string
	DefaultChecked bool
	// EntityType and Fields describe the lookup issued for reference filters.
	EntityType domain.EntityType
	Fields     []string
	// RecurseKey, when set, carries the include-children flag of a reference filter.
	RecurseKey string
	// Expansions maps a position type option to the list of types it searches for.
	Expansions map[string][]string
}

// Definition describes one registered filter. Definitions are immutable once a
// registry has been built from them.
type Definition struct {
	Key        string
	Label      string
	Kind       Kind
	Capability Capability
	Props      Props
	IsExtra    bool
}

// QueryKey returns the outbound key (or key prefix) for the filter.
func (d *Definition) QueryKey() string {
	if d.Props.QueryKey != "" {
		return d.Props.QueryKey
	}
	return d.Key
}

// QueryKeys lists every outbound key the filter may write.
func (d *Definition) QueryKeys() []string {
	return d.codec().queryKeys(d)
}

// IsAsync reports whether deserializing the filter needs a lookup round trip.
func (d *Definition) IsAsync() bool {
	return d.Kind == KindReference
}

// Present reports whether q carries any key this filter reads.
func (d *Definition) Present(q domain.SearchQuery) bool {
	for _, k := range d.QueryKeys() {
		if q.Has(k) {
			return true
		}
	}
	return false
}

// DefaultValue returns input when it is a value of this filter's kind, otherwise the
// kind specific default.
func (d *Definition) DefaultValue(input *Value) Value {
	if input != nil && input.Kind == d.Kind {
		return *input
	}
	return d.codec().defaultValue(d)
}

// ToQuery derives the query fragment for v. It is pure and total: values of another
// kind yield an empty fragment.
func (d *Definition) ToQuery(v Value) domain.SearchQuery {
	if v.Kind != d.Kind {
		return domain.SearchQuery{}
	}
	return d.codec().toQuery(d, v)
}

// Publish wraps v into the FilterValue a form field hands to its owner.
func (d *Definition) Publish(v Value) FilterValue {
	return FilterValue{Key: d.Key, Value: v, Query: d.ToQuery(v)}
}

// Display renders the read-only projection of v used by display capability rows.
func (d *Definition) Display(v Value) string {
	if v.Kind != d.Kind {
		return ""
	}
	return d.codec().display(d, v)
}

// Deserialize reconstructs the filter value from an incoming query. lookup is only
// consulted by reference filters and may be nil for the others.
func (d *Definition) Deserialize(ctx context.Context, q domain.SearchQuery, lookup domain.EntityLookup) Result {
	res := d.codec().deserialize(ctx, d, q, lookup)
	res.Key = d.Key
	return res
}

// DecodeValue parses the JSON wire shape of a value of this filter.
func (d *Definition) DecodeValue(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return d.DefaultValue(nil), nil
	}
	v, err := d.codec().decode(d, raw)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, d.Key, err)
	}
	return v, nil
}

// Validate checks the kind specific props.
func (d *Definition) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDefinition)
	}
	if _, ok := codecs[d.Kind]; !ok {
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidDefinition, d.Key, d.Kind)
	}
	if err := d.codec().validate(d); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, d.Key, err)
	}
	return nil
}

func (d *Definition) codec() codec {
	if c, ok := codecs[d.Kind]; ok {
		return c
	}
	return extraCodec{}
}

// codec implements one filter kind.
type codec interface {
	defaultValue(d *Definition) Value
	toQuery(d *Definition, v Value) domain.SearchQuery
	display(d *Definition, v Value) string
	queryKeys(d *Definition) []string
	deserialize(ctx context.Context, d *Definition, q domain.SearchQuery, lookup domain.EntityLookup) Result
	decode(d *Definition, raw json.RawMessage) (Value, error)
	validate(d *Definition) error
}

var codecs = map[Kind]codec{
	KindText:         textCodec{},
	KindSelect:       choiceCodec{kind: KindSelect},
	KindRadio:        choiceCodec{kind: KindRadio},
	KindPositionType: positionTypeCodec{},
	KindCheckbox:     checkboxCodec{},
	KindDateRange:    dateRangeCodec{},
	KindReference:    referenceCodec{},
	KindExtra:        extraCodec{},
}
