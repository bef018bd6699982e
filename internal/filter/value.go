package filter

import (
	"encoding/json"

	"github.com/rpattn/recordsearch/internal/domain"
)

// DateRange is the value of a date range filter. Start and End are calendar dates
// formatted as 2006-01-02; rolling presets leave both empty.
type DateRange struct {
	Relative Relative `json:"relative"`
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
}

// Value is the tagged variant every filter publishes. Only the fields belonging to
// Kind are meaningful.
type Value struct {
	Kind Kind

	// Text carries text, select, radio and position type values.
	Text string
	// Checked carries checkbox values.
	Checked bool
	// Dates carries date range values.
	Dates DateRange
	// Entity is the referenced stub; nil when unset, unresolved or deleted.
	Entity *domain.EntityStub
	// IncludeChildren widens an organization reference to its sub-organizations.
	IncludeChildren bool
	// Raw carries extra filter values copied verbatim from the incoming query.
	Raw any
}

// TextValue builds a value for the text-like kinds.
func TextValue(kind Kind, text string) Value {
	return Value{Kind: kind, Text: text}
}

// CheckboxValue builds a checkbox value.
func CheckboxValue(checked bool) Value {
	return Value{Kind: KindCheckbox, Checked: checked}
}

// DateRangeValue builds a date range value.
func DateRangeValue(r DateRange) Value {
	return Value{Kind: KindDateRange, Dates: r}
}

// ReferenceValue builds an entity reference value.
func ReferenceValue(stub *domain.EntityStub, includeChildren bool) Value {
	return Value{Kind: KindReference, Entity: stub, IncludeChildren: includeChildren}
}

// ExtraValue wraps a verbatim query value.
func ExtraValue(raw any) Value {
	return Value{Kind: KindExtra, Raw: raw}
}

// Equal reports whether two values are structurally identical.
func (v Value) Equal(other Value) bool {
	return Equal(v, other)
}

// MarshalJSON renders the kind specific wire shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindCheckbox:
		return json.Marshal(struct {
			Value bool `json:"value"`
		}{v.Checked})
	case KindDateRange:
		return json.Marshal(v.Dates)
	case KindReference:
		return json.Marshal(struct {
			Value           *domain.EntityStub `json:"value"`
			IncludeChildren bool               `json:"includeChildren,omitempty"`
		}{v.Entity, v.IncludeChildren})
	case KindExtra:
		return json.Marshal(struct {
			Value any `json:"value"`
		}{v.Raw})
	default:
		return json.Marshal(struct {
			Value string `json:"value"`
		}{v.Text})
	}
}

// FilterValue is what a filter row publishes: its value together with the query
// fragment derived from it.
type FilterValue struct {
	Key   string             `json:"key"`
	Value Value              `json:"value"`
	Query domain.SearchQuery `json:"query"`
}
