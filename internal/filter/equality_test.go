package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rpattn/recordsearch/internal/domain"
)

// closureValue mirrors a published value that still carries its derive callback.
type closureValue struct {
	Value   Value
	ToQuery func(Value) domain.SearchQuery
}

func TestEqualIgnoresFunctionIdentity(t *testing.T) {
	def := &Definition{Key: "status", Kind: KindRadio, Props: Props{Options: []Option{{Value: "ACTIVE"}}}}
	a := closureValue{Value: TextValue(KindRadio, "ACTIVE"), ToQuery: def.ToQuery}
	b := closureValue{Value: TextValue(KindRadio, "ACTIVE"), ToQuery: func(v Value) domain.SearchQuery {
		return domain.SearchQuery{"status": v.Text}
	}}

	assert.True(t, Equal(a, b))

	b.Value = TextValue(KindRadio, "INACTIVE")
	assert.False(t, Equal(a, b))
}

func TestEqualValues(t *testing.T) {
	stub := func(name string) *domain.EntityStub {
		return domain.NewEntityStub(domain.EntityTypeOrganizations, "org-1", map[string]string{"shortName": name})
	}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"identical text", TextValue(KindText, "x"), TextValue(KindText, "x"), true},
		{"different kind", TextValue(KindText, "x"), TextValue(KindSelect, "x"), false},
		{"stub by content", ReferenceValue(stub("J2"), false), ReferenceValue(stub("J2"), false), true},
		{"stub label changed", ReferenceValue(stub("J2"), false), ReferenceValue(stub("J3"), false), false},
		{"nil and set stub", ReferenceValue(nil, false), ReferenceValue(stub("J2"), false), false},
		{"nil and empty slice", []string(nil), []string{}, true},
		{"nil and empty map", domain.SearchQuery(nil), domain.SearchQuery{}, true},
		{"slice order matters", []string{"a", "b"}, []string{"b", "a"}, false},
		{"nested maps", map[string]any{"a": []string{"x"}}, map[string]any{"a": []string{"x"}}, true},
		{"nil pointers", (*Value)(nil), (*Value)(nil), true},
		{"nil and value pointer", (*Value)(nil), &Value{}, false},
		{"untyped nil", nil, nil, true},
		{"extra raw values", ExtraValue([]string{"MONDAY"}), ExtraValue([]string{"MONDAY"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestEqualHandlesCycles(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	a := &node{Name: "a"}
	a.Next = a
	b := &node{Name: "a"}
	b.Next = b

	assert.True(t, Equal(a, b))
}
