package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQueryAccessors(t *testing.T) {
	q := SearchQuery{
		"text":       "jack",
		"empty":      "",
		"status":     []string{"ACTIVE", "INACTIVE"},
		"anyList":    []any{1, "b"},
		"isFilled":   true,
		"decoded":    "false",
		"bad":        "maybe",
		"range":      map[string]any{"start": "1"},
		"pageNumber": 2,
	}

	assert.True(t, q.Has("text"))
	assert.False(t, q.Has("empty"))
	assert.False(t, q.Has("missing"))
	assert.True(t, q.Has("range"))

	s, ok := q.String("status")
	assert.True(t, ok)
	assert.Equal(t, "ACTIVE", s)
	_, ok = q.String("range")
	assert.False(t, ok)
	s, _ = q.String("pageNumber")
	assert.Equal(t, "2", s)

	list, ok := q.Strings("anyList")
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "b"}, list)
	list, _ = q.Strings("text")
	assert.Equal(t, []string{"jack"}, list)

	b, present, err := q.Bool("isFilled")
	require.NoError(t, err)
	assert.True(t, present)
	assert.True(t, b)
	b, present, err = q.Bool("decoded")
	require.NoError(t, err)
	assert.True(t, present)
	assert.False(t, b)
	_, present, err = q.Bool("bad")
	assert.True(t, present)
	assert.Error(t, err)
	_, present, err = q.Bool("missing")
	assert.False(t, present)
	assert.NoError(t, err)
}

func TestSearchQueryCloneIsDeep(t *testing.T) {
	q := SearchQuery{
		"status": []string{"ACTIVE"},
		"sort":   map[string]any{"by": "NAME", "dirs": []string{"ASC"}},
	}
	clone := q.Clone()
	clone["status"].([]string)[0] = "INACTIVE"
	clone["sort"].(map[string]any)["by"] = "RANK"
	clone["sort"].(map[string]any)["dirs"].([]string)[0] = "DESC"

	assert.Equal(t, []string{"ACTIVE"}, q["status"])
	assert.Equal(t, "NAME", q["sort"].(map[string]any)["by"])
	assert.Equal(t, []string{"ASC"}, q["sort"].(map[string]any)["dirs"])

	var nilQuery SearchQuery
	assert.Nil(t, nilQuery.Clone())
}

func TestSearchQueryMergeAndKeys(t *testing.T) {
	q := SearchQuery{"b": "1", "a": "2"}
	q.Merge(SearchQuery{"a": "3", "c": "4"})
	assert.Equal(t, SearchQuery{"a": "3", "b": "1", "c": "4"}, q)
	assert.Equal(t, []string{"a", "b", "c"}, q.Keys())
}
