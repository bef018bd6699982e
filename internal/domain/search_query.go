package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SearchQuery is the flat outbound query composed from every active filter. Values are
// string, bool, []string or a nested map[string]any. It is rebuilt on every change and
// never mutated after it has been handed out.
type SearchQuery map[string]any

// Has reports whether key is present with a non-empty value.
func (q SearchQuery) Has(key string) bool {
	v, ok := q[key]
	if !ok || v == nil {
		return false
	}
	switch typed := v.(type) {
	case string:
		return typed != ""
	case []string:
		return len(typed) > 0
	case []any:
		return len(typed) > 0
	}
	return true
}

// String returns the value for key as a string. Lists yield their first element.
func (q SearchQuery) String(key string) (string, bool) {
	v, ok := q[key]
	if !ok || v == nil {
		return "", false
	}
	switch typed := v.(type) {
	case string:
		return typed, true
	case []string:
		if len(typed) == 0 {
			return "", false
		}
		return typed[0], true
	case []any:
		if len(typed) == 0 {
			return "", false
		}
		return fmt.Sprintf("%v", typed[0]), true
	case bool:
		return strconv.FormatBool(typed), true
	case map[string]any:
		return "", false
	default:
		return fmt.Sprintf("%v", typed), true
	}
}

// Strings returns the value for key as a list. A scalar becomes a one element list.
func (q SearchQuery) Strings(key string) ([]string, bool) {
	v, ok := q[key]
	if !ok || v == nil {
		return nil, false
	}
	switch typed := v.(type) {
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out, true
	case []any:
		out := make([]string, len(typed))
		for i, item := range typed {
			out[i] = fmt.Sprintf("%v", item)
		}
		return out, true
	}
	s, ok := q.String(key)
	if !ok {
		return nil, false
	}
	return []string{s}, true
}

// Bool returns the value for key as a bool, accepting the string forms produced by
// URL decoding.
func (q SearchQuery) Bool(key string) (value bool, present bool, err error) {
	v, ok := q[key]
	if !ok || v == nil {
		return false, false, nil
	}
	if b, ok := v.(bool); ok {
		return b, true, nil
	}
	s, _ := q.String(key)
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, true, fmt.Errorf("invalid boolean for %s: %q", key, s)
	}
	return b, true, nil
}

// Merge copies every key of other into q, overwriting existing keys.
func (q SearchQuery) Merge(other SearchQuery) {
	for k, v := range other {
		q[k] = v
	}
}

// Clone returns a deep copy of the query.
func (q SearchQuery) Clone() SearchQuery {
	if q == nil {
		return nil
	}
	out := make(SearchQuery, len(q))
	for k, v := range q {
		out[k] = CloneValue(v)
	}
	return out
}

// Keys returns the query keys in sorted order.
func (q SearchQuery) Keys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CloneValue deep copies a query value.
func CloneValue(v any) any {
	switch typed := v.(type) {
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = CloneValue(item)
		}
		return out
	case SearchQuery:
		return typed.Clone()
	default:
		return v
	}
}
