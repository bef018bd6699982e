// Package querystring converts search queries to and from their bookmarkable URL
// form. Lists use empty brackets (positionType[]=A&positionType[]=B) and nested maps
// use named brackets (range[start]=...). Keys are emitted in sorted order, so equal
// queries always encode to identical strings.
package querystring

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rpattn/recordsearch/internal/domain"
)

const maxDepth = 5

// ErrMalformed is returned when a query string cannot be mapped onto a search query.
var ErrMalformed = errors.New("malformed query string")

// Encode renders q as a URL query string.
func Encode(q domain.SearchQuery) string {
	return Values(q).Encode()
}

// Values renders q as url.Values for callers that add their own parameters.
func Values(q domain.SearchQuery) url.Values {
	values := url.Values{}
	for _, k := range q.Keys() {
		flatten(values, k, q[k])
	}
	return values
}

// Decode parses a query string produced by Encode. A leading "?" is ignored.
func Decode(raw string) (domain.SearchQuery, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return FromValues(values)
}

// FromValues maps already parsed URL values onto a search query.
func FromValues(values url.Values) (domain.SearchQuery, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := domain.SearchQuery{}
	for _, key := range keys {
		path, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		if err := assign(out, key, path, values[key]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Normalize returns the form q takes after an Encode/Decode round trip: scalars
// become strings, lists become []string and empty lists disappear.
func Normalize(q domain.SearchQuery) domain.SearchQuery {
	out := domain.SearchQuery{}
	for k, v := range q {
		if n, ok := normalizeValue(v); ok {
			out[k] = n
		}
	}
	return out
}

func normalizeValue(v any) (any, bool) {
	switch typed := v.(type) {
	case nil:
		return nil, false
	case []string:
		if len(typed) == 0 {
			return nil, false
		}
		out := make([]string, len(typed))
		copy(out, typed)
		return out, true
	case []any:
		if len(typed) == 0 {
			return nil, false
		}
		out := make([]string, len(typed))
		for i, item := range typed {
			out[i] = scalar(item)
		}
		return out, true
	case domain.SearchQuery:
		return normalizeValue(map[string]any(typed))
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			if n, ok := normalizeValue(item); ok {
				out[k] = n
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return scalar(typed), true
	}
}

func flatten(values url.Values, key string, v any) {
	switch typed := v.(type) {
	case nil:
	case []string:
		for _, item := range typed {
			values.Add(key+"[]", item)
		}
	case []any:
		for _, item := range typed {
			values.Add(key+"[]", scalar(item))
		}
	case domain.SearchQuery:
		flatten(values, key, map[string]any(typed))
	case map[string]any:
		subKeys := make([]string, 0, len(typed))
		for k := range typed {
			subKeys = append(subKeys, k)
		}
		sort.Strings(subKeys)
		for _, k := range subKeys {
			flatten(values, key+"["+k+"]", typed[k])
		}
	default:
		values.Add(key, scalar(typed))
	}
}

func scalar(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// splitKey turns "a[b][]" into ["a", "b", ""]. Keys without well formed brackets are
// taken literally.
func splitKey(key string) ([]string, error) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}, nil
	}
	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}, nil
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}, nil
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	if len(path) > maxDepth+1 {
		return nil, fmt.Errorf("%w: %s nests deeper than %d levels", ErrMalformed, key, maxDepth)
	}
	return path, nil
}

func assign(target map[string]any, key string, path []string, values []string) error {
	head := path[0]
	if len(path) == 1 {
		if _, exists := target[head]; exists {
			return fmt.Errorf("%w: %s conflicts with another key", ErrMalformed, key)
		}
		if len(values) == 1 {
			target[head] = values[0]
		} else {
			list := make([]string, len(values))
			copy(list, values)
			target[head] = list
		}
		return nil
	}

	if len(path) == 2 && path[1] == "" {
		existing, exists := target[head]
		if exists {
			if _, ok := existing.([]string); !ok {
				return fmt.Errorf("%w: %s conflicts with another key", ErrMalformed, key)
			}
		}
		list, _ := existing.([]string)
		target[head] = append(list, values...)
		return nil
	}
	if path[1] == "" {
		return fmt.Errorf("%w: %s nests inside a list", ErrMalformed, key)
	}

	child, exists := target[head]
	if !exists {
		child = map[string]any{}
		target[head] = child
	}
	nested, ok := child.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s conflicts with another key", ErrMalformed, key)
	}
	return assign(nested, key, path[1:], values)
}
