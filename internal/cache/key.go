package cache

import (
	"fmt"
	"net/url"
	"reflect"
)

// GenerateKey builds the canonical cache key for a logical route and its
// query parameters. Parameters whose value is nil (including typed nil
// pointers) or the empty string are dropped; the rest are sorted by name and
// form-encoded, so the same effective parameters always yield the same key
// regardless of map iteration order.
func GenerateKey(route string, params map[string]any) string {
	values := url.Values{}
	for name, v := range params {
		s, ok := paramString(v)
		if !ok {
			continue
		}
		values.Set(name, s)
	}
	if len(values) == 0 {
		return route
	}
	// Encode sorts by key.
	return route + "?" + values.Encode()
}

func paramString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return paramString(rv.Elem().Interface())
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "", false
	}
	return s, true
}
