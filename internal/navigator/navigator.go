package navigator

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Lookup resolves a dotted path against root and reports whether every
// segment was present. Keys are separated by '.'; numeric segments and
// bracket segments ("items[0]", `meta["a.b"]`) index arrays and maps.
//
// Lookup never panics: a missing key, an out-of-range index, a nil pointer
// or a value that cannot be descended into all yield (nil, false).
// An empty path returns root itself. Pointer leaves are dereferenced, so a
// typed nil pointer is absent and *int resolves to int.
func Lookup(root any, path string) (any, bool) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return leaf(root)
	}
	cur := root
	for _, step := range parsePathCached(trimmed) {
		next, ok := navigateStep(cur, step)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return leaf(cur)
}

// leaf unwraps pointers and interfaces around a resolved value.
func leaf(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr && rv.Kind() != reflect.Interface {
		return v, true
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if !rv.CanInterface() {
		return nil, false
	}
	return rv.Interface(), true
}

// Value is Lookup without the presence flag; missing paths yield nil.
func Value(root any, path string) any {
	v, _ := Lookup(root, path)
	return v
}

// QuoteKey returns a path segment addressing the literal key k, bracket
// quoting it when it contains path separators.
func QuoteKey(k string) string {
	if !strings.ContainsAny(k, ".[]") {
		return k
	}
	return `["` + k + `"]`
}

var pathCache sync.Map // map[string][]string

// ParsePath splits a path into navigation steps, handling both dot and bracket notation.
// Examples: "items.0" -> ["items", "0"]
//
//	"items[0]" -> ["items", "0"]
//	"items[0].tags" -> ["items", "0", "tags"]
//	"address.city" -> ["address", "city"]
//
// The returned slice belongs to the caller.
func ParsePath(path string) []string {
	return slices.Clone(parsePathCached(path))
}

// parsePathCached memoizes parsePath; column keys are otherwise parsed once
// per row. Callers must not modify the result.
func parsePathCached(path string) []string {
	if cached, ok := pathCache.Load(path); ok {
		return cached.([]string)
	}
	parts := parsePath(path)
	pathCache.Store(path, parts)
	return parts
}

func parsePath(path string) []string {
	var parts []string
	var current strings.Builder

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		case '[':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j < len(path) {
				parts = append(parts, path[i+1:j])
				i = j
			} else {
				// unterminated bracket: keep the remainder as a literal key
				parts = append(parts, path[i+1:])
				i = len(path)
			}
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// navigateStep descends a single key or index.
func navigateStep(cur any, step string) (any, bool) {
	key := step
	if strings.HasPrefix(key, `"`) && strings.HasSuffix(key, `"`) && len(key) > 1 {
		key = key[1 : len(key)-1]
	}

	switch t := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := t[key]
		return v, ok
	case map[string]string:
		v, ok := t[key]
		return v, ok
	case []any:
		idx, err := strconv.Atoi(step)
		if err != nil || idx < 0 || idx >= len(t) {
			return nil, false
		}
		return t[idx], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() { //nolint:exhaustive // only container kinds can be descended into
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(step)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Struct:
		return structFieldValue(rv, key)
	default:
		return nil, false
	}
}

// structFieldValue matches exported fields by json tag name first, then by Go
// name. Fields of embedded structs without a json name are promoted, as
// encoding/json does; direct fields win over promoted ones.
func structFieldValue(rv reflect.Value, key string) (any, bool) {
	typ := rv.Type()
	var embedded []int
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tagName := strings.Split(field.Tag.Get("json"), ",")[0]
		if tagName == "-" {
			continue
		}
		if field.Anonymous && tagName == "" {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if field.IsExported() && field.Name == key {
					return leaf(rv.Field(i).Interface())
				}
				embedded = append(embedded, i)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if tagName == key || field.Name == key {
			fv := rv.Field(i)
			if !fv.CanInterface() || ((fv.Kind() == reflect.Ptr || fv.Kind() == reflect.Interface) && fv.IsNil()) {
				return nil, false
			}
			return fv.Interface(), true
		}
	}
	for _, i := range embedded {
		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if v, ok := structFieldValue(fv, key); ok {
			return v, true
		}
	}
	return nil, false
}
