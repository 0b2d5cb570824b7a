package navigator

import (
	"reflect"
	"sort"
)

// ShapeKind describes the general structure of a row collection.
type ShapeKind string

const (
	ShapeEmpty   ShapeKind = "empty"
	ShapeRecords ShapeKind = "records" // every row is a string-keyed object
	ShapeMixed   ShapeKind = "mixed"   // objects mixed with scalars or arrays
	ShapeScalars ShapeKind = "scalars" // no row is an object
)

// ShapeInfo describes a row collection for column inference.
type ShapeInfo struct {
	Kind   ShapeKind
	Fields []string // union of top-level object keys, sorted
	Length int
}

// DetectShape inspects rows and collects the union of their top-level keys.
func DetectShape(rows []any) ShapeInfo {
	if len(rows) == 0 {
		return ShapeInfo{Kind: ShapeEmpty}
	}
	seen := map[string]struct{}{}
	objects := 0
	for _, row := range rows {
		keys, ok := objectKeys(row)
		if !ok {
			continue
		}
		objects++
		for _, k := range keys {
			seen[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	info := ShapeInfo{Fields: fields, Length: len(rows)}
	switch objects {
	case 0:
		info.Kind = ShapeScalars
	case len(rows):
		info.Kind = ShapeRecords
	default:
		info.Kind = ShapeMixed
	}
	return info
}

func objectKeys(v any) ([]string, bool) {
	switch m := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		return keys, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	return keys, true
}
