package datatable

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/oakwood-commons/kvgrid/internal/navigator"
)

// Accessor resolves a column key against a row. It reports false when the
// value is absent; absent values never match filters, sort last and export
// as empty cells.
type Accessor[T any] func(row T, key string) (any, bool)

// Resolve is the default Accessor. It walks maps, slices, structs (json tag
// or field name) and pointers along the dotted key.
func Resolve[T any](row T, key string) (any, bool) {
	return navigator.Lookup(row, key)
}

// Stringify renders a resolved value as text for search, text filters,
// status matching and TSV export. Absent values report false.
//
// Dates at midnight render as YYYY-MM-DD, other times as RFC 3339. Composite
// values render as compact JSON.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case time.Time:
		return formatTime(t), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return formatTime(*t), true
	case map[string]any, []any:
		return marshalCompact(t), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", false
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), true
		}
		return Stringify(rv.Elem().Interface())
	}
	switch rv.Kind() { //nolint:exhaustive // scalars are left to cast
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if _, ok := v.(fmt.Stringer); !ok {
			return marshalCompact(v), true
		}
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, true
	}
	return fmt.Sprint(v), true
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func marshalCompact(v any) string {
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// ParseDate interprets a resolved value as a point in time. Strings are
// parsed with cast's layout list (ISO dates, RFC 3339 and friends) in UTC;
// integers are Unix seconds. Anything else reports false.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, false
		}
		tm, err := cast.ToTimeE(strings.TrimSpace(t))
		return tm, err == nil
	case float32, float64, bool:
		return time.Time{}, false
	}
	tm, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, false
	}
	return tm, true
}

// toNumber reports v as float64 when it is a Go number. When parseStrings is
// set, numeric strings count too.
func toNumber(v any, parseStrings bool) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int16:
		return float64(t), true
	case int8:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint8:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		t = strings.TrimSpace(t)
		if !parseStrings || t == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(t)
		return f, err == nil
	default:
		return 0, false
	}
}
