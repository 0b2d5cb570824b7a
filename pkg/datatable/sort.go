package datatable

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Direction is the sort direction of the active column.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// SortConfig is the single active sort. The zero value means unsorted.
type SortConfig struct {
	Key       string
	Direction Direction
}

// Active reports whether the config orders rows at all.
func (s SortConfig) Active() bool {
	return s.Key != "" && (s.Direction == DirectionAsc || s.Direction == DirectionDesc)
}

// Next returns the config after a header click on key. Clicking the sorted
// column cycles asc -> desc -> none; clicking any other column starts at asc.
func (s SortConfig) Next(key string) SortConfig {
	if s.Key != key || !s.Active() {
		return SortConfig{Key: key, Direction: DirectionAsc}
	}
	if s.Direction == DirectionAsc {
		return SortConfig{Key: key, Direction: DirectionDesc}
	}
	return SortConfig{}
}

// DirectionFor returns the direction displayed next to key's header.
func (s SortConfig) DirectionFor(key string) Direction {
	if !s.Active() || s.Key != key {
		return DirectionNone
	}
	return s.Direction
}

// ParseDirection accepts asc/ascending, desc/descending and none (or empty).
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return DirectionAsc, true
	case "desc", "descending":
		return DirectionDesc, true
	case "", "none":
		return DirectionNone, true
	default:
		return DirectionNone, false
	}
}

// SortRows returns a sorted copy of rows, or rows itself when cfg is not active.
// Ties keep their input order. Absent values go last in both directions.
// When numeric is set, numeric strings compare as numbers.
func SortRows[T any](rows []T, cfg SortConfig, resolve Accessor[T], numeric bool) []T {
	if !cfg.Active() {
		return rows
	}
	if resolve == nil {
		resolve = Resolve[T]
	}

	type keyed struct {
		row     T
		value   any
		present bool
	}
	items := make([]keyed, len(rows))
	for i, row := range rows {
		v, ok := resolve(row, cfg.Key)
		items[i] = keyed{row: row, value: v, present: ok}
	}

	desc := cfg.Direction == DirectionDesc
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case !a.present && !b.present:
			return 0
		case !a.present:
			return 1
		case !b.present:
			return -1
		}
		c := CompareValues(a.value, b.value, numeric)
		if desc {
			return -c
		}
		return c
	})

	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.row
	}
	return out
}

// CompareValues orders two present values: numbers numerically, times
// chronologically, strings lexicographically (so ISO dates order correctly),
// false before true, and anything else by its text form.
func CompareValues(a, b any, numeric bool) int {
	if fa, ok := toNumber(a, numeric); ok {
		if fb, ok := toNumber(b, numeric); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	sa, _ := Stringify(a)
	sb, _ := Stringify(b)
	return strings.Compare(sa, sb)
}
