package datatable

import (
	"slices"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FilterType names the kind of a column filter.
type FilterType string

const (
	FilterText   FilterType = "text"
	FilterDate   FilterType = "date"
	FilterStatus FilterType = "status"
)

// DateRange is an inclusive range; either bound may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether t lies within the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Filter is the criterion stored for one column. Only the field matching
// Type is meaningful.
type Filter struct {
	Type     FilterType
	Text     string
	Range    DateRange
	Statuses []string
}

// Empty reports whether the filter would match everything and therefore
// must not be stored.
func (f Filter) Empty() bool {
	switch f.Type {
	case FilterText:
		return f.Text == ""
	case FilterDate:
		return f.Range.IsZero()
	case FilterStatus:
		return len(f.Statuses) == 0
	default:
		return true
	}
}

// FilterState maps column keys to their active filter, in the order the
// filters were first set. A cleared filter is deleted, so Len is the number
// of active filters.
type FilterState struct {
	m *orderedmap.OrderedMap[string, Filter]
}

// NewFilterState returns an empty filter state.
func NewFilterState() *FilterState {
	return &FilterState{m: orderedmap.New[string, Filter]()}
}

// Set stores f for key, or deletes the entry when f is empty.
// It reports whether the state changed.
func (s *FilterState) Set(key string, f Filter) bool {
	if f.Empty() {
		return s.Delete(key)
	}
	f.Statuses = slices.Clone(f.Statuses)
	s.m.Set(key, f)
	return true
}

// Get returns the filter stored for key.
func (s *FilterState) Get(key string) (Filter, bool) {
	f, ok := s.m.Get(key)
	if ok {
		f.Statuses = slices.Clone(f.Statuses)
	}
	return f, ok
}

// Delete removes the filter for key and reports whether one existed.
func (s *FilterState) Delete(key string) bool {
	_, ok := s.m.Delete(key)
	return ok
}

// Len returns the number of active filters.
func (s *FilterState) Len() int {
	return s.m.Len()
}

// Keys returns the filtered column keys in insertion order.
func (s *FilterState) Keys() []string {
	keys := make([]string, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Clear removes every filter and reports whether any existed.
func (s *FilterState) Clear() bool {
	if s.m.Len() == 0 {
		return false
	}
	s.m = orderedmap.New[string, Filter]()
	return true
}

// Clone returns an independent copy.
func (s *FilterState) Clone() *FilterState {
	out := NewFilterState()
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// FilterRows returns the rows passing the global search and every column
// filter, in input order. The input slice is never modified.
//
// Search matches when any column's stringified value contains the term,
// ignoring case. Column filters are ANDed. Absent values fail every
// criterion; under a date filter, values that do not parse as dates fail too.
func FilterRows[T any](rows []T, columns []Column[T], search string, filters *FilterState, resolve Accessor[T]) []T {
	if resolve == nil {
		resolve = Resolve[T]
	}
	m := newMatcher(columns, search, filters, resolve)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if m.match(row) {
			out = append(out, row)
		}
	}
	return out
}

type columnCriterion struct {
	key    string
	filter Filter
	needle string
}

type matcher[T any] struct {
	columns  []Column[T]
	resolve  Accessor[T]
	lower    cases.Caser
	search   string
	criteria []columnCriterion
}

func newMatcher[T any](columns []Column[T], search string, filters *FilterState, resolve Accessor[T]) *matcher[T] {
	m := &matcher[T]{
		columns: columns,
		resolve: resolve,
		lower:   cases.Lower(language.Und),
	}
	if search != "" {
		m.search = m.lower.String(search)
	}
	if filters != nil {
		for pair := filters.m.Oldest(); pair != nil; pair = pair.Next() {
			c := columnCriterion{key: pair.Key, filter: pair.Value}
			if c.filter.Type == FilterText {
				c.needle = m.lower.String(c.filter.Text)
			}
			m.criteria = append(m.criteria, c)
		}
	}
	return m
}

func (m *matcher[T]) match(row T) bool {
	if m.search != "" && !m.matchSearch(row) {
		return false
	}
	for _, c := range m.criteria {
		if !m.matchColumn(row, c) {
			return false
		}
	}
	return true
}

func (m *matcher[T]) matchSearch(row T) bool {
	for _, col := range m.columns {
		if m.containsFold(row, col.Key, m.search) {
			return true
		}
	}
	return false
}

func (m *matcher[T]) containsFold(row T, key, needle string) bool {
	v, ok := m.resolve(row, key)
	if !ok {
		return false
	}
	s, ok := Stringify(v)
	if !ok {
		return false
	}
	return strings.Contains(m.lower.String(s), needle)
}

func (m *matcher[T]) matchColumn(row T, c columnCriterion) bool {
	switch c.filter.Type {
	case FilterText:
		return m.containsFold(row, c.key, c.needle)
	case FilterDate:
		v, ok := m.resolve(row, c.key)
		if !ok {
			return false
		}
		t, ok := ParseDate(v)
		if !ok {
			return false
		}
		return c.filter.Range.Contains(t)
	case FilterStatus:
		v, ok := m.resolve(row, c.key)
		if !ok {
			return false
		}
		s, ok := Stringify(v)
		if !ok {
			return false
		}
		return slices.Contains(c.filter.Statuses, s)
	default:
		return true
	}
}
