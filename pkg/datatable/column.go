package datatable

import (
	"fmt"
	"slices"
)

// ColumnType classifies a column for filtering and sorting.
type ColumnType string

const (
	TypeText   ColumnType = "text"
	TypeDate   ColumnType = "date"
	TypeStatus ColumnType = "status"
	TypeNumber ColumnType = "number"
)

// Valid reports whether t is a known column type. The empty type means text.
func (t ColumnType) Valid() bool {
	switch t {
	case "", TypeText, TypeDate, TypeStatus, TypeNumber:
		return true
	default:
		return false
	}
}

// Column describes how a field is extracted, labelled, classified and
// optionally rendered across all rows.
type Column[T any] struct {
	// Key is a dotted path resolved against each row.
	Key string
	// Header is the label shown to users and used as the export header.
	Header string
	// Sortable defaults to true when nil.
	Sortable *bool
	// Type defaults to TypeText when empty.
	Type ColumnType
	// StatusOptions lists the selectable values of a status column, in display order.
	StatusOptions []string
	// Render receives the resolved value and the full row. Its result is
	// handed to the presentation layer untouched.
	Render func(value any, row T) any
	// Width is a layout hint in characters; 0 means natural width.
	Width int
}

// IsSortable reports whether header clicks sort by this column.
func (c Column[T]) IsSortable() bool {
	return c.Sortable == nil || *c.Sortable
}

// EffectiveType returns the column type with the text default applied.
func (c Column[T]) EffectiveType() ColumnType {
	if c.Type == "" {
		return TypeText
	}
	return c.Type
}

// Bool returns a pointer to b, for Column.Sortable literals.
func Bool(b bool) *bool {
	return &b
}

// ColumnSpec is the serializable form of a column, used by configuration files.
type ColumnSpec struct {
	Key           string     `yaml:"key" json:"key"`
	Header        string     `yaml:"header" json:"header"`
	Sortable      *bool      `yaml:"sortable,omitempty" json:"sortable,omitempty"`
	Type          ColumnType `yaml:"type,omitempty" json:"type,omitempty"`
	StatusOptions []string   `yaml:"statusOptions,omitempty" json:"statusOptions,omitempty"`
	Width         int        `yaml:"width,omitempty" json:"width,omitempty"`
}

// ColumnsFromSpecs converts specs into columns for row type T.
// A spec without a header uses its key as the header.
func ColumnsFromSpecs[T any](specs []ColumnSpec) []Column[T] {
	cols := make([]Column[T], 0, len(specs))
	for _, s := range specs {
		header := s.Header
		if header == "" {
			header = s.Key
		}
		cols = append(cols, Column[T]{
			Key:           s.Key,
			Header:        header,
			Sortable:      s.Sortable,
			Type:          s.Type,
			StatusOptions: slices.Clone(s.StatusOptions),
			Width:         s.Width,
		})
	}
	return cols
}

func validateColumns[T any](cols []Column[T]) error {
	if len(cols) == 0 {
		return fmt.Errorf("%w: at least one column is required", ErrInvalidColumns)
	}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c.Key == "" {
			return fmt.Errorf("%w: column %d has an empty key", ErrInvalidColumns, i)
		}
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidColumns, c.Key)
		}
		seen[c.Key] = struct{}{}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidColumns, c.Key, c.Type)
		}
		if len(c.StatusOptions) > 0 && c.EffectiveType() != TypeStatus {
			return fmt.Errorf("%w: column %q declares status options but is of type %s", ErrInvalidColumns, c.Key, c.EffectiveType())
		}
		if c.Width < 0 {
			return fmt.Errorf("%w: column %q has negative width", ErrInvalidColumns, c.Key)
		}
	}
	return nil
}
