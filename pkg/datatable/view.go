package datatable

// Cell is one resolved value of a visible row.
type Cell struct {
	Key string
	// Value is the resolved field value; nil when absent.
	Value any
	// Present is false when the key did not resolve.
	Present bool
	// Text is Value stringified; empty when absent.
	Text string
	// Rendered holds the column's Render result, or nil without a Render callback.
	Rendered any
}

// ViewRow is a visible row: the original row plus its cells in column order.
type ViewRow[T any] struct {
	Row T
	// Index is the row's position in the full filtered, sorted sequence.
	Index int
	Cells []Cell
}

// HeaderCell describes one column header.
type HeaderCell struct {
	Key       string
	Header    string
	Type      ColumnType
	Sortable  bool
	Direction Direction
	Width     int
}

// View is everything a presentation layer needs to draw the table.
type View[T any] struct {
	Headers []HeaderCell
	Rows    []ViewRow[T]

	CurrentPage int
	TotalPages  int
	PageSize    int
	TotalRows   int

	// Empty is set when the page has no rows; EmptyMessage is the placeholder to show.
	Empty        bool
	EmptyMessage string

	Search      string
	FilterCount int
	BadgeCount  int
}

// View resolves the current page into headers and cells.
func (t *Table[T]) View() View[T] {
	page := t.Page()
	v := View[T]{
		Headers:     t.headerCells(),
		Rows:        make([]ViewRow[T], 0, len(page)),
		CurrentPage: t.page.CurrentPage,
		TotalPages:  t.TotalPages(),
		PageSize:    t.page.PageSize,
		TotalRows:   t.TotalRows(),
		Search:      t.search,
		FilterCount: t.FilterCount(),
		BadgeCount:  t.BadgeCount(),
	}

	offset := 0
	if t.page.PageSize != ShowAll {
		offset = (t.page.CurrentPage - 1) * t.page.PageSize
	}
	for i, row := range page {
		v.Rows = append(v.Rows, ViewRow[T]{
			Row:   row,
			Index: offset + i,
			Cells: t.cells(row),
		})
	}
	if len(v.Rows) == 0 {
		v.Empty = true
		v.EmptyMessage = t.opts.noRecordsMessage
	}
	return v
}

func (t *Table[T]) headerCells() []HeaderCell {
	headers := make([]HeaderCell, len(t.columns))
	for i, col := range t.columns {
		headers[i] = HeaderCell{
			Key:       col.Key,
			Header:    col.Header,
			Type:      col.EffectiveType(),
			Sortable:  col.IsSortable(),
			Direction: t.sort.DirectionFor(col.Key),
			Width:     col.Width,
		}
	}
	return headers
}

func (t *Table[T]) cells(row T) []Cell {
	cells := make([]Cell, len(t.columns))
	for i, col := range t.columns {
		v, ok := t.resolve(row, col.Key)
		if !ok {
			v = nil
		}
		text, _ := Stringify(v)
		c := Cell{Key: col.Key, Value: v, Present: ok, Text: text}
		if col.Render != nil {
			c.Rendered = col.Render(v, row)
		}
		cells[i] = c
	}
	return cells
}
