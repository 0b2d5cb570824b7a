package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

const (
	sepWidth    = 2
	minColWidth = 3
)

// Sort indicators appended to sorted headers.
const (
	IndicatorAsc  = "▲"
	IndicatorDesc = "▼"
)

// TableOptions configures RenderTable.
type TableOptions struct {
	// Width is the total width available; 0 means the terminal width.
	Width int
	// NoColor disables ANSI styling.
	NoColor bool
	// RowNumbers prefixes each row with its 1-based position in the full result.
	RowNumbers bool
	// HideFooter omits the pagination line.
	HideFooter bool
}

// HeaderLabel is the header text with its sort indicator.
func HeaderLabel(h datatable.HeaderCell) string {
	switch h.Direction {
	case datatable.DirectionAsc:
		return h.Header + " " + IndicatorAsc
	case datatable.DirectionDesc:
		return h.Header + " " + IndicatorDesc
	default:
		return h.Header
	}
}

// CellText is the text shown for a cell: the Render result when it is text,
// otherwise the stringified value.
func CellText(c datatable.Cell) string {
	switch r := c.Rendered.(type) {
	case string:
		return cellText(r)
	case fmt.Stringer:
		return cellText(r.String())
	}
	return cellText(c.Text)
}

// RenderTable draws the visible page of v: headers, a separator, one line per
// row (or the empty message) and the pagination footer.
func RenderTable[T any](v datatable.View[T], opts TableOptions) string {
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth(DefaultWidth)
	}

	labels := make([]string, len(v.Headers))
	right := make([]bool, len(v.Headers))
	for i, h := range v.Headers {
		labels[i] = HeaderLabel(h)
		right[i] = h.Type == datatable.TypeNumber
	}
	rows := make([][]string, len(v.Rows))
	for r, row := range v.Rows {
		rows[r] = make([]string, len(row.Cells))
		for c, cell := range row.Cells {
			rows[r][c] = CellText(cell)
		}
	}

	numWidth := 0
	if opts.RowNumbers {
		numWidth = len(strconv.Itoa(v.TotalRows))
		if numWidth < 1 {
			numWidth = 1
		}
		width -= numWidth + sepWidth
	}
	widths := columnWidths(v.Headers, labels, rows, width)
	sep := strings.Repeat(" ", sepWidth)

	var b strings.Builder
	line := make([]string, 0, len(labels)+1)
	if opts.RowNumbers {
		line = append(line, style(headerStyle, padRight("#", numWidth), opts.NoColor))
	}
	for i, label := range labels {
		line = append(line, style(headerStyle, align(truncate(label, widths[i]), widths[i], right[i], i == len(labels)-1), opts.NoColor))
	}
	b.WriteString(strings.Join(line, sep))
	b.WriteByte('\n')

	total := 0
	for _, w := range widths {
		total += w
	}
	total += sepWidth * max(len(widths)-1, 0)
	if opts.RowNumbers {
		total += numWidth + sepWidth
	}
	b.WriteString(style(separatorStyle, strings.Repeat("─", total), opts.NoColor))
	b.WriteByte('\n')

	if v.Empty {
		b.WriteString(style(mutedStyle, v.EmptyMessage, opts.NoColor))
		b.WriteByte('\n')
	}
	for r, values := range rows {
		line = line[:0]
		if opts.RowNumbers {
			num := padLeft(strconv.Itoa(v.Rows[r].Index+1), numWidth)
			line = append(line, style(rowNumberStyle, num, opts.NoColor))
		}
		for i, val := range values {
			line = append(line, align(truncate(val, widths[i]), widths[i], right[i], i == len(values)-1))
		}
		b.WriteString(strings.Join(line, sep))
		b.WriteByte('\n')
	}

	if !opts.HideFooter {
		b.WriteString(style(mutedStyle, Footer(v.CurrentPage, v.TotalPages, v.TotalRows, v.BadgeCount), opts.NoColor))
		b.WriteByte('\n')
	}
	return b.String()
}

// align pads s to width. The last left-aligned column is not padded so lines
// carry no trailing blanks.
func align(s string, width int, right, last bool) string {
	if right {
		return padLeft(s, width)
	}
	if last {
		return s
	}
	return padRight(s, width)
}

// columnWidths sizes each column to its widest label or value, capped by the
// header's Width hint, then shrinks the widest columns until the table fits.
func columnWidths(headers []datatable.HeaderCell, labels []string, rows [][]string, available int) []int {
	widths := make([]int, len(labels))
	for i, l := range labels {
		widths[i] = runewidth.StringWidth(l)
	}
	for _, row := range rows {
		for i, val := range row {
			if w := runewidth.StringWidth(val); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, h := range headers {
		if h.Width > 0 && widths[i] > h.Width {
			widths[i] = max(h.Width, minColWidth)
		}
	}

	usable := available - sepWidth*max(len(widths)-1, 0)
	if usable <= 0 {
		return widths
	}
	for sum(widths) > usable {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
