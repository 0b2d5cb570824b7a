package datatable

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in exported workbooks.
const SheetName = "Datos"

// DefaultExportFileName is the workbook base name when none is configured.
const DefaultExportFileName = "export"

// Messages reported through the Notifier after an export.
const (
	MsgCopied        = "Datos copiados al portapapeles"
	MsgCopyFailed    = "No se pudieron copiar los datos"
	MsgWorkbookSaved = "Archivo Excel descargado"
	MsgWorkbookError = "No se pudo generar el archivo Excel"
)

// Clipboard receives clipboard exports.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	return nil
}

// NotificationLevel grades a Notification.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

// Notification reports the outcome of an export to the presentation layer.
type Notification struct {
	Level   NotificationLevel
	Message string
	Err     error
}

// Notifier receives export outcomes.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// TSV renders headers and rows as tab-separated text: the header line, then
// one newline-prefixed line per row. Tabs and line breaks inside values are
// replaced by spaces so each record stays on one line. Absent values are
// empty cells.
func TSV[T any](columns []Column[T], rows []T, resolve Accessor[T]) string {
	if resolve == nil {
		resolve = Resolve[T]
	}
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteString(sanitizeTSV(col.Header))
	}
	for _, row := range rows {
		b.WriteByte('\n')
		for i, col := range columns {
			if i > 0 {
				b.WriteByte('\t')
			}
			v, ok := resolve(row, col.Key)
			if !ok {
				continue
			}
			s, _ := Stringify(v)
			b.WriteString(sanitizeTSV(s))
		}
	}
	return b.String()
}

var tsvReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func sanitizeTSV(s string) string {
	return tsvReplacer.Replace(s)
}

// Record is one exported row keyed by column header, in column order.
type Record = orderedmap.OrderedMap[string, any]

// Records builds one Record per row. Columns sharing a header collapse into
// one key holding the later column's value. Absent values are stored as nil.
func Records[T any](columns []Column[T], rows []T, resolve Accessor[T]) []*Record {
	if resolve == nil {
		resolve = Resolve[T]
	}
	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec := orderedmap.New[string, any]()
		for _, col := range columns {
			v, ok := resolve(row, col.Key)
			if !ok {
				v = nil
			}
			rec.Set(col.Header, v)
		}
		out = append(out, rec)
	}
	return out
}

// ExportHeaders returns the distinct column headers in column order.
func ExportHeaders[T any](columns []Column[T]) []string {
	seen := make(map[string]struct{}, len(columns))
	headers := make([]string, 0, len(columns))
	for _, col := range columns {
		if _, dup := seen[col.Header]; dup {
			continue
		}
		seen[col.Header] = struct{}{}
		headers = append(headers, col.Header)
	}
	return headers
}

// NewWorkbook builds a workbook with a single SheetName sheet: a header row
// followed by one row per record. Zero rows still produce the header row.
// The caller owns the returned file and should Close it.
func NewWorkbook[T any](columns []Column[T], rows []T, resolve Accessor[T]) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := ExportHeaders(columns)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
	}

	for r, rec := range Records(columns, rows, resolve) {
		rowNum := r + 2 // header occupies row 1
		for c, h := range headers {
			v, _ := rec.Get(h)
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, cellValue(v)); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}
	return f, nil
}

// cellValue keeps values excelize stores natively as typed cells and turns
// everything else into text.
func cellValue(v any) any {
	switch t := v.(type) {
	case string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	default:
		s, _ := Stringify(v)
		return s
	}
}

// WorkbookFileName returns the download name for base, "<base>.xlsx".
func WorkbookFileName(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultExportFileName
	}
	return base + ".xlsx"
}

// writeClipboard runs the clipboard write off the caller's goroutine so a
// hung clipboard helper cannot outlive ctx.
func writeClipboard(ctx context.Context, cb Clipboard, text string) error {
	done := make(chan error, 1)
	go func() {
		done <- cb.WriteAll(text)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeWorkbook streams f to w.
func writeWorkbook(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
