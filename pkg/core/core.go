// Package core wires loading, row selection and column inference into a
// ready-to-use datatable.Table over decoded documents.
package core

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/cel"
	"github.com/oakwood-commons/kvgrid/internal/navigator"
	"github.com/oakwood-commons/kvgrid/pkg/datatable"
	"github.com/oakwood-commons/kvgrid/pkg/loader"
)

// ValueKey is the column key used when rows are scalars rather than objects.
const ValueKey = "value"

// Selector narrows rows with an expression. Rows the expression cannot be
// evaluated against are dropped and counted in skipped.
type Selector interface {
	Select(expr string, rows []any) (kept []any, skipped int, err error)
}

// Engine loads documents and turns their rows into tables.
type Engine struct {
	Selector Selector
	Logger   logr.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithSelector sets a custom row selector.
func WithSelector(s Selector) Option {
	return func(e *Engine) {
		e.Selector = s
	}
}

// WithLogger sets the logger handed to the engine and to every table it builds.
func WithLogger(l logr.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// New creates an Engine with a CEL selector unless one is injected.
func New(opts ...Option) (*Engine, error) {
	engine := &Engine{Logger: logr.Discard()}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.Selector == nil {
		eval, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		engine.Selector = celSelector{eval: eval}
	}
	return engine, nil
}

// LoadRoot parses input into a single root node; multi-doc inputs return a slice.
func LoadRoot(input string) (any, error) {
	return loader.LoadRoot(input)
}

// LoadReader reads r fully and parses it into a single root node.
func LoadReader(r io.Reader) (any, error) {
	return loader.LoadReader(r)
}

// LoadFile reads a file and parses it into a single root node.
func LoadFile(path string) (any, error) {
	return loader.LoadFile(path)
}

// Rows extracts the row list at path and keeps those matching where.
// An empty where keeps every row.
func (e *Engine) Rows(root any, path, where string) ([]any, error) {
	rows, err := loader.RowsAt(root, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(where) == "" {
		return rows, nil
	}
	if e == nil || e.Selector == nil {
		return nil, fmt.Errorf("selector is not configured")
	}
	kept, skipped, err := e.Selector.Select(where, rows)
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", where, err)
	}
	if skipped > 0 {
		e.Logger.V(1).Info("rows skipped by where", "expr", where, "skipped", skipped)
	}
	e.Logger.V(1).Info("rows selected", "expr", where, "kept", len(kept), "of", len(rows))
	return kept, nil
}

// TableConfig describes the table built by Engine.Table. Zero fields keep the
// datatable defaults; nil Columns are inferred from the rows.
type TableConfig struct {
	Columns []datatable.ColumnSpec
	// Statuses names inferred text columns to type as status, keyed by
	// column key. Options are the distinct values found in the rows plus the
	// listed statuses. Ignored when Columns is set.
	Statuses         map[string][]string
	PageSize         int
	ExportFileName   string
	NoRecordsMessage string
	Notifier         datatable.Notifier
	Clipboard        datatable.Clipboard
}

// Table builds a table over rows.
func (e *Engine) Table(rows []any, cfg TableConfig) (*datatable.Table[any], error) {
	specs := cfg.Columns
	if len(specs) == 0 {
		specs, rows = InferColumns(rows)
		specs = PromoteStatus(specs, rows, cfg.Statuses)
	}
	if len(specs) == 0 {
		specs = []datatable.ColumnSpec{{Key: ValueKey, Header: ValueKey}}
	}

	opts := []datatable.Option{datatable.WithLogger(e.logger())}
	if cfg.PageSize != 0 {
		opts = append(opts, datatable.WithPageSize(cfg.PageSize))
	}
	if cfg.ExportFileName != "" {
		opts = append(opts, datatable.WithExportFileName(cfg.ExportFileName))
	}
	if cfg.NoRecordsMessage != "" {
		opts = append(opts, datatable.WithNoRecordsMessage(cfg.NoRecordsMessage))
	}
	if cfg.Notifier != nil {
		opts = append(opts, datatable.WithNotifier(cfg.Notifier))
	}
	if cfg.Clipboard != nil {
		opts = append(opts, datatable.WithClipboard(cfg.Clipboard))
	}
	return datatable.New(datatable.ColumnsFromSpecs[any](specs), rows, opts...)
}

func (e *Engine) logger() logr.Logger {
	if e == nil {
		return logr.Discard()
	}
	return e.Logger
}

// InferColumns derives column specs from the union of the rows' top-level
// keys, sorted. Scalar rows are wrapped as {"value": row} so they still fit a
// single column; the returned rows replace the input in that case.
//
// A column whose present values are all numbers is typed number; one whose
// values are all dates (time.Time, YYYY-MM-DD or RFC 3339 text) is typed date.
func InferColumns(rows []any) ([]datatable.ColumnSpec, []any) {
	shape := navigator.DetectShape(rows)
	switch shape.Kind {
	case navigator.ShapeEmpty:
		return nil, rows
	case navigator.ShapeScalars:
		wrapped := make([]any, len(rows))
		for i, r := range rows {
			wrapped[i] = map[string]any{ValueKey: r}
		}
		return []datatable.ColumnSpec{{Key: ValueKey, Header: ValueKey, Type: inferType(wrapped, ValueKey)}}, wrapped
	}

	specs := make([]datatable.ColumnSpec, 0, len(shape.Fields))
	for _, f := range shape.Fields {
		key := navigator.QuoteKey(f)
		specs = append(specs, datatable.ColumnSpec{Key: key, Header: f, Type: inferType(rows, key)})
	}
	return specs, rows
}

// PromoteStatus types the text columns named in statuses as status columns.
// Their options are the distinct values present in rows plus the requested
// statuses, sorted. Other columns and unknown keys are left alone.
func PromoteStatus(specs []datatable.ColumnSpec, rows []any, statuses map[string][]string) []datatable.ColumnSpec {
	if len(statuses) == 0 {
		return specs
	}
	out := slices.Clone(specs)
	for i, spec := range out {
		if spec.Type != datatable.TypeText && spec.Type != "" {
			continue
		}
		requested, ok := statuses[spec.Key]
		if !ok {
			continue
		}
		out[i].Type = datatable.TypeStatus
		out[i].StatusOptions = distinctValues(rows, spec.Key, requested)
	}
	return out
}

func distinctValues(rows []any, key string, extra []string) []string {
	var values []string
	for _, s := range extra {
		if !slices.Contains(values, s) {
			values = append(values, s)
		}
	}
	for _, row := range rows {
		v, ok := navigator.Lookup(row, key)
		if !ok {
			continue
		}
		text, ok := datatable.Stringify(v)
		if !ok || slices.Contains(values, text) {
			continue
		}
		values = append(values, text)
	}
	slices.Sort(values)
	return values
}

func inferType(rows []any, key string) datatable.ColumnType {
	numbers, dates, present := 0, 0, 0
	for _, row := range rows {
		v, ok := navigator.Lookup(row, key)
		if !ok || v == nil {
			continue
		}
		present++
		switch {
		case isNumber(v):
			numbers++
		case isDate(v):
			dates++
		}
	}
	switch {
	case present == 0:
		return datatable.TypeText
	case numbers == present:
		return datatable.TypeNumber
	case dates == present:
		return datatable.TypeDate
	default:
		return datatable.TypeText
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func isDate(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case string:
		if _, err := time.Parse(time.DateOnly, t); err == nil {
			return true
		}
		_, err := time.Parse(time.RFC3339, t)
		return err == nil
	}
	return false
}

type celSelector struct {
	eval *cel.Evaluator
}

func (s celSelector) Select(expr string, rows []any) ([]any, int, error) {
	pred, err := s.eval.Compile(expr)
	if err != nil {
		return nil, 0, err
	}
	kept, skipped := pred.Filter(rows)
	return kept, skipped, nil
}
