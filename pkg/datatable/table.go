package datatable

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Option configures a Table.
type Option func(*options)

type options struct {
	exportFileName   string
	pageSize         int
	noRecordsMessage string
	notifier         Notifier
	clipboard        Clipboard
	log              logr.Logger
}

// DefaultNoRecordsMessage is shown when the visible page is empty.
const DefaultNoRecordsMessage = "No se encontraron registros"

// WithExportFileName sets the workbook base name (default "export").
func WithExportFileName(name string) Option {
	return func(o *options) {
		o.exportFileName = name
	}
}

// WithPageSize sets the initial page size. Invalid sizes make New fail.
func WithPageSize(size int) Option {
	return func(o *options) {
		o.pageSize = size
	}
}

// WithNoRecordsMessage overrides the empty-page placeholder.
func WithNoRecordsMessage(msg string) Option {
	return func(o *options) {
		o.noRecordsMessage = msg
	}
}

// WithNotifier sets the receiver of export outcomes.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(o *options) {
		o.clipboard = c
	}
}

// WithLogger attaches a logger; state changes log at V(1).
func WithLogger(l logr.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// stage caches the output of one pipeline step, keyed by the versions of its inputs.
type stage[T any] struct {
	inputs  [2]uint64
	rows    []T
	version uint64
	ready   bool
	runs    int
}

func (s *stage[T]) get(a, b uint64, compute func() []T) []T {
	key := [2]uint64{a, b}
	if s.ready && s.inputs == key {
		return s.rows
	}
	s.rows = compute()
	s.inputs = key
	s.ready = true
	s.version++
	s.runs++
	return s.rows
}

// Table is one list view: caller-owned rows plus search, filter, sort and
// pagination state. Every derived view is recomputed lazily, and only when
// one of its inputs changed.
type Table[T any] struct {
	id       string
	columns  []Column[T]
	colIndex map[string]int
	rows     []T
	resolve  Accessor[T]
	opts     options

	onRowClick func(T)

	search  string
	filters *FilterState
	sort    SortConfig
	page    PaginationConfig

	dataVersion   uint64
	filterVersion uint64
	sortVersion   uint64
	pageVersion   uint64

	filtered stage[T]
	sorted   stage[T]
	paged    stage[T]
}

// New creates a table over rows. Columns are validated and copied; rows are
// referenced, never modified.
func New[T any](columns []Column[T], rows []T, opts ...Option) (*Table[T], error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	o := options{
		exportFileName:   DefaultExportFileName,
		pageSize:         DefaultPageSize,
		noRecordsMessage: DefaultNoRecordsMessage,
		notifier:         discardNotifier{},
		clipboard:        SystemClipboard{},
		log:              logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ValidatePageSize(o.pageSize); err != nil {
		return nil, err
	}
	if o.notifier == nil {
		o.notifier = discardNotifier{}
	}
	if o.clipboard == nil {
		o.clipboard = SystemClipboard{}
	}

	cols := slices.Clone(columns)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		cols[i].StatusOptions = slices.Clone(c.StatusOptions)
		index[c.Key] = i
	}

	t := &Table[T]{
		id:       uuid.NewString(),
		columns:  cols,
		colIndex: index,
		rows:     rows,
		resolve:  Resolve[T],
		opts:     o,
		filters:  NewFilterState(),
		page:     PaginationConfig{PageSize: o.pageSize, CurrentPage: 1},
	}
	t.opts.log = o.log.WithValues("table", t.id)
	t.opts.log.V(1).Info("table created", "columns", len(cols), "rows", len(rows))
	return t, nil
}

// ID identifies the table instance in logs.
func (t *Table[T]) ID() string { return t.id }

// Columns returns a copy of the column descriptors.
func (t *Table[T]) Columns() []Column[T] { return slices.Clone(t.columns) }

// Column returns the descriptor for key.
func (t *Table[T]) Column(key string) (Column[T], bool) {
	i, ok := t.colIndex[key]
	if !ok {
		return Column[T]{}, false
	}
	return t.columns[i], true
}

// SetAccessor replaces the field accessor, e.g. with a reflection-free one
// for a concrete row type. A nil accessor restores the default.
func (t *Table[T]) SetAccessor(a Accessor[T]) *Table[T] {
	if a == nil {
		a = Resolve[T]
	}
	t.resolve = a
	t.dataVersion++
	return t
}

// OnRowClick sets the callback Activate invokes with the original row.
func (t *Table[T]) OnRowClick(fn func(T)) *Table[T] {
	t.onRowClick = fn
	return t
}

// SetData replaces the row collection. Search, filters and sort are kept;
// the current page is clamped to the new page count.
func (t *Table[T]) SetData(rows []T) {
	t.rows = rows
	t.dataVersion++
	t.clampPage()
	t.opts.log.V(1).Info("data replaced", "rows", len(rows))
}

// Rows returns the caller-owned row collection.
func (t *Table[T]) Rows() []T { return t.rows }

// Search returns the global search term.
func (t *Table[T]) Search() string { return t.search }

// SetSearch sets the global search term and returns to page 1.
func (t *Table[T]) SetSearch(term string) {
	if term == t.search {
		return
	}
	t.search = term
	t.filtersChanged()
	t.opts.log.V(1).Info("search updated", "term", term)
}

// SetTextFilter sets a case-insensitive substring filter on key. An empty
// value removes the filter. Any column type accepts a text filter.
func (t *Table[T]) SetTextFilter(key, value string) error {
	if _, err := t.lookupColumn(key); err != nil {
		return err
	}
	t.setFilter(key, Filter{Type: FilterText, Text: value})
	return nil
}

// SetDateFilter sets an inclusive date range on a date column. A range with
// no bounds removes the filter.
func (t *Table[T]) SetDateFilter(key string, r DateRange) error {
	col, err := t.lookupColumn(key)
	if err != nil {
		return err
	}
	if col.EffectiveType() != TypeDate {
		return fmt.Errorf("%w: date filter on %s column %q", ErrFilterType, col.EffectiveType(), key)
	}
	t.setFilter(key, Filter{Type: FilterDate, Range: r})
	return nil
}

// SetDateFrom changes only the lower bound of key's date range.
func (t *Table[T]) SetDateFrom(key string, from *time.Time) error {
	r := t.dateRange(key)
	r.From = from
	return t.SetDateFilter(key, r)
}

// SetDateTo changes only the upper bound of key's date range.
func (t *Table[T]) SetDateTo(key string, to *time.Time) error {
	r := t.dateRange(key)
	r.To = to
	return t.SetDateFilter(key, r)
}

func (t *Table[T]) dateRange(key string) DateRange {
	if f, ok := t.filters.Get(key); ok && f.Type == FilterDate {
		return f.Range
	}
	return DateRange{}
}

// SetStatusFilter selects the statuses a status column must match. An empty
// selection removes the filter. When the column lists status options, every
// status must be one of them.
func (t *Table[T]) SetStatusFilter(key string, statuses []string) error {
	col, err := t.lookupColumn(key)
	if err != nil {
		return err
	}
	if col.EffectiveType() != TypeStatus {
		return fmt.Errorf("%w: status filter on %s column %q", ErrFilterType, col.EffectiveType(), key)
	}
	selected := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if len(col.StatusOptions) > 0 && !slices.Contains(col.StatusOptions, s) {
			return fmt.Errorf("%w: %q for column %q", ErrUnknownStatus, s, key)
		}
		if !slices.Contains(selected, s) {
			selected = append(selected, s)
		}
	}
	t.setFilter(key, Filter{Type: FilterStatus, Statuses: selected})
	return nil
}

// ToggleStatus adds status to key's selection, or removes it when already
// selected. Deselecting the last status removes the filter.
func (t *Table[T]) ToggleStatus(key, status string) error {
	var selected []string
	if f, ok := t.filters.Get(key); ok && f.Type == FilterStatus {
		selected = f.Statuses
	}
	if i := slices.Index(selected, status); i >= 0 {
		selected = slices.Delete(selected, i, i+1)
	} else {
		selected = append(selected, status)
	}
	return t.SetStatusFilter(key, selected)
}

// Filter returns the active filter on key.
func (t *Table[T]) Filter(key string) (Filter, bool) {
	return t.filters.Get(key)
}

// Filters returns a copy of the filter state.
func (t *Table[T]) Filters() *FilterState {
	return t.filters.Clone()
}

// ClearFilter removes key's filter and reports whether one was active.
func (t *Table[T]) ClearFilter(key string) bool {
	if !t.filters.Delete(key) {
		return false
	}
	t.filtersChanged()
	t.opts.log.V(1).Info("filter cleared", "column", key)
	return true
}

// ClearFilters removes every column filter and the search term.
func (t *Table[T]) ClearFilters() {
	cleared := t.filters.Clear()
	if !cleared && t.search == "" {
		return
	}
	t.search = ""
	t.filtersChanged()
	t.opts.log.V(1).Info("filters cleared")
}

// FilterCount is the number of active column filters.
func (t *Table[T]) FilterCount() int { return t.filters.Len() }

// BadgeCount is the number shown on the filter button: column filters plus
// one for a non-empty search term.
func (t *Table[T]) BadgeCount() int {
	n := t.filters.Len()
	if t.search != "" {
		n++
	}
	return n
}

// HasActiveFilters reports whether any filter or search is narrowing the rows.
func (t *Table[T]) HasActiveFilters() bool { return t.BadgeCount() > 0 }

func (t *Table[T]) setFilter(key string, f Filter) {
	if !t.filters.Set(key, f) {
		return
	}
	t.filtersChanged()
	t.opts.log.V(1).Info("filter updated", "column", key, "type", f.Type, "active", t.filters.Len())
}

func (t *Table[T]) filtersChanged() {
	t.filterVersion++
	t.page.CurrentPage = 1
	t.pageVersion++
}

// Sort returns the active sort config.
func (t *Table[T]) Sort() SortConfig { return t.sort }

// SortIndicator returns the direction to display next to key's header.
func (t *Table[T]) SortIndicator(key string) Direction { return t.sort.DirectionFor(key) }

// ToggleSort applies a header click on key: asc, desc, then unsorted on the
// same column; asc on a new column.
func (t *Table[T]) ToggleSort(key string) error {
	col, err := t.lookupColumn(key)
	if err != nil {
		return err
	}
	if !col.IsSortable() {
		return fmt.Errorf("%w: %q", ErrNotSortable, key)
	}
	t.sort = t.sort.Next(key)
	t.sortVersion++
	t.opts.log.V(1).Info("sort toggled", "column", key, "direction", t.sort.DirectionFor(key))
	return nil
}

// SetSort installs cfg directly. DirectionNone or an empty key clears the sort.
func (t *Table[T]) SetSort(cfg SortConfig) error {
	if !cfg.Active() {
		if cfg.Key != "" && cfg.Direction != DirectionNone && cfg.Direction != "" {
			return fmt.Errorf("invalid sort direction %q", cfg.Direction)
		}
		t.sort = SortConfig{}
		t.sortVersion++
		return nil
	}
	col, err := t.lookupColumn(cfg.Key)
	if err != nil {
		return err
	}
	if !col.IsSortable() {
		return fmt.Errorf("%w: %q", ErrNotSortable, cfg.Key)
	}
	t.sort = cfg
	t.sortVersion++
	return nil
}

// PageSize returns the page size; ShowAll means a single page.
func (t *Table[T]) PageSize() int { return t.page.PageSize }

// CurrentPage returns the 1-based visible page.
func (t *Table[T]) CurrentPage() int { return t.page.CurrentPage }

// Pagination returns the pagination config.
func (t *Table[T]) Pagination() PaginationConfig { return t.page }

// SetPageSize changes the page size and returns to page 1.
func (t *Table[T]) SetPageSize(size int) error {
	if err := ValidatePageSize(size); err != nil {
		return err
	}
	t.page = PaginationConfig{PageSize: size, CurrentPage: 1}
	t.pageVersion++
	t.opts.log.V(1).Info("page size updated", "pageSize", size)
	return nil
}

// SetPage moves to page, clamped to [1, TotalPages].
func (t *Table[T]) SetPage(page int) {
	page = ClampPage(page, len(t.Sorted()), t.page.PageSize)
	if page == t.page.CurrentPage {
		return
	}
	t.page.CurrentPage = page
	t.pageVersion++
}

// FirstPage moves to page 1.
func (t *Table[T]) FirstPage() { t.SetPage(1) }

// PrevPage moves back one page, stopping at 1.
func (t *Table[T]) PrevPage() { t.SetPage(t.page.CurrentPage - 1) }

// NextPage moves forward one page, stopping at the last.
func (t *Table[T]) NextPage() { t.SetPage(t.page.CurrentPage + 1) }

// LastPage moves to the last page.
func (t *Table[T]) LastPage() { t.SetPage(t.TotalPages()) }

// CanPrev reports whether PrevPage would move; always false when showing all rows.
func (t *Table[T]) CanPrev() bool {
	return t.page.PageSize != ShowAll && t.page.CurrentPage > 1
}

// CanNext reports whether NextPage would move; always false when showing all rows.
func (t *Table[T]) CanNext() bool {
	return t.page.PageSize != ShowAll && t.page.CurrentPage < t.TotalPages()
}

func (t *Table[T]) clampPage() {
	page := ClampPage(t.page.CurrentPage, len(t.Sorted()), t.page.PageSize)
	if page != t.page.CurrentPage {
		t.page.CurrentPage = page
	}
	t.pageVersion++
}

// Filtered returns the rows passing search and filters, in input order.
func (t *Table[T]) Filtered() []T {
	return t.filtered.get(t.dataVersion, t.filterVersion, func() []T {
		return FilterRows(t.rows, t.columns, t.search, t.filters, t.resolve)
	})
}

// Sorted returns the filtered rows in sort order. This is the sequence
// exports are built from.
func (t *Table[T]) Sorted() []T {
	filtered := t.Filtered()
	return t.sorted.get(t.filtered.version, t.sortVersion, func() []T {
		numeric := false
		if col, ok := t.Column(t.sort.Key); ok {
			numeric = col.EffectiveType() == TypeNumber
		}
		return SortRows(filtered, t.sort, t.resolve, numeric)
	})
}

// Page returns the rows on the current page.
func (t *Table[T]) Page() []T {
	sorted := t.Sorted()
	return t.paged.get(t.sorted.version, t.pageVersion, func() []T {
		return Paginate(sorted, t.page)
	})
}

// TotalRows is the number of filtered rows across all pages.
func (t *Table[T]) TotalRows() int { return len(t.Sorted()) }

// TotalPages is 1 when showing all rows, else ceil(TotalRows/PageSize), at least 1.
func (t *Table[T]) TotalPages() int {
	return TotalPages(len(t.Sorted()), t.page.PageSize)
}

// Value resolves key against row with the table's accessor.
func (t *Table[T]) Value(row T, key string) (any, bool) {
	return t.resolve(row, key)
}

// Activate invokes the row-click callback with the original row shown at
// index i of the current page.
func (t *Table[T]) Activate(i int) error {
	page := t.Page()
	if i < 0 || i >= len(page) {
		return fmt.Errorf("%w: %d (page has %d rows)", ErrRowOutOfRange, i, len(page))
	}
	if t.onRowClick != nil {
		t.onRowClick(page[i])
	}
	return nil
}

// ExportFileName returns the workbook base name.
func (t *Table[T]) ExportFileName() string { return t.opts.exportFileName }

// ClipboardText renders every filtered, sorted row as tab-separated text.
func (t *Table[T]) ClipboardText() string {
	return TSV(t.columns, t.Sorted(), t.resolve)
}

// CopyToClipboard writes ClipboardText to the clipboard and notifies the
// outcome. Table state is untouched either way.
func (t *Table[T]) CopyToClipboard(ctx context.Context) error {
	rows := t.Sorted()
	text := TSV(t.columns, rows, t.resolve)
	if err := writeClipboard(ctx, t.opts.clipboard, text); err != nil {
		t.opts.log.Error(err, "clipboard export failed", "rows", len(rows))
		t.opts.notifier.Notify(Notification{Level: NotifyError, Message: MsgCopyFailed, Err: err})
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	t.opts.log.Info("clipboard export", "rows", len(rows))
	t.opts.notifier.Notify(Notification{Level: NotifySuccess, Message: MsgCopied})
	return nil
}

// Records returns the filtered, sorted rows keyed by column header.
func (t *Table[T]) Records() []*Record {
	return Records(t.columns, t.Sorted(), t.resolve)
}

// Workbook builds the XLSX export of every filtered, sorted row.
// The caller should Close the returned file.
func (t *Table[T]) Workbook() (*excelize.File, error) {
	return NewWorkbook(t.columns, t.Sorted(), t.resolve)
}

// WriteWorkbook streams the XLSX export to w.
func (t *Table[T]) WriteWorkbook(w io.Writer) error {
	f, err := t.Workbook()
	if err != nil {
		return err
	}
	defer f.Close()
	return writeWorkbook(f, w)
}

// SaveWorkbook writes the XLSX export to dir as "<ExportFileName>.xlsx",
// notifies the outcome and returns the written path.
func (t *Table[T]) SaveWorkbook(ctx context.Context, dir string) (string, error) {
	path := filepath.Join(dir, WorkbookFileName(t.opts.exportFileName))
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rows := len(t.Sorted())
	if err := t.saveWorkbook(path); err != nil {
		t.opts.log.Error(err, "workbook export failed", "path", path)
		t.opts.notifier.Notify(Notification{Level: NotifyError, Message: MsgWorkbookError, Err: err})
		return "", err
	}
	t.opts.log.Info("workbook export", "path", path, "rows", rows)
	t.opts.notifier.Notify(Notification{Level: NotifySuccess, Message: MsgWorkbookSaved})
	return path, nil
}

func (t *Table[T]) saveWorkbook(path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return t.WriteWorkbook(out)
}

func (t *Table[T]) lookupColumn(key string) (Column[T], error) {
	col, ok := t.Column(key)
	if !ok {
		return Column[T]{}, fmt.Errorf("%w: %q", ErrUnknownColumn, key)
	}
	return col, nil
}
