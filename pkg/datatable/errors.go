package datatable

import "errors"

var (
	// ErrUnknownColumn is returned when a key does not name a configured column.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotSortable is returned when sorting is requested on a column declared non-sortable.
	ErrNotSortable = errors.New("column is not sortable")
	// ErrFilterType is returned when a filter kind does not fit the column type.
	ErrFilterType = errors.New("filter type does not match column type")
	// ErrUnknownStatus is returned when a status is not among the column's status options.
	ErrUnknownStatus = errors.New("status is not a column option")
	// ErrInvalidPageSize is returned for page sizes other than ShowAll or a positive number.
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidColumns is returned by New when the column set is malformed.
	ErrInvalidColumns = errors.New("invalid columns")
	// ErrRowOutOfRange is returned by Activate for an index outside the visible page.
	ErrRowOutOfRange = errors.New("row index out of range")
	// ErrClipboardUnavailable is returned when no clipboard is reachable on this platform.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)
