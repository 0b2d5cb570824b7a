// Package datatable is an in-memory query engine for tabular list views.
//
// A Table holds a caller-owned slice of rows together with an immutable set
// of column descriptors and derives, on demand, the filtered, sorted and
// paginated views of those rows:
//
//	rows -> filter (global search + per-column filters) -> sort -> paginate
//
// Exports (tab-separated clipboard text and XLSX workbooks) tap the pipeline
// after sorting, so they always contain the complete filtered result rather
// than the visible page.
//
// The engine is generic over the row type and never mutates the rows it is
// given. Field values are resolved through dotted key paths ("address.city");
// a missing segment yields "no value" instead of an error, and no stage fails
// because of the shape of a row.
//
// A Table is not safe for concurrent use. Independent tables share no state.
package datatable
