package datatable

import (
	"fmt"
	"strconv"
	"strings"
)

// ShowAll as a page size puts every row on a single page.
const ShowAll = -1

// DefaultPageSize is the page size of a new table.
const DefaultPageSize = 10

// PageSizeOptions are the page sizes offered to users, in display order.
var PageSizeOptions = []int{10, 20, 50, 100, ShowAll}

// PaginationConfig selects the visible slice. Pages are 1-based.
type PaginationConfig struct {
	PageSize    int
	CurrentPage int
}

// Validate checks the page size; the current page is clamped, not rejected.
func (p PaginationConfig) Validate() error {
	return ValidatePageSize(p.PageSize)
}

// ValidatePageSize accepts ShowAll or any positive size.
func ValidatePageSize(size int) error {
	if size == ShowAll || size > 0 {
		return nil
	}
	return fmt.Errorf("%w: %d (expected a positive number or %d for all rows)", ErrInvalidPageSize, size, ShowAll)
}

// ParsePageSize parses a page size as typed by a user: a positive number,
// "all"/"todos", or "-1".
func ParsePageSize(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "todos":
		return ShowAll, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	if err := ValidatePageSize(n); err != nil {
		return 0, err
	}
	return n, nil
}

// FormatPageSize is the inverse of ParsePageSize.
func FormatPageSize(size int) string {
	if size == ShowAll {
		return "all"
	}
	return strconv.Itoa(size)
}

// TotalPages is 1 for ShowAll, otherwise ceil(n/pageSize) with a minimum of 1.
func TotalPages(n, pageSize int) int {
	if pageSize == ShowAll || pageSize <= 0 {
		return 1
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage limits page to [1, TotalPages(n, pageSize)].
func ClampPage(page, n, pageSize int) int {
	if page < 1 {
		return 1
	}
	if total := TotalPages(n, pageSize); page > total {
		return total
	}
	return page
}

// Paginate returns the slice of rows visible on cfg.CurrentPage. ShowAll
// returns rows unchanged. Pages past the end yield an empty slice.
func Paginate[T any](rows []T, cfg PaginationConfig) []T {
	if cfg.PageSize == ShowAll || cfg.PageSize <= 0 {
		return rows
	}
	page := cfg.CurrentPage
	if page < 1 {
		page = 1
	}
	start := (page - 1) * cfg.PageSize
	if start >= len(rows) {
		return rows[:0:0]
	}
	end := min(start+cfg.PageSize, len(rows))
	return rows[start:end:end]
}
