// Package limiter trims the loaded rows to a window before they reach the table.
package limiter

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow reports a negative bound or conflicting bounds.
var ErrInvalidWindow = errors.New("invalid row window")

// Config selects which loaded rows are kept.
type Config struct {
	Limit  int // keep at most this many rows (0 = unlimited)
	Offset int // skip the first N rows
	Tail   int // keep only the last N rows; excludes Limit and ignores Offset
}

// Validate rejects negative values and Limit combined with Tail.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("%w: --limit must be non-negative, got %d", ErrInvalidWindow, c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("%w: --offset must be non-negative, got %d", ErrInvalidWindow, c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("%w: --tail must be non-negative, got %d", ErrInvalidWindow, c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("%w: --limit and --tail are mutually exclusive", ErrInvalidWindow)
	}
	return nil
}

// IsActive reports whether any bound is set.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the [start, end) range of a slice of length n.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(c.Offset, n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the window of rows. The result shares the backing array.
func Apply[T any](c Config, rows []T) []T {
	if !c.IsActive() {
		return rows
	}
	start, end := c.Bounds(len(rows))
	return rows[start:end]
}
