package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

var errFlagFormat = errors.New("invalid flag value")

// pageSizeValue is a pflag.Value accepting 10|20|50|100|all or any positive number.
type pageSizeValue struct {
	size int
}

var _ pflag.Value = (*pageSizeValue)(nil)

func newPageSizeValue(size int) *pageSizeValue {
	return &pageSizeValue{size: size}
}

func (p *pageSizeValue) String() string {
	if p == nil {
		return ""
	}
	return datatable.FormatPageSize(p.size)
}

func (p *pageSizeValue) Set(s string) error {
	size, err := datatable.ParsePageSize(s)
	if err != nil {
		return err
	}
	p.size = size
	return nil
}

func (p *pageSizeValue) Type() string { return "size" }

// splitKeyValue parses "key=value". The key may contain dots; the first '='
// separates it from the value.
func splitKeyValue(flag, s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: --%s %q (expected key=value)", errFlagFormat, flag, s)
	}
	return key, value, nil
}

// parseStatusFlag parses "key=a,b" into a column key and its statuses.
func parseStatusFlag(s string) (string, []string, error) {
	key, value, err := splitKeyValue("status", s)
	if err != nil {
		return "", nil, err
	}
	var statuses []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			statuses = append(statuses, part)
		}
	}
	return key, statuses, nil
}

// parseDateFlag parses "key=FROM..TO". Either bound may be empty for an open
// range; a value without ".." is a single day. A date-only TO covers that
// whole day, so timestamped rows on the last day still match.
func parseDateFlag(s string) (string, datatable.DateRange, error) {
	key, value, err := splitKeyValue("date", s)
	if err != nil {
		return "", datatable.DateRange{}, err
	}
	fromText, toText, isRange := strings.Cut(value, "..")
	if !isRange {
		toText = fromText
	}
	var r datatable.DateRange
	if r.From, err = parseBound(fromText, false); err != nil {
		return "", r, fmt.Errorf("%w: --date %q: %w", errFlagFormat, s, err)
	}
	if r.To, err = parseBound(toText, true); err != nil {
		return "", r, fmt.Errorf("%w: --date %q: %w", errFlagFormat, s, err)
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return "", r, fmt.Errorf("%w: --date %q: end is before start", errFlagFormat, s)
	}
	return key, r, nil
}

// parseBound parses one end of a date range. With endOfDay, a YYYY-MM-DD
// value moves to the last nanosecond of that day.
func parseBound(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		if endOfDay {
			d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &d, nil
	}
	t, ok := datatable.ParseDate(s)
	if !ok {
		return nil, fmt.Errorf("cannot parse date %q", s)
	}
	return &t, nil
}

// parseSortFlag parses "key", "key:asc" or "key:desc".
func parseSortFlag(s string) (datatable.SortConfig, error) {
	key, dir, hasDir := strings.Cut(strings.TrimSpace(s), ":")
	if key == "" {
		return datatable.SortConfig{}, fmt.Errorf("%w: --sort %q (expected key[:asc|desc])", errFlagFormat, s)
	}
	direction := datatable.DirectionAsc
	if hasDir {
		d, ok := datatable.ParseDirection(dir)
		if !ok {
			return datatable.SortConfig{}, fmt.Errorf("%w: --sort %q: unknown direction %q", errFlagFormat, s, dir)
		}
		direction = d
	}
	return datatable.SortConfig{Key: key, Direction: direction}, nil
}

// tableFlags are the state flags applied to a table after it is built.
type tableFlags struct {
	search   string
	filters  []string
	statuses []string
	dates    []string
	sort     string
	page     int
}

// statusColumns maps the keys targeted by --status to the requested
// statuses, so inferred text columns can be typed as status columns.
// Malformed values are left for apply to report.
func (f tableFlags) statusColumns() map[string][]string {
	if len(f.statuses) == 0 {
		return nil
	}
	out := make(map[string][]string, len(f.statuses))
	for _, s := range f.statuses {
		key, statuses, err := parseStatusFlag(s)
		if err != nil {
			continue
		}
		out[key] = append(out[key], statuses...)
	}
	return out
}

// apply sets search, filters, sort and page on tbl, in that order, so the
// page is clamped against the final row count.
func (f tableFlags) apply(tbl *datatable.Table[any]) error {
	tbl.SetSearch(f.search)
	for _, s := range f.filters {
		key, value, err := splitKeyValue("filter", s)
		if err != nil {
			return err
		}
		if err := tbl.SetTextFilter(key, value); err != nil {
			return fmt.Errorf("--filter %s: %w", key, err)
		}
	}
	for _, s := range f.statuses {
		key, statuses, err := parseStatusFlag(s)
		if err != nil {
			return err
		}
		if err := tbl.SetStatusFilter(key, statuses); err != nil {
			return fmt.Errorf("--status %s: %w", key, err)
		}
	}
	for _, s := range f.dates {
		key, r, err := parseDateFlag(s)
		if err != nil {
			return err
		}
		if err := tbl.SetDateFilter(key, r); err != nil {
			return fmt.Errorf("--date %s: %w", key, err)
		}
	}
	if strings.TrimSpace(f.sort) != "" {
		cfg, err := parseSortFlag(f.sort)
		if err != nil {
			return err
		}
		if err := tbl.SetSort(cfg); err != nil {
			return fmt.Errorf("--sort %s: %w", cfg.Key, err)
		}
	}
	if f.page > 0 {
		tbl.SetPage(f.page)
	}
	return nil
}
