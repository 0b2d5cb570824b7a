// Package loader turns JSON, NDJSON, YAML and TOML input into table rows.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvgrid/internal/navigator"
)

var (
	// ErrEmptyInput is returned for blank input.
	ErrEmptyInput = errors.New("empty input")
	// ErrNotTabular is returned when a root cannot be read as rows.
	ErrNotTabular = errors.New("input is not a list of records")
)

// LoadData parses input into documents, auto-detecting the format in this
// order: multi-document YAML, NDJSON, TOML, JSON, single-document YAML.
// Single-document inputs yield one element.
func LoadData(input string) ([]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return loadMultiDocYAML(input)
	}

	if lines := strings.Split(input, "\n"); len(lines) > 1 && isLikelyNDJSON(lines) {
		return loadNDJSON(lines)
	}

	// [section] headers look like JSON arrays, so TOML goes first.
	if isLikelyTOML(input) {
		return loadTOML(input)
	}

	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		if docs, err := loadJSON(input); err == nil {
			return docs, nil
		}
	}
	return loadYAML(input)
}

// LoadRoot parses input into a single root. Multi-document input becomes a
// list of documents.
func LoadRoot(input string) (any, error) {
	docs, err := LoadData(input)
	if err != nil {
		return nil, err
	}
	if len(docs) == 1 {
		return docs[0], nil
	}
	return docs, nil
}

// LoadReader reads r to the end and parses it with LoadRoot.
func LoadReader(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return LoadRoot(string(data))
}

// LoadFile reads path and parses it with LoadRoot.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadRoot(string(data))
}

// Rows reads a loaded root as table rows:
//   - a list is used as is;
//   - an object holding exactly one list (e.g. {"items": [...]}) yields that list;
//   - any other object is a single row.
//
// Scalars and nil report ErrNotTabular.
func Rows(root any) ([]any, error) {
	switch v := root.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := singleList(v); ok {
			return list, nil
		}
		return []any{v}, nil
	case nil:
		return nil, fmt.Errorf("%w: no data", ErrNotTabular)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotTabular, root)
	}
}

// RowsAt selects the dotted path within root and reads the result with Rows.
// An empty path reads root itself.
func RowsAt(root any, path string) ([]any, error) {
	if path == "" {
		return Rows(root)
	}
	v, ok := navigator.Lookup(root, path)
	if !ok {
		return nil, fmt.Errorf("%w: path %q not found", ErrNotTabular, path)
	}
	return Rows(v)
}

func singleList(m map[string]any) ([]any, bool) {
	var found []any
	lists := 0
	for _, v := range m {
		if l, ok := v.([]any); ok {
			found = l
			lists++
		}
	}
	return found, lists == 1 && len(m) == 1
}

func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

func loadYAML(input string) ([]any, error) {
	var data any
	if err := yaml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []any{data}, nil
}

func loadMultiDocYAML(input string) ([]any, error) {
	var docs []any
	dec := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no YAML documents", ErrEmptyInput)
	}
	return docs, nil
}

// loadNDJSON parses one JSON value per line. Lines that are not JSON are
// kept as plain strings.
func loadNDJSON(lines []string) ([]any, error) {
	docs := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			docs = append(docs, line)
			continue
		}
		docs = append(docs, v)
	}
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	return docs, nil
}

// isLikelyNDJSON requires more than one non-empty line and a majority of
// them starting with '{' or '['. YAML lists ("- a") do not qualify.
func isLikelyNDJSON(lines []string) bool {
	jsonLines, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonLines++
		}
	}
	return nonEmpty > 1 && jsonLines > nonEmpty/2
}

const tomlKey = `(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')`

var (
	tomlSection  = regexp.MustCompile(`^\s*\[{1,2}` + tomlKey + `(?:\.` + tomlKey + `)*\]{1,2}\s*$`)
	tomlKeyValue = regexp.MustCompile(`^\s*` + tomlKey + `(?:\.` + tomlKey + `)*\s*=\s*.+$`)
)

// isLikelyTOML reports TOML when any line is a [table] or [[array]] header,
// or when most lines are key = value pairs.
func isLikelyTOML(input string) bool {
	sections, pairs, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			pairs++
		}
	}
	return sections > 0 || (nonEmpty > 0 && pairs > nonEmpty/2)
}

func loadTOML(input string) ([]any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{normalizeTOML(data)}, nil
}

// normalizeTOML converts TOML local dates and times into values the table
// understands: dates and date-times become UTC time.Time, times of day text.
func normalizeTOML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalizeTOML(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = normalizeTOML(child)
		}
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = normalizeTOML(child)
		}
		return out
	case toml.LocalDate:
		return t.AsTime(time.UTC)
	case toml.LocalDateTime:
		return t.AsTime(time.UTC)
	case toml.LocalTime:
		return t.String()
	default:
		return v
	}
}
