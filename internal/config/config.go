// Package config holds the kvgrid configuration file schema and its embedded
// defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvgrid/internal/formatter"
	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the merged configuration.
type Config struct {
	About   About                  `yaml:"about" json:"about"`
	Table   Table                  `yaml:"table" json:"table"`
	Theme   Theme                  `yaml:"theme" json:"theme"`
	Columns []datatable.ColumnSpec `yaml:"columns" json:"columns"`
}

// About is shown by the version and help output.
type About struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Table holds table defaults. PageSize accepts the same values as the
// --page-size flag.
type Table struct {
	PageSize         string `yaml:"page_size" json:"page_size"`
	ExportFileName   string `yaml:"export_file_name" json:"export_file_name"`
	NoRecordsMessage string `yaml:"no_records_message" json:"no_records_message"`
	RowNumbers       bool   `yaml:"row_numbers" json:"row_numbers"`
}

// Theme holds terminal colors: ANSI numbers ("12") or hex ("#00ff00").
type Theme struct {
	HeaderFG  string `yaml:"header_fg" json:"header_fg"`
	HeaderBG  string `yaml:"header_bg" json:"header_bg"`
	RowNumber string `yaml:"row_number" json:"row_number"`
	Muted     string `yaml:"muted" json:"muted"`
	Separator string `yaml:"separator" json:"separator"`
}

// DefaultYAML returns a copy of the embedded default config.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, fmt.Errorf("embedded default config is empty")
	}
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults with the file at path merged on top. Fields the
// file leaves out keep their default; a columns list replaces the default
// one. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Merge(&cfg, data); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Merge decodes data over cfg and validates the result.
func Merge(cfg *Config, data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the page size and every column descriptor.
func (c Config) Validate() error {
	if _, err := c.PageSize(); err != nil {
		return fmt.Errorf("%w: table.page_size: %w", ErrInvalidConfig, err)
	}
	seen := map[string]bool{}
	for i, col := range c.Columns {
		if strings.TrimSpace(col.Key) == "" {
			return fmt.Errorf("%w: columns[%d] has no key", ErrInvalidConfig, i)
		}
		if seen[col.Key] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidConfig, col.Key)
		}
		seen[col.Key] = true
		if !col.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidConfig, col.Key, col.Type)
		}
	}
	return nil
}

// PageSize parses Table.PageSize; empty means datatable.DefaultPageSize.
func (c Config) PageSize() (int, error) {
	if strings.TrimSpace(c.Table.PageSize) == "" {
		return datatable.DefaultPageSize, nil
	}
	return datatable.ParsePageSize(c.Table.PageSize)
}

// TableColors converts the theme for formatter.SetTableTheme. Empty entries
// keep the formatter defaults.
func (t Theme) TableColors() formatter.TableColors {
	var tc formatter.TableColors
	if t.HeaderFG != "" {
		tc.HeaderFG = lipgloss.Color(t.HeaderFG)
	}
	if t.HeaderBG != "" {
		tc.HeaderBG = lipgloss.Color(t.HeaderBG)
	}
	if t.RowNumber != "" {
		tc.RowNumberColor = lipgloss.Color(t.RowNumber)
	}
	if t.Muted != "" {
		tc.MutedColor = lipgloss.Color(t.Muted)
	}
	if t.Separator != "" {
		tc.SeparatorColor = lipgloss.Color(t.Separator)
	}
	return tc
}

// LoadColumns reads column descriptors from a YAML file holding either a
// list or a mapping with a columns list.
func LoadColumns(path string) ([]datatable.ColumnSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var specs []datatable.ColumnSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		var wrapped struct {
			Columns []datatable.ColumnSpec `yaml:"columns"`
		}
		if werr := yaml.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("decode columns %s: %w", path, err)
		}
		specs = wrapped.Columns
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: %s declares no columns", ErrInvalidConfig, path)
	}
	return specs, (Config{Columns: specs}).Validate()
}

// ResolvePath returns explicit when set, otherwise the first existing file
// among $XDG_CONFIG_HOME/<app>/config.yaml and ~/.config/<app>/config.yaml.
func ResolvePath(app, explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, app, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", app, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}
