package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvgrid/internal/config"
	"github.com/oakwood-commons/kvgrid/pkg/settings"
)

// configLoader centralizes config loading so callers avoid duplicating merge logic.
type configLoader struct {
	resolve func(app, explicit string) string
	load    func(path string) (config.Config, error)
}

var cfgLoader = configLoader{resolve: config.ResolvePath, load: config.Load}

// loadMergedConfig merges the explicit or XDG config file over the embedded
// defaults and returns the path it read ("" for defaults only).
func loadMergedConfig(explicit string) (config.Config, string, error) {
	return cfgLoader.loadMergedConfig(explicit)
}

func (l configLoader) loadMergedConfig(explicit string) (config.Config, string, error) {
	path := l.resolve(settings.CliBinaryName, explicit)
	cfg, err := l.load(path)
	if err != nil {
		return cfg, path, fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

// renderConfig prints cfg as yaml (default) or json.
func renderConfig(cfg config.Config, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	case "json":
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode config: %w", err)
		}
		return string(b) + "\n", nil
	default:
		return "", fmt.Errorf("%w: config output %q (expected yaml|json)", errFlagFormat, format)
	}
}
