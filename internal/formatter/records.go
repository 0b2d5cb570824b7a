package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

// FormatJSON renders records as an indented JSON array, keys in column order.
func FormatJSON(records []*datatable.Record) (string, error) {
	if records == nil {
		records = []*datatable.Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b) + "\n", nil
}

// FormatYAML renders records as a YAML sequence, keys in column order.
// Multi-line strings are emitted as literal blocks.
func FormatYAML(records []*datatable.Record) (string, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, rec := range records {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
			var val yaml.Node
			if err := val.Encode(pair.Value); err != nil {
				return "", fmt.Errorf("encode %q: %w", pair.Key, err)
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key}, &val)
		}
		seq.Content = append(seq.Content, m)
	}
	applyLiteralStyle(seq)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}
