package formatter

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

// FormatTree renders records as a tree under title: one branch per record,
// labelled with its first field, and one leaf per field. Nested maps and
// lists become sub-branches.
func FormatTree(title string, records []*datatable.Record) string {
	tree := treeprint.NewWithRoot(title)
	for _, rec := range records {
		first := rec.Oldest()
		if first == nil {
			continue
		}
		branch := tree.AddBranch(scalarText(first.Value))
		for pair := first; pair != nil; pair = pair.Next() {
			addTreeValue(branch, pair.Key, pair.Value)
		}
	}
	return tree.String()
}

func addTreeValue(branch treeprint.Tree, key string, v any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			branch.AddNode(key + ": {}")
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		child := branch.AddBranch(key)
		for _, k := range keys {
			addTreeValue(child, k, t[k])
		}
	case []any:
		if len(t) == 0 {
			branch.AddNode(key + ": []")
			return
		}
		child := branch.AddBranch(key)
		for i, e := range t {
			addTreeValue(child, fmt.Sprintf("[%d]", i), e)
		}
	default:
		branch.AddNode(key + ": " + scalarText(v))
	}
}

func scalarText(v any) string {
	s, ok := datatable.Stringify(v)
	if !ok {
		return "null"
	}
	return cellText(s)
}
