package cmd

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/kvgrid/internal/formatter"
	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

// Output formats accepted by -o.
const (
	outputTable = "table"
	outputTSV   = "tsv"
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTree  = "tree"
)

func validOutput(format string) error {
	switch format {
	case outputTable, outputTSV, outputJSON, outputYAML, outputTree:
		return nil
	}
	return fmt.Errorf("%w: -o %q (expected table|tsv|json|yaml|tree)", errFlagFormat, format)
}

// renderPage renders the visible page of tbl in format.
func renderPage(tbl *datatable.Table[any], format string, opts formatter.TableOptions) (string, error) {
	switch format {
	case outputTable:
		return formatter.RenderTable(tbl.View(), opts), nil
	case outputTSV:
		return datatable.TSV(tbl.Columns(), tbl.Page(), tbl.Value) + "\n", nil
	case outputJSON:
		return formatter.FormatJSON(datatable.Records(tbl.Columns(), tbl.Page(), tbl.Value))
	case outputYAML:
		records := datatable.Records(tbl.Columns(), tbl.Page(), tbl.Value)
		if len(records) == 0 {
			return "[]\n", nil
		}
		return formatter.FormatYAML(records)
	case outputTree:
		v := tbl.View()
		title := formatter.Footer(v.CurrentPage, v.TotalPages, v.TotalRows, v.BadgeCount)
		return formatter.FormatTree(title, datatable.Records(tbl.Columns(), tbl.Page(), tbl.Value)), nil
	}
	return "", validOutput(format)
}

// notifyLine formats an export notification for stderr.
func notifyLine(n datatable.Notification) string {
	var b strings.Builder
	if n.Level == datatable.NotifyError {
		b.WriteString("✗ ")
	} else {
		b.WriteString("✓ ")
	}
	b.WriteString(n.Message)
	if n.Err != nil {
		b.WriteString(": ")
		b.WriteString(n.Err.Error())
	}
	return b.String()
}
