package formatter

import (
	"testing"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

func sampleRecords(t *testing.T) []*datatable.Record {
	t.Helper()
	cols := []datatable.Column[map[string]any]{
		{Key: "folio", Header: "Folio"},
		{Key: "nota", Header: "Nota"},
		{Key: "monto", Header: "Monto"},
	}
	rows := []map[string]any{
		{"folio": "B", "nota": "línea 1\nlínea 2", "monto": 10},
		{"folio": "A"},
	}
	return datatable.Records(cols, rows, nil)
}

func TestFormatJSONKeepsColumnOrder(t *testing.T) {
	got, err := FormatJSON(sampleRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "Folio": "B",
    "Nota": "línea 1\nlínea 2",
    "Monto": 10
  },
  {
    "Folio": "A",
    "Nota": null,
    "Monto": null
  }
]
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	empty, err := FormatJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if empty != "[]\n" {
		t.Fatalf("expected empty array, got %q", empty)
	}
}

func TestFormatYAMLKeepsColumnOrder(t *testing.T) {
	got, err := FormatYAML(sampleRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	want := `- Folio: B
  Nota: |-
    línea 1
    línea 2
  Monto: 10
- Folio: A
  Nota: null
  Monto: null
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
