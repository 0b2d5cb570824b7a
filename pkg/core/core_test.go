package core

import (
	"errors"
	"testing"
	"time"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

const tripsJSON = `{"viajes": [
  {"id": "V-1", "estado": "entregado", "monto": 1200.5, "fecha": "2024-03-01", "cliente": {"nombre": "ACME"}},
  {"id": "V-2", "estado": "retraso", "monto": 80, "fecha": "2024-03-05", "cliente": {"nombre": "Norte"}},
  {"id": "V-3", "estado": "en_ruta", "monto": 310, "fecha": "2024-03-09"}
]}`

type fakeSelector struct {
	expr    string
	kept    []any
	skipped int
	err     error
}

func (f *fakeSelector) Select(expr string, rows []any) ([]any, int, error) {
	f.expr = expr
	if f.kept == nil && f.err == nil {
		return rows, f.skipped, nil
	}
	return f.kept, f.skipped, f.err
}

func TestEngineRowsUnwrapsSingleList(t *testing.T) {
	root, err := LoadRoot(tripsJSON)
	if err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows, err := engine.Rows(root, "", "")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestEngineRowsWhereUsesCEL(t *testing.T) {
	root, err := LoadRoot(tripsJSON)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	rows, err := engine.Rows(root, "viajes", `_.monto > 100.0`)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows above 100, got %d", len(rows))
	}

	rows, err = engine.Rows(root, "viajes", `_.cliente.nombre == "ACME"`)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected V-3 skipped for lacking a client, got %d rows", len(rows))
	}

	if _, err := engine.Rows(root, "viajes", `_.monto +`); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestEngineUsesInjectedSelector(t *testing.T) {
	sel := &fakeSelector{kept: []any{"only"}}
	engine, err := New(WithSelector(sel))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	rows, err := engine.Rows([]any{"a", "b"}, "", "anything")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if sel.expr != "anything" || len(rows) != 1 || rows[0] != "only" {
		t.Fatalf("selector not used: expr=%q rows=%v", sel.expr, rows)
	}

	sel = &fakeSelector{err: errors.New("boom")}
	engine, _ = New(WithSelector(sel))
	if _, err := engine.Rows([]any{"a"}, "", "x"); err == nil {
		t.Fatal("expected selector error")
	}
}

func TestEngineRowsBadPath(t *testing.T) {
	engine, err := New(WithSelector(&fakeSelector{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Rows(map[string]any{"a": 1}, "b", ""); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestInferColumns(t *testing.T) {
	rows := []any{
		map[string]any{"id": "V-1", "monto": 10, "fecha": "2024-01-02", "a.b": "x"},
		map[string]any{"id": "V-2", "monto": 2.5, "fecha": time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	specs, out := InferColumns(rows)
	if len(out) != 2 {
		t.Fatalf("rows should be returned unchanged")
	}
	want := []datatable.ColumnSpec{
		{Key: `["a.b"]`, Header: "a.b", Type: datatable.TypeText},
		{Key: "fecha", Header: "fecha", Type: datatable.TypeDate},
		{Key: "id", Header: "id", Type: datatable.TypeText},
		{Key: "monto", Header: "monto", Type: datatable.TypeNumber},
	}
	if len(specs) != len(want) {
		t.Fatalf("expected %d specs, got %+v", len(want), specs)
	}
	for i := range want {
		if specs[i].Key != want[i].Key || specs[i].Header != want[i].Header || specs[i].Type != want[i].Type {
			t.Errorf("spec %d = %+v, want %+v", i, specs[i], want[i])
		}
	}
}

func TestInferColumnsWrapsScalars(t *testing.T) {
	specs, rows := InferColumns([]any{3, 1, 2})
	if len(specs) != 1 || specs[0].Key != ValueKey || specs[0].Type != datatable.TypeNumber {
		t.Fatalf("unexpected specs %+v", specs)
	}
	m, ok := rows[0].(map[string]any)
	if !ok || m[ValueKey] != 3 {
		t.Fatalf("expected wrapped row, got %#v", rows[0])
	}
}

func TestEngineTableFromInferredColumns(t *testing.T) {
	root, err := LoadRoot(tripsJSON)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	rows, err := engine.Rows(root, "", "")
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := engine.Table(rows, TableConfig{PageSize: 2, ExportFileName: "viajes"})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if tbl.PageSize() != 2 || tbl.TotalPages() != 2 {
		t.Fatalf("page size %d, pages %d", tbl.PageSize(), tbl.TotalPages())
	}
	if tbl.ExportFileName() != "viajes" {
		t.Fatalf("export name %q", tbl.ExportFileName())
	}
	col, ok := tbl.Column("monto")
	if !ok || col.EffectiveType() != datatable.TypeNumber {
		t.Fatalf("monto should be a number column, got %+v", col)
	}
	if err := tbl.ToggleSort("monto"); err != nil {
		t.Fatal(err)
	}
	first := tbl.Page()[0].(map[string]any)
	if first["id"] != "V-2" {
		t.Fatalf("expected the smallest amount first, got %v", first["id"])
	}
}

func TestEngineTablePromotesStatusColumns(t *testing.T) {
	root, err := LoadRoot(tripsJSON)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := New()
	if err != nil {
		t.Fatal(err)
	}
	rows, err := engine.Rows(root, "", "")
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := engine.Table(rows, TableConfig{Statuses: map[string][]string{
		"estado": {"cancelado"},
		"monto":  {"80"},
		"nadie":  {"x"},
	}})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}

	col, _ := tbl.Column("estado")
	if col.EffectiveType() != datatable.TypeStatus {
		t.Fatalf("estado should be a status column, got %s", col.EffectiveType())
	}
	want := []string{"cancelado", "en_ruta", "entregado", "retraso"}
	if len(col.StatusOptions) != len(want) {
		t.Fatalf("options = %v, want %v", col.StatusOptions, want)
	}
	for i := range want {
		if col.StatusOptions[i] != want[i] {
			t.Fatalf("options = %v, want %v", col.StatusOptions, want)
		}
	}
	if col, _ := tbl.Column("monto"); col.EffectiveType() != datatable.TypeNumber {
		t.Fatalf("number columns are not promoted, got %s", col.EffectiveType())
	}

	if err := tbl.SetStatusFilter("estado", []string{"retraso"}); err != nil {
		t.Fatalf("SetStatusFilter: %v", err)
	}
	if tbl.TotalRows() != 1 {
		t.Fatalf("expected one delayed trip, got %d", tbl.TotalRows())
	}
	if err := tbl.SetStatusFilter("estado", []string{"cancelado"}); err != nil {
		t.Fatalf("requested statuses are valid options: %v", err)
	}
	if tbl.TotalRows() != 0 {
		t.Fatalf("expected no cancelled trips, got %d", tbl.TotalRows())
	}
}

func TestEngineTableWithConfiguredColumns(t *testing.T) {
	engine, err := New(WithSelector(&fakeSelector{}))
	if err != nil {
		t.Fatal(err)
	}
	rows := []any{map[string]any{"cliente": map[string]any{"nombre": "ACME"}}}
	tbl, err := engine.Table(rows, TableConfig{
		Columns:          []datatable.ColumnSpec{{Key: "cliente.nombre", Header: "Cliente"}},
		NoRecordsMessage: "Sin viajes",
	})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	v := tbl.View()
	if v.Headers[0].Header != "Cliente" || v.Rows[0].Cells[0].Text != "ACME" {
		t.Fatalf("unexpected view %+v", v)
	}
	tbl.SetSearch("nadie")
	if msg := tbl.View().EmptyMessage; msg != "Sin viajes" {
		t.Fatalf("empty message %q", msg)
	}

	if _, err := engine.Table(rows, TableConfig{PageSize: -5}); !errors.Is(err, datatable.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
}

func TestEngineTableEmptyRows(t *testing.T) {
	engine, err := New(WithSelector(&fakeSelector{}))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := engine.Table(nil, TableConfig{})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if !tbl.View().Empty {
		t.Fatal("expected an empty view")
	}
}
