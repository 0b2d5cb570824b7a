package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oakwood-commons/kvgrid/internal/limiter"
	"github.com/oakwood-commons/kvgrid/pkg/datatable"
	"github.com/oakwood-commons/kvgrid/pkg/tui"
)

type memClipboard struct {
	text string
}

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

func tripsJSON(n int) string {
	rows := make([]map[string]any, n)
	for i := range rows {
		estado := "entregado"
		if i%3 == 2 {
			estado = "retraso"
		}
		rows[i] = map[string]any{
			"id":      fmt.Sprintf("V-%02d", i+1),
			"estado":  estado,
			"fecha":   fmt.Sprintf("2024-03-%02d", i+1),
			"monto":   float64(100 + (i*53)%400),
			"cliente": map[string]any{"nombre": fmt.Sprintf("Cliente %d", i%4)},
		}
	}
	b, _ := json.Marshal(map[string]any{"viajes": rows})
	return string(b)
}

const tripColumnsYAML = `columns:
  - key: id
    header: ID
  - key: cliente.nombre
    header: Cliente
  - key: estado
    header: Estado
    type: status
    statusOptions: [entregado, retraso, en_ruta]
  - key: fecha
    header: Fecha
    type: date
  - key: monto
    header: Monto
    type: number
`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes a fresh root command with stdin piped from input.
func runCLI(t *testing.T, input string, args ...string) cliResult {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	origPiped := stdinIsPiped
	stdinIsPiped = func() bool { return input != "" }
	t.Cleanup(func() { stdinIsPiped = origPiped })

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestTableOutputPaginates(t *testing.T) {
	res := runCLI(t, tripsJSON(25), "--page", "2", "--no-color", "--width", "120")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Página 2 de 3 · 25 registros")
	assert.Contains(t, res.stdout, "V-11")
	assert.Contains(t, res.stdout, "V-20")
	assert.NotContains(t, res.stdout, "V-10")
	assert.NotContains(t, res.stdout, "V-21")
}

func TestFileArgument(t *testing.T) {
	path := writeTemp(t, "viajes.json", tripsJSON(3))
	res := runCLI(t, "", path, "-o", "tsv", "--columns", writeTemp(t, "cols.yaml", tripColumnsYAML))
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID\tCliente\tEstado\tFecha\tMonto", lines[0])
	assert.Equal(t, "V-01\tCliente 0\tentregado\t2024-03-01\t100", lines[1])
}

func TestStatusFilterJSON(t *testing.T) {
	cols := writeTemp(t, "cols.yaml", tripColumnsYAML)
	res := runCLI(t, tripsJSON(30), "--columns", cols, "--status", "estado=retraso", "--page-size", "all", "-o", "json")
	require.NoError(t, res.err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	require.Len(t, records, 10)
	for _, r := range records {
		assert.Equal(t, "retraso", r["Estado"])
	}
}

func TestStatusFilterOnInferredColumns(t *testing.T) {
	res := runCLI(t, tripsJSON(9), "--status", "estado=retraso", "-o", "json")
	require.NoError(t, res.err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, "retraso", r["estado"])
	}

	res = runCLI(t, tripsJSON(9), "--status", "estado=cancelado", "-o", "json")
	require.NoError(t, res.err, "a status no row has yet still filters")
	assert.Equal(t, "[]\n", res.stdout)

	cols := writeTemp(t, "cols.yaml", tripColumnsYAML)
	res = runCLI(t, tripsJSON(3), "--columns", cols, "--status", "id=V-01")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, datatable.ErrFilterType, "configured text columns stay text")
}

func TestDateFilterCoversWholeDays(t *testing.T) {
	input := `[
  {"id": "V-1", "fecha": "2024-03-05T15:00:00Z"},
  {"id": "V-2", "fecha": "2024-03-05T00:00:00Z"},
  {"id": "V-3", "fecha": "2024-03-06T00:00:00Z"},
  {"id": "V-4", "fecha": "2024-03-01T09:30:00Z"}
]`
	ids := func(out string) []any {
		var records []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &records))
		got := make([]any, 0, len(records))
		for _, r := range records {
			got = append(got, r["id"])
		}
		return got
	}

	res := runCLI(t, input, "--date", "fecha=2024-03-05", "-o", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []any{"V-1", "V-2"}, ids(res.stdout))

	res = runCLI(t, input, "--date", "fecha=2024-03-01..2024-03-05", "-o", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []any{"V-1", "V-2", "V-4"}, ids(res.stdout))

	res = runCLI(t, input, "--date", "fecha=..2024-03-05", "-o", "json")
	require.NoError(t, res.err)
	assert.Equal(t, []any{"V-1", "V-2", "V-4"}, ids(res.stdout))
}

func TestDateFilterIsInclusive(t *testing.T) {
	cols := writeTemp(t, "cols.yaml", tripColumnsYAML)
	res := runCLI(t, tripsJSON(10), "--columns", cols, "--date", "fecha=2024-03-02..2024-03-05", "-o", "tsv")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "V-02\t"))
	assert.True(t, strings.HasPrefix(lines[4], "V-05\t"))
}

func TestSortAndSearch(t *testing.T) {
	res := runCLI(t, tripsJSON(12), "--sort", "monto:desc", "-s", "cliente 1", "-o", "json")
	require.NoError(t, res.err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	ids := make([]any, 0, len(records))
	for _, r := range records {
		ids = append(ids, r["id"])
	}
	assert.Equal(t, []any{"V-06", "V-10", "V-02"}, ids)
	assert.Equal(t, map[string]any{"nombre": "Cliente 1"}, records[0]["cliente"])
}

func TestWhereAndPath(t *testing.T) {
	res := runCLI(t, tripsJSON(10), "--path", "viajes", "--where", `_.estado == "retraso"`, "-o", "tsv")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	assert.Len(t, lines, 4)

	res = runCLI(t, tripsJSON(3), "--where", "_.monto +")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "where")
}

func TestRowWindow(t *testing.T) {
	cols := writeTemp(t, "cols.yaml", tripColumnsYAML)
	res := runCLI(t, tripsJSON(10), "--columns", cols, "--tail", "3", "-o", "tsv")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "V-08\t"))

	res = runCLI(t, tripsJSON(10), "--columns", cols, "--offset", "2", "--limit", "2", "--sort", "id:desc", "-o", "tsv")
	require.NoError(t, res.err)
	lines = strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "V-04\t"))
	assert.True(t, strings.HasPrefix(lines[2], "V-03\t"))
}

func TestNoMatchShowsEmptyMessage(t *testing.T) {
	res := runCLI(t, tripsJSON(5), "-s", "no existe", "--no-color")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, datatable.DefaultNoRecordsMessage)
	assert.Contains(t, res.stdout, "Página 1 de 1 · 0 registros · 1 filtro")
}

func TestCopyExportsEveryFilteredRow(t *testing.T) {
	cb := &memClipboard{}
	orig := newClipboard
	newClipboard = func() datatable.Clipboard { return cb }
	t.Cleanup(func() { newClipboard = orig })

	res := runCLI(t, tripsJSON(30), "--copy", "--status", "estado=retraso", "--columns", writeTemp(t, "cols.yaml", tripColumnsYAML))
	require.NoError(t, res.err)
	lines := strings.Split(cb.text, "\n")
	assert.Len(t, lines, 11, "header plus every retraso row, not only the visible page")
	assert.Contains(t, res.stderr, "✓ "+datatable.MsgCopied)

	res = runCLI(t, tripsJSON(3), "--copy", "--quiet")
	require.NoError(t, res.err)
	assert.Empty(t, res.stderr)
}

func TestXLSXExport(t *testing.T) {
	dir := t.TempDir()
	res := runCLI(t, tripsJSON(4), "--xlsx", dir, "--export-name", "viajes", "--columns", writeTemp(t, "cols.yaml", tripColumnsYAML))
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, datatable.MsgWorkbookSaved)

	f, err := excelize.OpenFile(filepath.Join(dir, "viajes.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{datatable.SheetName}, f.GetSheetList())
	rows, err := f.GetRows(datatable.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"ID", "Cliente", "Estado", "Fecha", "Monto"}, rows[0])
}

func TestXLSXExportFailureIsReported(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir")
	res := runCLI(t, tripsJSON(2), "--xlsx", missing)
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "✗ "+datatable.MsgWorkbookError)
}

func TestFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown column", []string{"--filter", "nope=x"}, datatable.ErrUnknownColumn},
		{"bad date", []string{"--date", "fecha=ayer"}, errFlagFormat},
		{"bad sort", []string{"--sort", "monto:sideways"}, errFlagFormat},
		{"bad output", []string{"-o", "csv"}, errFlagFormat},
		{"malformed filter", []string{"--filter", "justakey"}, errFlagFormat},
		{"limit with tail", []string{"--limit", "2", "--tail", "2"}, limiter.ErrInvalidWindow},
		{"negative offset", []string{"--offset", "-1"}, limiter.ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tripsJSON(3), tt.args...)
			require.Error(t, res.err)
			assert.True(t, errors.Is(res.err, tt.is), "got %v", res.err)
		})
	}
}

func TestInvalidPageSizeFlag(t *testing.T) {
	res := runCLI(t, tripsJSON(3), "--page-size", "0")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid page size")
}

func TestConfigFileDefaults(t *testing.T) {
	cfgPath := writeTemp(t, "config.yaml", "table:\n  page_size: 20\n  row_numbers: true\n"+tripColumnsYAML)
	res := runCLI(t, tripsJSON(25), "--config", cfgPath, "--no-color", "--width", "120")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Página 1 de 2 · 25 registros")
	assert.True(t, strings.HasPrefix(res.stdout, "#"), res.stdout)
	assert.Contains(t, res.stdout, "Cliente")

	res = runCLI(t, tripsJSON(25), "--config", cfgPath, "--page-size", "all", "--no-color")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Página 1 de 1 · 25 registros")
}

func TestInteractiveUsesBrowser(t *testing.T) {
	var got *datatable.Table[any]
	var gotCfg tui.Config
	orig := runBrowser
	runBrowser = func(_ context.Context, tbl *datatable.Table[any], cfg tui.Config, _ ...tea.ProgramOption) error {
		got, gotCfg = tbl, cfg
		return nil
	}
	t.Cleanup(func() { runBrowser = orig })

	origTTY := openTerminalInput
	openTerminalInput = func() (*os.File, error) { return os.Open(os.DevNull) }
	t.Cleanup(func() { openTerminalInput = origTTY })

	res := runCLI(t, tripsJSON(15), "-i", "--sort", "id:desc", "--xlsx", "out")
	require.NoError(t, res.err)
	require.NotNil(t, got)
	assert.Equal(t, 15, got.TotalRows())
	assert.Equal(t, "out", gotCfg.WorkbookDir)
	assert.Equal(t, "kvgrid", gotCfg.Title)
	assert.Empty(t, res.stdout)
	_, err := os.Stat("out")
	assert.True(t, os.IsNotExist(err), "interactive mode exports only on request")
}

func TestNoInputShowsHelp(t *testing.T) {
	res := runCLI(t, "")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Usage:")
	assert.Contains(t, res.stdout, "--page-size")
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, "", "version")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "kvgrid "), res.stdout)
}

func TestConfigCommand(t *testing.T) {
	res := runCLI(t, "", "config")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "page_size: \"10\"")

	res = runCLI(t, "", "config", "-o", "json")
	require.NoError(t, res.err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &decoded))
	assert.Contains(t, decoded, "table")

	res = runCLI(t, "", "config", "-o", "toml")
	require.ErrorIs(t, res.err, errFlagFormat)
}
