package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.About.Name != "kvgrid" {
		t.Fatalf("expected name kvgrid, got %q", cfg.About.Name)
	}
	if size, err := cfg.PageSize(); err != nil || size != 10 {
		t.Fatalf("expected page size 10, got %d (%v)", size, err)
	}
	if cfg.Table.ExportFileName != datatable.DefaultExportFileName {
		t.Fatalf("unexpected export name %q", cfg.Table.ExportFileName)
	}
	if cfg.Table.NoRecordsMessage != datatable.DefaultNoRecordsMessage {
		t.Fatalf("unexpected empty message %q", cfg.Table.NoRecordsMessage)
	}
	if len(cfg.Columns) != 0 {
		t.Fatalf("expected no default columns, got %d", len(cfg.Columns))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `table:
  page_size: all
  export_file_name: viajes
theme:
  header_fg: "#00ff00"
columns:
  - key: client.name
    header: Cliente
  - key: status
    header: Estado
    type: status
    statusOptions: [entregado, retraso]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if size, _ := cfg.PageSize(); size != datatable.ShowAll {
		t.Fatalf("expected show all, got %d", size)
	}
	if cfg.Table.ExportFileName != "viajes" {
		t.Fatalf("export name not merged: %q", cfg.Table.ExportFileName)
	}
	if cfg.Table.NoRecordsMessage != datatable.DefaultNoRecordsMessage {
		t.Fatalf("unset fields should keep defaults, got %q", cfg.Table.NoRecordsMessage)
	}
	if cfg.Theme.HeaderFG != "#00ff00" || cfg.Theme.HeaderBG != "236" {
		t.Fatalf("theme not merged: %+v", cfg.Theme)
	}
	if len(cfg.Columns) != 2 || cfg.Columns[1].Type != datatable.TypeStatus {
		t.Fatalf("columns not loaded: %+v", cfg.Columns)
	}
	if cfg.About.Name != "kvgrid" {
		t.Fatalf("about lost: %+v", cfg.About)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"page size":   "table:\n  page_size: 0\n",
		"column type": "columns:\n  - key: a\n    type: money\n",
		"no key":      "columns:\n  - header: A\n",
		"duplicate":   "columns:\n  - key: a\n  - key: a\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", body))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := Load(writeFile(t, "config.yaml", "table: [")); err == nil {
		t.Fatal("expected a decode error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected a read error")
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Table.PageSize != "10" {
		t.Fatalf("expected default page size, got %q", cfg.Table.PageSize)
	}
}

func TestLoadColumns(t *testing.T) {
	list := writeFile(t, "cols.yaml", "- key: id\n  header: ID\n- key: amount\n  type: number\n")
	specs, err := LoadColumns(list)
	if err != nil {
		t.Fatalf("LoadColumns(list): %v", err)
	}
	if len(specs) != 2 || specs[1].Type != datatable.TypeNumber {
		t.Fatalf("unexpected specs %+v", specs)
	}

	wrapped := writeFile(t, "cols.yaml", "columns:\n  - key: id\n")
	specs, err = LoadColumns(wrapped)
	if err != nil || len(specs) != 1 {
		t.Fatalf("LoadColumns(wrapped) = %+v, %v", specs, err)
	}

	empty := writeFile(t, "cols.yaml", "columns: []\n")
	if _, err := LoadColumns(empty); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for an empty list, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("kvgrid", "/explicit.yaml"); got != "/explicit.yaml" {
		t.Fatalf("explicit path should win, got %q", got)
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	if got := ResolvePath("kvgrid", ""); got != "" {
		t.Fatalf("expected no path when the file is missing, got %q", got)
	}
	dir := filepath.Join(xdg, "kvgrid")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(want, []byte("table: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := ResolvePath("kvgrid", ""); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestThemeTableColors(t *testing.T) {
	tc := Theme{HeaderFG: "1"}.TableColors()
	if tc.HeaderFG == nil {
		t.Fatal("expected a header color")
	}
	if tc.HeaderBG != nil || tc.MutedColor != nil {
		t.Fatal("empty entries should stay nil")
	}
}
