// Package tui runs an interactive, paged browser over a datatable.Table.
package tui

import (
	"context"
	"io"
	"os"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"golang.org/x/term"

	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// Config configures the browser.
type Config struct {
	// Title is printed above the table when set.
	Title string
	// NoColor disables ANSI styling.
	NoColor bool
	// WorkbookDir receives XLSX exports; "." when empty.
	WorkbookDir string
	// Width and Height fix the screen size; 0 detects the terminal.
	Width  int
	Height int
	// Logger receives failed actions at V(1).
	Logger logr.Logger
}

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely, returns (120, 24).
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// Run browses tbl until the user quits. Host applications can pass optional
// tea.ProgramOption values to control IO.
func Run(ctx context.Context, tbl *datatable.Table[any], cfg Config, opts ...tea.ProgramOption) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		w, h := DetectTerminalSize()
		if cfg.Width <= 0 {
			cfg.Width = w
		}
		if cfg.Height <= 0 {
			cfg.Height = h
		}
	}
	m := NewModel(ctx, tbl, cfg)
	opts = append(opts, tea.WithContext(ctx), tea.WithWindowSize(cfg.Width, cfg.Height))
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

// RenderSnapshot renders the browser screen once, without starting a program.
func RenderSnapshot(tbl *datatable.Table[any], cfg Config) string {
	if cfg.Width <= 0 {
		cfg.Width, _ = DetectTerminalSize()
	}
	return NewModel(context.Background(), tbl, cfg).Render()
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}
