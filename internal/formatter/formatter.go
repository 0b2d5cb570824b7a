// Package formatter renders table views and export records for the terminal.
package formatter

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var (
	defaultHeaderFG  = lipgloss.Color("12")
	defaultHeaderBG  = lipgloss.Color("236")
	defaultRowNumber = lipgloss.Color("14")
	defaultMuted     = lipgloss.Color("248")
	defaultSeparator = lipgloss.Color("240")

	headerStyle    lipgloss.Style
	rowNumberStyle lipgloss.Style
	mutedStyle     lipgloss.Style
	separatorStyle lipgloss.Style
)

// TableColors controls the colors of rendered tables. Nil fields use the defaults.
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	RowNumberColor color.Color
	MutedColor     color.Color
	SeparatorColor color.Color
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// SetTableTheme overrides the package table styles.
func SetTableTheme(tc TableColors) {
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(orDefault(tc.HeaderFG, defaultHeaderFG)).
		Background(orDefault(tc.HeaderBG, defaultHeaderBG))
	rowNumberStyle = lipgloss.NewStyle().Foreground(orDefault(tc.RowNumberColor, defaultRowNumber))
	mutedStyle = lipgloss.NewStyle().Foreground(orDefault(tc.MutedColor, defaultMuted))
	separatorStyle = lipgloss.NewStyle().Foreground(orDefault(tc.SeparatorColor, defaultSeparator))
}

//nolint:gochecknoinits // default theme for package consumers
func init() {
	SetTableTheme(TableColors{})
}

// DefaultWidth is used when stdout is not a terminal.
const DefaultWidth = 120

// TerminalWidth returns the width of stdout, or fallback when it is not a terminal.
func TerminalWidth(fallback int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

var cellReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// cellText flattens s onto one line.
func cellText(s string) string {
	return cellReplacer.Replace(s)
}

// truncate shortens s to width display columns, ending in "..." when cut.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width < 4 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

func padRight(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

func style(s lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return s.Render(text)
}

// Footer is the pagination line shown under a table, e.g.
// "Página 2 de 3 · 25 registros · 1 filtro".
func Footer(page, pages, rows, filters int) string {
	parts := []string{
		fmt.Sprintf("Página %d de %d", page, pages),
		plural(rows, "registro", "registros"),
	}
	if filters > 0 {
		parts = append(parts, plural(filters, "filtro", "filtros"))
	}
	return strings.Join(parts, " · ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
