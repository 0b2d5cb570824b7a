package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/formatter"
	"github.com/oakwood-commons/kvgrid/pkg/datatable"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	searchPrompt = "Buscar: "
)

// Model is the interactive table browser. It owns the table for the life
// of the program; every table call happens inside Update.
type Model struct {
	ctx   context.Context
	table *datatable.Table[any]
	input textinput.Model
	log   logr.Logger

	Title       string
	NoColor     bool
	WorkbookDir string
	Width       int
	Height      int

	searching bool
	choosing  bool
	statusCol int
	help      bool
	status    string
	statusErr bool
}

// NewModel creates a browser over tbl.
func NewModel(ctx context.Context, tbl *datatable.Table[any], cfg Config) *Model {
	ti := textinput.New()
	ti.Prompt = searchPrompt
	ti.Placeholder = "texto en cualquier columna"
	ti.SetWidth(40)
	ti.SetValue(tbl.Search())

	dir := cfg.WorkbookDir
	if dir == "" {
		dir = "."
	}
	return &Model{
		ctx:         ctx,
		table:       tbl,
		input:       ti,
		log:         cfg.Logger,
		Title:       strings.TrimSpace(cfg.Title),
		NoColor:     cfg.NoColor,
		WorkbookDir: dir,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
}

// Table returns the browsed table.
func (m *Model) Table() *datatable.Table[any] { return m.table }

// Status returns the last export or error message shown under the table.
func (m *Model) Status() (string, bool) { return m.status, m.statusErr }

// Searching reports whether the search input has focus.
func (m *Model) Searching() bool { return m.searching }

// ChoosingStatus reports whether the status chips have focus.
func (m *Model) ChoosingStatus() bool { return m.choosing }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil
	case tea.KeyPressMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.choosing {
			return m.updateStatus(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.input.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.table.SetSearch("")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.table.Search() {
		m.table.SetSearch(m.input.Value())
	}
	return m, cmd
}

// statusColumns returns the status columns that declare options.
func (m *Model) statusColumns() []datatable.Column[any] {
	var out []datatable.Column[any]
	for _, c := range m.table.Columns() {
		if c.EffectiveType() == datatable.TypeStatus && len(c.StatusOptions) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) updateStatus(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	cols := m.statusColumns()
	if len(cols) == 0 {
		m.choosing = false
		return m, nil
	}
	col := cols[m.statusCol%len(cols)]
	key := msg.String()
	if i, ok := sortColumn(key); ok {
		if i < len(col.StatusOptions) {
			if err := m.table.ToggleStatus(col.Key, col.StatusOptions[i]); err != nil {
				m.setStatus(err.Error(), err)
			}
		}
		return m, nil
	}
	switch key {
	case "s", "tab":
		m.statusCol = (m.statusCol + 1) % len(cols)
	case "enter", "esc":
		m.choosing = false
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// statusLine lists the focused column's options as numbered chips.
func (m *Model) statusLine() string {
	cols := m.statusColumns()
	if len(cols) == 0 {
		return ""
	}
	col := cols[m.statusCol%len(cols)]
	f, _ := m.table.Filter(col.Key)
	chips := make([]string, len(col.StatusOptions))
	for i, opt := range col.StatusOptions {
		mark := "[ ]"
		if slices.Contains(f.Statuses, opt) {
			mark = "[x]"
		}
		chips[i] = fmt.Sprintf("%d %s %s", i+1, mark, opt)
	}
	return col.Header + ": " + strings.Join(chips, " · ")
}

func (m *Model) updateTable(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if i, ok := sortColumn(key); ok {
		m.toggleSort(i)
		return m, nil
	}
	m.help = false

	switch ActionFor(key) {
	case ActionNextPage:
		m.table.NextPage()
	case ActionPrevPage:
		m.table.PrevPage()
	case ActionFirstPage:
		m.table.FirstPage()
	case ActionLastPage:
		m.table.LastPage()
	case ActionPageSize:
		m.cyclePageSize()
	case ActionSearch:
		m.searching = true
		return m, m.input.Focus()
	case ActionStatus:
		if len(m.statusColumns()) == 0 {
			m.setStatus("No hay columnas de estado", nil)
			break
		}
		m.choosing = true
	case ActionClear:
		m.table.ClearFilters()
		m.table.SetSearch("")
		m.input.SetValue("")
		m.setStatus("Filtros limpiados", nil)
	case ActionCopy:
		err := m.table.CopyToClipboard(m.ctx)
		m.setStatus(exportMessage(datatable.MsgCopied, datatable.MsgCopyFailed, err), err)
	case ActionWorkbook:
		path, err := m.table.SaveWorkbook(m.ctx, m.WorkbookDir)
		msg := exportMessage(datatable.MsgWorkbookSaved, datatable.MsgWorkbookError, err)
		if err == nil {
			msg += ": " + path
		}
		m.setStatus(msg, err)
	case ActionHelp:
		m.help = true
	case ActionQuit:
		return m, tea.Quit
	case ActionNone:
	}
	return m, nil
}

func (m *Model) toggleSort(i int) {
	cols := m.table.Columns()
	if i >= len(cols) {
		return
	}
	if err := m.table.ToggleSort(cols[i].Key); err != nil {
		if errors.Is(err, datatable.ErrNotSortable) {
			m.setStatus(fmt.Sprintf("La columna %s no se puede ordenar", cols[i].Header), err)
			return
		}
		m.setStatus(err.Error(), err)
	}
}

// cyclePageSize moves to the next entry of datatable.PageSizeOptions.
func (m *Model) cyclePageSize() {
	opts := datatable.PageSizeOptions
	next := opts[0]
	if i := slices.Index(opts, m.table.PageSize()); i >= 0 {
		next = opts[(i+1)%len(opts)]
	}
	if err := m.table.SetPageSize(next); err != nil {
		m.setStatus(err.Error(), err)
		return
	}
	m.setStatus("Tamaño de página: "+datatable.FormatPageSize(next), nil)
}

func (m *Model) setStatus(msg string, err error) {
	m.status = msg
	m.statusErr = err != nil
	if err != nil {
		m.log.V(1).Info("browse action failed", "status", msg, "error", err.Error())
	}
}

func exportMessage(ok, failed string, err error) string {
	if err != nil {
		return failed
	}
	return ok
}

func (m *Model) render(s lipgloss.Style, text string) string {
	if m.NoColor {
		return text
	}
	return s.Render(text)
}

// Render returns the screen contents without the tea.View wrapper.
func (m *Model) Render() string {
	var b strings.Builder
	if m.Title != "" {
		b.WriteString(m.render(titleStyle, m.Title))
		b.WriteString("\n\n")
	}
	b.WriteString(formatter.RenderTable(m.table.View(), formatter.TableOptions{
		Width:      m.Width,
		NoColor:    m.NoColor,
		RowNumbers: true,
	}))

	switch {
	case m.searching:
		b.WriteString(m.input.View())
		b.WriteByte('\n')
	case m.table.Search() != "":
		b.WriteString(searchPrompt + m.table.Search())
		b.WriteByte('\n')
	}
	if m.status != "" {
		style := okStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(m.render(style, m.status))
		b.WriteByte('\n')
	}
	if m.choosing {
		b.WriteString(m.statusLine())
		b.WriteByte('\n')
	}
	switch {
	case m.choosing:
		b.WriteString(m.render(helpStyle, statusHelp))
	case m.help:
		b.WriteString(m.render(helpStyle, helpText))
	default:
		b.WriteString(m.render(helpStyle, "? ayuda · q salir"))
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}
