package tui

// Action is what a key does while the table has focus.
type Action string

const (
	ActionNone      Action = ""
	ActionNextPage  Action = "next_page"
	ActionPrevPage  Action = "prev_page"
	ActionFirstPage Action = "first_page"
	ActionLastPage  Action = "last_page"
	ActionPageSize  Action = "page_size"
	ActionSearch    Action = "search"
	ActionStatus    Action = "status"
	ActionClear     Action = "clear"
	ActionCopy      Action = "copy"
	ActionWorkbook  Action = "workbook"
	ActionHelp      Action = "help"
	ActionQuit      Action = "quit"
)

// KeyBindings maps key strings, as reported by tea.KeyPressMsg.String, to
// actions. Digits 1-9 toggle the sort of the matching column and are not
// listed here.
var KeyBindings = map[string]Action{
	"n":      ActionNextPage,
	"right":  ActionNextPage,
	"pgdown": ActionNextPage,
	"p":      ActionPrevPage,
	"left":   ActionPrevPage,
	"pgup":   ActionPrevPage,
	"g":      ActionFirstPage,
	"home":   ActionFirstPage,
	"G":      ActionLastPage,
	"end":    ActionLastPage,
	"+":      ActionPageSize,
	"/":      ActionSearch,
	"s":      ActionStatus,
	"r":      ActionClear,
	"c":      ActionCopy,
	"y":      ActionCopy,
	"x":      ActionWorkbook,
	"?":      ActionHelp,
	"q":      ActionQuit,
	"esc":    ActionQuit,
	"ctrl+c": ActionQuit,
}

// ActionFor returns the action bound to key.
func ActionFor(key string) Action {
	return KeyBindings[key]
}

// sortColumn maps "1".."9" to a zero-based column index. While status chips
// have focus the same digits pick a status option.
func sortColumn(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

const helpText = "n/p página · g/G primera/última · 1-9 ordenar · / buscar · s estados · + tamaño · r limpiar · c copiar · x Excel · q salir"

// statusHelp is shown while status chips have focus.
const statusHelp = "1-9 marcar · s/tab siguiente columna · enter/esc terminar"
