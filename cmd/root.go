package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvgrid/internal/config"
	"github.com/oakwood-commons/kvgrid/internal/formatter"
	"github.com/oakwood-commons/kvgrid/internal/limiter"
	"github.com/oakwood-commons/kvgrid/pkg/core"
	"github.com/oakwood-commons/kvgrid/pkg/datatable"
	"github.com/oakwood-commons/kvgrid/pkg/logger"
	"github.com/oakwood-commons/kvgrid/pkg/settings"
	"github.com/oakwood-commons/kvgrid/pkg/tui"
)

// errShowHelp is returned by loadInput when no input is provided and help should be shown.
var errShowHelp = errors.New("no input provided")

var (
	stdinIsPiped = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	runBrowser   = tui.Run
	newClipboard = func() datatable.Clipboard { return nil }
)

// rootOptions holds the flag values of one invocation.
type rootOptions struct {
	path        string
	columnsFile string
	where       string
	window      limiter.Config
	table       tableFlags
	pageSize    *pageSizeValue
	output      string
	copy        bool
	xlsxDir     string
	exportName  string
	configFile  string
	interactive bool
	rowNumbers  bool
	width       int
	noColor     bool
	quiet       bool
	debug       bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{pageSize: newPageSizeValue(datatable.DefaultPageSize)}
	cmd := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "Filter, sort, page and export tabular JSON, YAML and TOML data",
		Long: `kvgrid loads a list of records and shows it as a table with search,
per-column filters, single-column sorting and pagination. The filtered and
sorted rows can be copied to the clipboard as TSV or saved as an XLSX workbook.

Input is read from the file argument or stdin. A top-level object holding a
single list is unwrapped; --path selects a nested list. --where, then
--offset/--limit/--tail, narrow the loaded rows before the table sees them.`,
		Example: `  kvgrid viajes.json --sort fecha:desc
  kvgrid viajes.json --status estado=retraso --date fecha=2024-03-01..2024-03-31
  kvgrid viajes.yaml --where '_.monto > 1000.0' -o json
  kvgrid viajes.json --tail 50 --sort monto:desc
  cat viajes.json | kvgrid --search acme --xlsx . --export-name viajes
  kvgrid viajes.json -i`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// --debug maps to zap debug (-1); otherwise only warnings and errors are logged
			var level int8 = 1
			if opts.debug {
				level = -1
			}
			lgr := logger.WithValues(logger.Get(level), logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
			run := settings.NewCliParams()
			run.MinLogLevel = level
			run.NoColor = opts.noColor
			run.IsQuiet = opts.quiet
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = logger.WithLogger(ctx, lgr)
			cmd.SetContext(settings.IntoContext(ctx, run))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runRoot(cmd, args, opts)
			if errors.Is(err, errShowHelp) {
				return cmd.Help()
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "dotted path to the list of rows, e.g. data.items")
	f.StringVar(&opts.columnsFile, "columns", "", "YAML file with column descriptors (key, header, type, sortable, statusOptions, width)")
	f.StringVar(&opts.where, "where", "", "CEL predicate over each row bound to '_', e.g. '_.monto > 100.0'")
	f.IntVar(&opts.window.Limit, "limit", 0, "keep only the first N loaded rows")
	f.IntVar(&opts.window.Offset, "offset", 0, "skip the first N loaded rows")
	f.IntVar(&opts.window.Tail, "tail", 0, "keep only the last N loaded rows")
	f.StringVarP(&opts.table.search, "search", "s", "", "case-insensitive text searched in every column")
	f.StringArrayVar(&opts.table.filters, "filter", nil, "text filter key=text (repeatable)")
	f.StringArrayVar(&opts.table.statuses, "status", nil, "status filter key=a,b (repeatable)")
	f.StringArrayVar(&opts.table.dates, "date", nil, "inclusive date filter key=FROM..TO; either bound may be empty and a date-only TO covers the whole day (repeatable)")
	f.StringVar(&opts.table.sort, "sort", "", "sort column key[:asc|desc]")
	f.IntVar(&opts.table.page, "page", 1, "page to show, clamped to the last page")
	f.Var(opts.pageSize, "page-size", "rows per page: 10|20|50|100|all (default from config)")
	f.StringVarP(&opts.output, "output", "o", outputTable, "output format of the visible page: table|tsv|json|yaml|tree")
	f.BoolVar(&opts.copy, "copy", false, "copy every filtered, sorted row to the clipboard as TSV")
	f.StringVar(&opts.xlsxDir, "xlsx", "", "write every filtered, sorted row to <dir>/<export-name>.xlsx")
	f.StringVar(&opts.exportName, "export-name", "", "workbook base name (default from config)")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the table interactively")
	f.BoolVar(&opts.rowNumbers, "row-numbers", false, "prefix table rows with their position")
	f.IntVar(&opts.width, "width", 0, "table width in columns (default: terminal width)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not report export outcomes on stderr")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file (default $XDG_CONFIG_HOME/kvgrid/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable color output")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log debug events as JSON on stderr")

	cmd.AddCommand(newVersionCmd(), newConfigCmd(opts))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print kvgrid version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
			return nil
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadMergedConfig(opts.configFile)
			if err != nil {
				return err
			}
			out, err := renderConfig(cfg, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml|json")
	return cmd
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s/%s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func runRoot(cmd *cobra.Command, args []string, opts *rootOptions) error {
	ctx := cmd.Context()
	lgr := *logger.FromContext(ctx)
	run := settings.OrDefault(ctx)

	opts.output = strings.ToLower(strings.TrimSpace(opts.output))
	if err := validOutput(opts.output); err != nil {
		return err
	}
	if err := opts.window.Validate(); err != nil {
		return err
	}

	cfg, cfgPath, err := loadMergedConfig(opts.configFile)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		lgr.V(1).Info("config loaded", "path", cfgPath)
	}
	formatter.SetTableTheme(cfg.Theme.TableColors())

	root, err := loadInput(cmd, args, run)
	if err != nil {
		return err
	}
	lgr = *logger.WithValues(&lgr, logger.InputKey, run.InputName())

	engine, err := core.New(core.WithLogger(lgr))
	if err != nil {
		return err
	}
	rows, err := engine.Rows(root, opts.path, opts.where)
	if err != nil {
		return err
	}
	if opts.window.IsActive() {
		loaded := len(rows)
		rows = limiter.Apply(opts.window, rows)
		lgr.V(1).Info("rows windowed", logger.RowsKey, loaded, "kept", len(rows))
	}

	tableCfg, err := buildTableConfig(cmd, opts, cfg)
	if err != nil {
		return err
	}
	tableCfg.Clipboard = newClipboard()
	if !opts.quiet {
		stderr := cmd.ErrOrStderr()
		tableCfg.Notifier = datatable.NotifierFunc(func(n datatable.Notification) {
			fmt.Fprintln(stderr, notifyLine(n))
		})
	}
	tbl, err := engine.Table(rows, tableCfg)
	if err != nil {
		return err
	}
	if err := opts.table.apply(tbl); err != nil {
		return err
	}
	lgr.V(1).Info("table ready", logger.RowsKey, len(rows), "visible", tbl.TotalRows())

	if opts.interactive {
		progOpts, cleanup, err := browseProgramOptions(run)
		if err != nil {
			return err
		}
		defer cleanup()
		return runBrowser(ctx, tbl, tui.Config{
			Title:       cfg.About.Name,
			NoColor:     opts.noColor,
			WorkbookDir: opts.xlsxDir,
			Width:       opts.width,
			Logger:      lgr,
		}, progOpts...)
	}

	if err := export(ctx, tbl, opts); err != nil {
		return err
	}
	out, err := renderPage(tbl, opts.output, formatter.TableOptions{
		Width:      opts.width,
		NoColor:    opts.noColor,
		RowNumbers: opts.rowNumbers || cfg.Table.RowNumbers,
	})
	if err != nil {
		return err
	}
	lgr.V(1).Info("rendered", logger.OutputKey, opts.output)
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// loadInput reads the file argument, or stdin when it is piped.
func loadInput(cmd *cobra.Command, args []string, run *settings.Run) (any, error) {
	if len(args) == 1 && args[0] != "-" {
		run.Input = settings.Input{Path: args[0]}
		return core.LoadFile(args[0])
	}
	if len(args) == 0 && !stdinIsPiped() {
		return nil, errShowHelp
	}
	run.Input = settings.Input{FromStdin: true}
	return core.LoadReader(cmd.InOrStdin())
}

// browseProgramOptions reads keys from the terminal device when the rows
// came in on stdin.
func browseProgramOptions(run *settings.Run) ([]tea.ProgramOption, func(), error) {
	if !run.Input.FromStdin {
		return nil, func() {}, nil
	}
	in, err := openTerminalInput()
	if err != nil {
		return nil, nil, fmt.Errorf("interactive mode needs a terminal: %w", err)
	}
	return tui.WithIO(in, nil), func() { _ = in.Close() }, nil
}

var openTerminalInput = func() (*os.File, error) {
	return os.Open(terminalDeviceName(runtime.GOOS))
}

func terminalDeviceName(goos string) string {
	if goos == "windows" {
		return "CONIN$"
	}
	return "/dev/tty"
}

// buildTableConfig combines the config file with flags; flags win.
func buildTableConfig(cmd *cobra.Command, opts *rootOptions, cfg config.Config) (core.TableConfig, error) {
	tc := core.TableConfig{
		Columns:          cfg.Columns,
		ExportFileName:   cfg.Table.ExportFileName,
		NoRecordsMessage: cfg.Table.NoRecordsMessage,
	}
	size, err := cfg.PageSize()
	if err != nil {
		return tc, err
	}
	tc.PageSize = size
	if cmd.Flags().Changed("page-size") {
		tc.PageSize = opts.pageSize.size
	}
	if opts.exportName != "" {
		tc.ExportFileName = opts.exportName
	}
	if opts.columnsFile != "" {
		specs, err := config.LoadColumns(opts.columnsFile)
		if err != nil {
			return tc, err
		}
		tc.Columns = specs
	}
	tc.Statuses = opts.table.statusColumns()
	return tc, nil
}

// export runs the requested exports. Both run even when the first fails.
func export(ctx context.Context, tbl *datatable.Table[any], opts *rootOptions) error {
	var errs []error
	if opts.copy {
		if err := tbl.CopyToClipboard(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if opts.xlsxDir != "" {
		if _, err := tbl.SaveWorkbook(ctx, opts.xlsxDir); err != nil {
			errs = append(errs, fmt.Errorf("save workbook: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx; cancelling it aborts
// pending exports.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
