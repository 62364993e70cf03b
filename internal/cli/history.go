package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/stubgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	DBPath    string
	RunID     string
	PackageID string
	Content   bool
	Prune     int
}

// PruneResult reports a --prune invocation.
type PruneResult struct {
	Deleted int64 `json:"deleted"`
	Kept    int   `json:"kept"`
}

// HistoryResult lists recorded runs.
type HistoryResult struct {
	Runs []store.Run `json:"runs"`
}

// RunDetail is one run with the stubs it recorded.
type RunDetail struct {
	Run      *store.Run      `json:"run"`
	Packages []PackageDetail `json:"packages"`
}

// PackageDetail is the stubs a run recorded for one package.
type PackageDetail struct {
	PackageID string             `json:"package_id"`
	Stubs     []store.StoredStub `json:"stubs"`
}

// latestRun selects the most recent run for --run.
const latestRun = "latest"

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `List recorded generation runs, oldest first.

With --run, shows the packages and stubs of a single run ("latest"
selects the most recent one). Stub contents are omitted unless
--content is given.

With --prune N, deletes all but the N most recent runs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "history database path (default from store.path)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", `run id to show, or "latest"`)
	cmd.Flags().StringVarP(&opts.PackageID, "package", "p", "", "only show stubs of this package id (with --run)")
	cmd.Flags().BoolVar(&opts.Content, "content", false, "include stub contents (with --run)")
	cmd.Flags().IntVar(&opts.Prune, "prune", 0, "delete all but the N most recent runs")
	cmd.MarkFlagsMutuallyExclusive("prune", "run")

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	dbPath := opts.DBPath
	if dbPath == "" {
		cfg, err := rootOpts.Config()
		if err != nil {
			return outputCommandError(formatter, ErrCodeConfig, err.Error(), nil)
		}
		dbPath = cfg.Store.Path
	}

	// Opening would create an empty database; a missing one is an error here
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("history database not found: %s", dbPath), nil)
	}

	st, err := store.Open(dbPath, store.WithLogger(rootOpts.Logger()))
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	if cmd.Flags().Changed("prune") {
		deleted, err := st.PruneRuns(ctx, opts.Prune)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
		}
		result := PruneResult{Deleted: deleted, Kept: opts.Prune}
		if formatter.isJSON() {
			return formatter.Success(result)
		}
		formatter.Pass("Pruned %d run(s), keeping at most %d", result.Deleted, result.Kept)
		return nil
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
	}

	if opts.RunID == "" {
		if formatter.isJSON() {
			return formatter.Success(HistoryResult{Runs: runs})
		}
		renderRuns(formatter, runs)
		return nil
	}

	runID := opts.RunID
	if runID == latestRun {
		if len(runs) == 0 {
			return outputCommandError(formatter, ErrCodeNotFound, "no runs recorded", nil)
		}
		runID = runs[len(runs)-1].ID
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
	}

	detail := RunDetail{Run: run, Packages: []PackageDetail{}}
	for _, pkg := range run.Packages {
		if opts.PackageID != "" && pkg.PackageID != opts.PackageID {
			continue
		}
		stubs, err := st.ReadStubs(ctx, run.ID, pkg.PackageID)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
		}
		if !opts.Content {
			for i := range stubs {
				stubs[i].Content = ""
			}
		}
		detail.Packages = append(detail.Packages, PackageDetail{PackageID: pkg.PackageID, Stubs: stubs})
	}

	if opts.PackageID != "" && len(detail.Packages) == 0 {
		return outputCommandError(formatter, ErrCodeNotFound,
			fmt.Sprintf("package %s not recorded in run %s", opts.PackageID, run.ID), nil)
	}

	if formatter.isJSON() {
		return formatter.Success(detail)
	}
	renderRunDetail(formatter, detail, opts.Content)
	return nil
}

// renderRuns prints the run list as a table.
func renderRuns(formatter *OutputFormatter, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"seq", "run", "namespace", "engine", "packages", "stubs"})
	for _, run := range runs {
		stubs := 0
		for _, pkg := range run.Packages {
			stubs += pkg.StubCount
		}
		tbl.AppendRow(table.Row{run.Seq, run.ID, run.Namespace, run.EngineVersion, len(run.Packages), stubs})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d run(s)", len(runs))})
	fmt.Fprintln(formatter.Writer, tbl.Render())
}

// renderRunDetail prints one run's packages and stubs.
func renderRunDetail(formatter *OutputFormatter, detail RunDetail, withContent bool) {
	w := formatter.Writer
	run := detail.Run

	fmt.Fprintf(w, "Run %s (seq %d, namespace %s, engine %s)\n", run.ID, run.Seq, run.Namespace, run.EngineVersion)

	for _, pkg := range detail.Packages {
		fmt.Fprintf(w, "\n%s\n", pkg.PackageID)

		tbl := table.NewWriter()
		tbl.SetStyle(table.StyleLight)
		tbl.Style().Options.DrawBorder = false
		tbl.Style().Options.SeparateColumns = false
		tbl.AppendHeader(table.Row{"path", "content hash", "size"})
		for _, s := range pkg.Stubs {
			tbl.AppendRow(table.Row{s.Path, s.ContentHash, storedSize(s, withContent)})
		}
		fmt.Fprintln(w, indent(tbl.Render(), "  "))

		if withContent {
			for _, s := range pkg.Stubs {
				fmt.Fprintf(w, "\n// %s/%s\n%s", pkg.PackageID, s.Path, s.Content)
			}
		}
	}
}

// storedSize renders a stub's size when its content was loaded.
func storedSize(s store.StoredStub, withContent bool) string {
	if !withContent {
		return "-"
	}
	return humanize.Bytes(uint64(len(s.Content)))
}
