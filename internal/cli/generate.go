package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/stubgen/internal/config"
	"github.com/roach88/stubgen/internal/emit"
	"github.com/roach88/stubgen/internal/exports"
	"github.com/roach88/stubgen/internal/pkggraph"
	"github.com/roach88/stubgen/internal/store"
	"github.com/roach88/stubgen/internal/stub"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	OutDir    string
	Namespace string
	BundleExt string
	DBPath    string
	Workers   int
	DryRun    bool
	NoStore   bool
	Clean     bool
}

// GenerateResult contains the result of a generate run.
type GenerateResult struct {
	RunID      string            `json:"run_id,omitempty"`
	RunSeq     int64             `json:"run_seq,omitempty"`
	Namespace  string            `json:"namespace"`
	OutputDir  string            `json:"output_dir,omitempty"`
	DryRun     bool              `json:"dry_run"`
	Packages   []GeneratePackage `json:"packages"`
	TotalBytes int               `json:"total_bytes"`
}

// GeneratePackage summarizes the stubs generated for one package.
type GeneratePackage struct {
	PackageID    string      `json:"package_id"`
	ManifestHash string      `json:"manifest_hash"`
	Files        []string    `json:"files"`
	Bytes        int         `json:"bytes"`
	Changed      bool        `json:"changed"`
	Stale        []string    `json:"stale,omitempty"` // left over from earlier runs
	Stubs        []stub.Stub `json:"stubs,omitempty"` // dry run only
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <manifest-dir>",
		Short: "Generate stub modules from package manifests",
		Long: `Generate stub modules from package manifests.

Loads and validates every manifest in the directory, assembles one stub
per file in parallel, checks that each main module stub binds the
package's public exports, writes the stubs below the output directory
and records the run in the history store.

Flags override the matching configuration keys.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "output directory (default from output.dir)")
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "namespace token the stubs read from (default from stub.namespace)")
	cmd.Flags().StringVar(&opts.BundleExt, "bundle-ext", "", "temporary extension appended to emitted files")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "history database path (default from store.path)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "packages generated concurrently (default from generate.workers)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print stubs instead of writing them")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "do not record the run in the history store")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "remove each package's previous output first")

	return cmd
}

// applyGenerateFlags overrides configuration with explicitly set flags.
func applyGenerateFlags(cfg config.Config, opts *GenerateOptions, cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = opts.OutDir
	}
	if flags.Changed("namespace") {
		cfg.Stub.Namespace = opts.Namespace
	}
	if flags.Changed("bundle-ext") {
		cfg.Stub.BundleExtension = opts.BundleExt
	}
	if flags.Changed("db") {
		cfg.Store.Path = opts.DBPath
	}
	if flags.Changed("workers") {
		cfg.Generate.Workers = opts.Workers
	}
	if opts.NoStore {
		cfg.Store.Enabled = false
	}

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runGenerate(rootOpts *RootOptions, opts *GenerateOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	logger := rootOpts.Logger()

	baseCfg, err := rootOpts.Config()
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error(), nil)
	}
	cfg, err := applyGenerateFlags(*baseCfg, opts, cmd)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error(), nil)
	}

	// Load and validate
	loadResult, loadErrors := LoadManifests(manifestDir, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadFailure(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d manifest file(s) in %s", loadResult.FileCount, manifestDir)

	graphs, validationErrors := validateManifests(loadResult, loadErrors, formatter)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	// Assemble
	gen, err := stub.NewGenerator(cfg.Stub.Namespace,
		stub.WithWorkers(cfg.Generate.Workers),
		stub.WithCacheSize(cfg.Generate.CacheSize),
		stub.WithLogger(logger),
	)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	generated, err := gen.Generate(ctx, loadResult.Manifests)
	if err != nil {
		_ = formatter.Error(generationErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "generation failed", err)
	}

	// Check each main stub against the declared surface
	var issues []stub.SurfaceIssue
	for i, graph := range graphs {
		issues = append(issues, stub.CheckSurface(graph, generated[i])...)
	}
	if len(issues) > 0 {
		return outputSurfaceIssues(formatter, issues)
	}

	result := &GenerateResult{
		Namespace: cfg.Stub.Namespace,
		DryRun:    opts.DryRun,
		Packages:  make([]GeneratePackage, 0, len(generated)),
	}

	changed, err := changedPackages(ctx, cfg, generated, logger)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
	}

	// Write
	var writer *emit.Writer
	if !opts.DryRun {
		writer = emit.NewWriter(cfg.Output.Dir,
			emit.WithBundleExtension(cfg.Stub.BundleExtension),
			emit.WithClean(opts.Clean),
			emit.WithLogger(logger),
		)
		if err := writer.Prepare(); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, err.Error(), nil)
		}
		result.OutputDir = writer.Root()
	}

	for _, pkg := range generated {
		summary := GeneratePackage{
			PackageID:    pkg.Identity.PackageID,
			ManifestHash: pkg.ManifestHash,
			Bytes:        pkg.Bytes(),
			Changed:      changed == nil || slices.Contains(changed, pkg.Identity.PackageID),
		}

		if writer != nil {
			written, err := writer.WritePackage(ctx, pkg)
			if err != nil {
				return outputCommandError(formatter, ErrCodeWriteFailed, err.Error(), nil)
			}
			summary.Files = written.Files
			summary.Stale = written.Stale
		} else {
			for _, s := range pkg.Stubs {
				summary.Files = append(summary.Files, s.Path)
			}
			summary.Stubs = pkg.Stubs
		}

		result.TotalBytes += summary.Bytes
		result.Packages = append(result.Packages, summary)
	}

	// Record
	if cfg.Store.Enabled && !opts.DryRun {
		run, err := recordRun(ctx, cfg, generated, logger)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err.Error(), nil)
		}
		result.RunID = run.ID
		result.RunSeq = run.Seq
		logger.Info("generation run recorded", "run", run.ID, "seq", run.Seq, "packages", len(run.Packages))
	}

	return outputGenerateSuccess(formatter, result)
}

// changedPackages returns the ids of packages whose manifest or namespace
// differs from the latest recorded run. A nil result means no history is
// available and every package counts as changed.
func changedPackages(ctx context.Context, cfg *config.Config, generated []*stub.PackageStubs, logger *slog.Logger) ([]string, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	if _, err := os.Stat(cfg.Store.Path); os.IsNotExist(err) {
		return nil, nil
	}

	st, err := store.Open(cfg.Store.Path, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer st.Close()

	hashes := make(map[string]string, len(generated))
	for _, pkg := range generated {
		hashes[pkg.Identity.PackageID] = pkg.ManifestHash
	}
	changed, err := st.ChangedPackages(ctx, cfg.Stub.Namespace, hashes)
	if err != nil {
		return nil, err
	}
	if changed == nil {
		changed = []string{}
	}
	return changed, nil
}

// recordRun appends the generated packages to the history store.
func recordRun(ctx context.Context, cfg *config.Config, generated []*stub.PackageStubs, logger *slog.Logger) (*store.Run, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	st, err := store.Open(cfg.Store.Path, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return st.WriteRun(ctx, cfg.Stub.Namespace, generated)
}

// generationErrorCode maps a generator failure to an error code.
func generationErrorCode(err error) string {
	var gErr *pkggraph.GraphConstructionError
	if errors.As(err, &gErr) {
		return ErrCodeGraph
	}
	var sErr *exports.SerializationError
	if errors.As(err, &sErr) {
		return ErrCodeSerialization
	}
	return ErrCodeGeneric
}

// outputSurfaceIssues reports main stubs that miss public exports (exit code 1).
func outputSurfaceIssues(formatter *OutputFormatter, issues []stub.SurfaceIssue) error {
	message := fmt.Sprintf("%d public export(s) not bound by their main module stub", len(issues))

	if formatter.isJSON() {
		if err := formatter.Report(ErrCodeSurface, message, nil, issues); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	formatter.Fail("Surface check failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeSurface, issue)
	}
	return NewExitError(ExitFailure, message)
}

// outputGenerateSuccess outputs the generation summary.
func outputGenerateSuccess(formatter *OutputFormatter, result *GenerateResult) error {
	if formatter.isJSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: result, RunID: result.RunID}, false)
	}

	w := formatter.Writer

	if result.DryRun {
		for _, pkg := range result.Packages {
			for _, s := range pkg.Stubs {
				color.New(color.FgCyan).Fprintf(w, "// %s/%s\n", pkg.PackageID, s.Path)
				fmt.Fprintln(w, s.Content)
			}
		}
	}

	verb := "Generated"
	if result.DryRun {
		verb = "Dry run:"
	}
	formatter.Pass("%s %d package(s) with namespace %s (%s)",
		verb, len(result.Packages), result.Namespace, humanize.Bytes(uint64(result.TotalBytes)))

	for _, pkg := range result.Packages {
		state := color.New(color.FgYellow).Sprint("unchanged")
		if pkg.Changed {
			state = color.New(color.FgGreen).Sprint("changed")
		}
		fmt.Fprintf(w, "  %-32s %3d file(s) %10s  %s\n",
			pkg.PackageID, len(pkg.Files), humanize.Bytes(uint64(pkg.Bytes)), state)
		for _, p := range pkg.Stale {
			color.New(color.FgYellow).Fprintf(w, "    stale: %s (use --clean to remove)\n", p)
		}
	}

	if result.OutputDir != "" {
		fmt.Fprintf(w, "Output: %s\n", result.OutputDir)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s (seq %d)\n", result.RunID, result.RunSeq)
	}
	return nil
}
