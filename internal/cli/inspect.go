package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/stubgen/internal/exports"
	"github.com/roach88/stubgen/internal/pkggraph"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	PackageID string
}

// InspectResult is the classification of every record of the inspected packages.
type InspectResult struct {
	Packages []InspectPackage `json:"packages"`
}

// InspectPackage is the classification of one package.
type InspectPackage struct {
	PackageID      string        `json:"package_id"`
	Name           string        `json:"name"`
	MainModulePath string        `json:"main_module_path"`
	Files          []InspectFile `json:"files"`
}

// InspectFile is the classification of one file's records, in declaration order.
type InspectFile struct {
	Path    string                   `json:"path"`
	Exports []exports.Classification `json:"exports"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <manifest-dir>",
		Short: "Show how each export record is classified",
		Long: `Show how each export record is classified.

For every record prints its placement (top, bottom or none), stub type,
key, rewritten export path and whether a sibling file re-exports it.
Manifests must pass validation first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.PackageID, "package", "p", "", "only inspect this package id")

	return cmd
}

func runInspect(rootOpts *RootOptions, opts *InspectOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadManifests(manifestDir, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadFailure(formatter, loadErrors)
	}

	graphs, validationErrors := validateManifests(loadResult, loadErrors, formatter)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	result := InspectResult{Packages: []InspectPackage{}}
	for _, graph := range graphs {
		if opts.PackageID != "" && graph.PackageID() != opts.PackageID {
			continue
		}
		result.Packages = append(result.Packages, inspectPackage(graph))
	}

	if opts.PackageID != "" && len(result.Packages) == 0 {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("package not found: %s", opts.PackageID), nil)
	}

	if formatter.isJSON() {
		return formatter.Success(result)
	}

	renderInspect(formatter, result)
	return nil
}

// inspectPackage classifies every record of a package graph.
func inspectPackage(graph *pkggraph.Package) InspectPackage {
	pkg := InspectPackage{
		PackageID:      graph.PackageID(),
		Name:           graph.Name(),
		MainModulePath: graph.MainModulePath(),
		Files:          make([]InspectFile, 0, graph.Len()),
	}
	for _, module := range graph.Modules() {
		file := InspectFile{
			Path:    module.Path(),
			Exports: make([]exports.Classification, 0, module.Len()),
		}
		for _, e := range module.Exports() {
			file.Exports = append(file.Exports, e.Classify())
		}
		pkg.Files = append(pkg.Files, file)
	}
	return pkg
}

// renderInspect prints one table per file.
func renderInspect(formatter *OutputFormatter, result InspectResult) {
	w := formatter.Writer
	bold := color.New(color.Bold)

	for _, pkg := range result.Packages {
		bold.Fprintf(w, "%s", pkg.PackageID)
		fmt.Fprintf(w, " (main: %s)\n", pkg.MainModulePath)

		for _, file := range pkg.Files {
			fmt.Fprintf(w, "\n  %s\n", file.Path)
			if len(file.Exports) == 0 {
				fmt.Fprintln(w, "  (no exports)")
				continue
			}

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.Style().Options.SeparateRows = false
			tbl.Style().Options.SeparateColumns = false
			tbl.Style().Options.DrawBorder = false
			tbl.AppendHeader(table.Row{"id", "type", "name", "placement", "stub type", "key", "export path", "parent"})
			for _, c := range file.Exports {
				parent := ""
				if c.IsReExportedByParent {
					parent = "yes"
				}
				tbl.AppendRow(table.Row{c.ID, c.Type, displayName(c), c.Placement, c.StubType, c.Key, c.ExportPath, parent})
			}
			fmt.Fprintln(w, indent(tbl.Render(), "  "))
		}
		fmt.Fprintln(w)
	}
}

// displayName renders a record's name with its alias, if any.
func displayName(c exports.Classification) string {
	if c.As != "" {
		return c.Name + " as " + c.As
	}
	return c.Name
}

// indent prefixes every line of s with prefix.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
