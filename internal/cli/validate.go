package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stubgen/internal/compiler"
	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/pkggraph"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Packages int                        `json:"packages"`
	Exports  int                        `json:"exports"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate package manifests without generating stubs",
		Long: `Validate package manifests without generating stubs.

Checks every manifest for a package id, a registered main module, named
exports, re-export sources, unique record ids and known export types, and
builds each package graph to catch files registered twice. All errors are
reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadManifests(manifestDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil {
		return outputLoadFailure(formatter, loadErrors)
	}

	formatter.VerboseLog("Found %d manifest file(s) in %s", loadResult.FileCount, manifestDir)

	_, validationErrors := validateManifests(loadResult, loadErrors, formatter)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, loadResult)
}

// validateManifests checks every loaded manifest and builds its package graph.
// Graphs are returned in manifest order and only when no error was found.
// Load errors are folded into the returned list.
func validateManifests(result *LoadResult, loadErrors []error, formatter *OutputFormatter) ([]*pkggraph.Package, []compiler.ValidationError) {
	var allErrors []compiler.ValidationError

	for _, err := range loadErrors {
		allErrors = append(allErrors, loadValidationError(err))
	}

	graphs := make([]*pkggraph.Package, 0, len(result.Manifests))
	for i := range result.Manifests {
		m := &result.Manifests[i]
		prefix := manifestLabel(m, i)
		formatter.VerboseLog("Validating package: %s", prefix)

		for _, ve := range compiler.ValidateManifest(m) {
			ve.Field = prefix + "." + ve.Field
			allErrors = append(allErrors, ve)
		}

		graph, err := pkggraph.Build(*m)
		if err != nil {
			var gErr *pkggraph.GraphConstructionError
			if errors.As(err, &gErr) {
				allErrors = append(allErrors, compiler.ValidationError{
					Field:   fmt.Sprintf("%s.files[%d].path", prefix, gErr.DuplicateIndex),
					Message: fmt.Sprintf("file %q is already registered at files[%d]", gErr.Path, gErr.FirstIndex),
					Code:    ErrCodeGraph,
				})
			} else {
				allErrors = append(allErrors, compiler.ValidationError{
					Field:   prefix,
					Message: err.Error(),
					Code:    ErrCodeGraph,
				})
			}
			continue
		}
		graphs = append(graphs, graph)
	}

	if len(allErrors) > 0 {
		return nil, allErrors
	}
	return graphs, nil
}

// manifestLabel names a manifest in error fields.
func manifestLabel(m *ir.PackageManifest, index int) string {
	if m.PackageID != "" {
		return m.PackageID
	}
	return fmt.Sprintf("packages[%d]", index)
}

// loadValidationError converts a loader error to a validation error.
func loadValidationError(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		line := 0
		if loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		return compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    line,
		}
	}
	return compiler.ValidationError{
		Field:   "load",
		Message: err.Error(),
		Code:    ErrCodeGeneric,
	}
}

// outputLoadFailure reports a loader failure that produced no result.
func outputLoadFailure(formatter *OutputFormatter, loadErrors []error) error {
	if len(loadErrors) == 0 {
		return outputCommandError(formatter, ErrCodeGeneric, "no manifests loaded", nil)
	}
	var loadErr *LoadError
	if errors.As(loadErrors[0], &loadErr) {
		return outputCommandError(formatter, loadErr.Code, loadErr.Message, nil)
	}
	return outputCommandError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *LoadResult) error {
	exports := 0
	for i := range result.Manifests {
		exports += result.Manifests[i].ExportCount()
	}

	if formatter.isJSON() {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Packages: len(result.Manifests),
			Exports:  exports,
		})
	}

	formatter.Pass("All manifests valid (%d package(s), %d export(s))", len(result.Manifests), exports)
	return nil
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.isJSON() {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := formatter.Report(errs[0].Code, errs[0].Message, result, nil); err != nil {
			return err
		}
		return failure
	}

	formatter.Fail("Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return failure
}
