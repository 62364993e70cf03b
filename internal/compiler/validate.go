package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/stubgen/internal/ir"
)

// Validation error codes (E201-E299)
const (
	ErrMissingPackageID   = "E201" // packageId is required
	ErrMissingMainModule  = "E202" // mainModulePath is required
	ErrExportWithoutName  = "E203" // `export` record without a name
	ErrReExportNoFrom     = "E204" // `re-export` record without a source
	ErrDuplicateExportID  = "E205" // record id reused within the package
	ErrUnknownExportType  = "E206" // type outside the known set
	ErrMainModuleNotFound = "E207" // mainModulePath names no registered file
)

// ValidationError represents a manifest invariant violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateManifest checks a manifest against the invariants graph
// construction and serialization rely on.
// Returns all errors found (does not fail-fast).
//
// Duplicate file paths are deliberately not reported here: they are a
// graph construction failure and surface from pkggraph.Build.
func ValidateManifest(m *ir.PackageManifest) []ValidationError {
	var errs []ValidationError

	// E201: package id is required
	if strings.TrimSpace(m.PackageID) == "" {
		errs = append(errs, ValidationError{
			Field:   "packageId",
			Message: "packageId is required and must be non-empty",
			Code:    ErrMissingPackageID,
		})
	}

	// E202 / E207: main module must be named and registered
	if strings.TrimSpace(m.MainModulePath) == "" {
		errs = append(errs, ValidationError{
			Field:   "mainModulePath",
			Message: "mainModulePath is required and must be non-empty",
			Code:    ErrMissingMainModule,
		})
	} else if _, ok := m.File(m.MainModulePath); !ok {
		errs = append(errs, ValidationError{
			Field:   "mainModulePath",
			Message: fmt.Sprintf("main module %q is not among the package files", m.MainModulePath),
			Code:    ErrMainModuleNotFound,
		})
	}

	seenIDs := make(map[string]string)

	for i, file := range m.Files {
		for j, rec := range file.Exports {
			field := fmt.Sprintf("files[%d].exports[%d]", i, j)

			// E205: ids are unique within the package
			if rec.ID != "" {
				if prev, dup := seenIDs[rec.ID]; dup {
					errs = append(errs, ValidationError{
						Field:   field + ".id",
						Message: fmt.Sprintf("duplicate export id %q (first used at %s)", rec.ID, prev),
						Code:    ErrDuplicateExportID,
					})
				} else {
					seenIDs[rec.ID] = field
				}
			}

			errs = append(errs, validateRecord(rec, field)...)
		}
	}

	return errs
}

// validateRecord checks the per-type field requirements of one record.
func validateRecord(rec ir.ExportData, field string) []ValidationError {
	switch rec.Type {
	case ir.ExportNamed:
		// E203: named exports need a name
		if strings.TrimSpace(rec.Name) == "" {
			return []ValidationError{{
				Field:   field + ".name",
				Message: "export records require a name",
				Code:    ErrExportWithoutName,
			}}
		}
	case ir.ExportReExport:
		// E204: re-exports need a non-empty source
		if strings.TrimSpace(rec.From) == "" {
			return []ValidationError{{
				Field:   field + ".from",
				Message: "re-export records require a non-empty from",
				Code:    ErrReExportNoFrom,
			}}
		}
	case ir.ExportDefault, ir.ExportGlobalBinding:
	default:
		// E206: unknown types would fail at serialization
		return []ValidationError{{
			Field:   field + ".type",
			Message: fmt.Sprintf("unknown export type %q, must be one of %v", rec.Type, ir.KnownExportTypes),
			Code:    ErrUnknownExportType,
		}}
	}
	return nil
}
