package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stubgen/internal/ir"
)

// CompilePackage parses a CUE value into a PackageManifest.
//
// The CUE value should be one package entry under the top-level
// `packages` struct, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`packages: "demo:pkg": { packageId: "demo:pkg", ... }`)
//	m, err := CompilePackage(v.LookupPath(cue.ParsePath(`packages."demo:pkg"`)))
//
// The entry label doubles as the package name when `name` is omitted.
// Only structural problems (wrong kinds, records without a type, files
// without a path) fail compilation; semantic checks belong to
// ValidateManifest.
func CompilePackage(v cue.Value) (*ir.PackageManifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &ir.PackageManifest{}

	labels := v.Path().Selectors()
	if len(labels) > 0 && labels[len(labels)-1].IsString() {
		m.Name = labels[len(labels)-1].Unquoted()
	}

	name, err := optionalString(v, "name")
	if err != nil {
		return nil, err
	}
	if name != "" {
		m.Name = name
	}

	if m.PackageID, err = optionalString(v, "packageId"); err != nil {
		return nil, err
	}
	if m.MainModulePath, err = optionalString(v, "mainModulePath"); err != nil {
		return nil, err
	}

	m.Files, err = parseFiles(v)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// parseFiles parses the ordered `files` list.
func parseFiles(v cue.Value) ([]ir.FileExports, error) {
	filesVal := v.LookupPath(cue.ParsePath("files"))
	if !filesVal.Exists() {
		return []ir.FileExports{}, nil
	}

	iter, err := filesVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "files",
			Message: "files must be a list",
			Pos:     filesVal.Pos(),
		}
	}

	files := []ir.FileExports{}
	for i := 0; iter.Next(); i++ {
		fileVal := iter.Value()
		field := fmt.Sprintf("files[%d]", i)

		pathVal := fileVal.LookupPath(cue.ParsePath("path"))
		if !pathVal.Exists() {
			return nil, &CompileError{
				Field:   field + ".path",
				Message: "path is required",
				Pos:     fileVal.Pos(),
			}
		}
		path, err := pathVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		records, err := parseExports(fileVal, field)
		if err != nil {
			return nil, err
		}

		files = append(files, ir.FileExports{Path: path, Exports: records})
	}

	return files, nil
}

// parseExports parses a file's `exports` list, keeping declaration order.
func parseExports(fileVal cue.Value, field string) ([]ir.ExportData, error) {
	exportsVal := fileVal.LookupPath(cue.ParsePath("exports"))
	if !exportsVal.Exists() {
		return []ir.ExportData{}, nil
	}

	iter, err := exportsVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".exports",
			Message: "exports must be a list",
			Pos:     exportsVal.Pos(),
		}
	}

	records := []ir.ExportData{}
	for j := 0; iter.Next(); j++ {
		recVal := iter.Value()
		recField := fmt.Sprintf("%s.exports[%d]", field, j)

		typeVal := recVal.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   recField + ".type",
				Message: "type is required",
				Pos:     recVal.Pos(),
			}
		}
		typ, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		rec := ir.ExportData{Type: ir.ExportType(typ)}
		if rec.Name, err = optionalString(recVal, "name"); err != nil {
			return nil, err
		}
		if rec.As, err = optionalString(recVal, "as"); err != nil {
			return nil, err
		}
		if rec.From, err = optionalString(recVal, "from"); err != nil {
			return nil, err
		}
		if rec.ID, err = parseID(recVal, recField); err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, nil
}

// parseID accepts the record id as a string or an integer.
// Parsers commonly number records, so `id: 3` and `id: "3"` are equivalent.
func parseID(v cue.Value, field string) (string, error) {
	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return "", nil
	}

	switch idVal.IncompleteKind() {
	case cue.StringKind:
		s, err := idVal.String()
		if err != nil {
			return "", formatCUEError(err)
		}
		return s, nil
	case cue.IntKind:
		n, err := idVal.Int64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatInt(n, 10), nil
	default:
		return "", &CompileError{
			Field:   field + ".id",
			Message: fmt.Sprintf("id must be a string or int, got %v", idVal.IncompleteKind()),
			Pos:     idVal.Pos(),
		}
	}
}

// optionalString returns the string at field, or "" when it is absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
