package ir

// ExportType is the declared kind of an export record.
//
// The set is closed for serialization but open for decoding: a parser may hand
// over a type this package does not know, and it is carried through unchanged
// until the serialization boundary rejects it.
type ExportType string

const (
	// ExportNamed is `export const Foo = ...` or `export { Foo }`.
	ExportNamed ExportType = "export"

	// ExportDefault is `export default ...`.
	ExportDefault ExportType = "export-default"

	// ExportReExport is `export ... from '<specifier>'`.
	ExportReExport ExportType = "re-export"

	// ExportGlobalBinding is an implicit runtime binding with no source statement.
	ExportGlobalBinding ExportType = "global-binding"
)

// Wildcard is the name carried by `export * from` and `export * as X from` records.
const Wildcard = "*"

// KnownExportTypes lists every export type the engine can serialize or drop.
var KnownExportTypes = []ExportType{
	ExportNamed,
	ExportDefault,
	ExportReExport,
	ExportGlobalBinding,
}

// IsKnown reports whether t is one of KnownExportTypes.
func (t ExportType) IsKnown() bool {
	switch t {
	case ExportNamed, ExportDefault, ExportReExport, ExportGlobalBinding:
		return true
	default:
		return false
	}
}

// ExportData is one raw export declaration as reported by the parser.
type ExportData struct {
	Type ExportType `json:"type" yaml:"type"`
	Name string     `json:"name,omitempty" yaml:"name,omitempty"`
	As   string     `json:"as,omitempty" yaml:"as,omitempty"`
	From string     `json:"from,omitempty" yaml:"from,omitempty"`
	ID   string     `json:"id" yaml:"id"`
}

// FileExports holds the declarations found in one source file, in source order.
type FileExports struct {
	Path    string       `json:"path" yaml:"path"`
	Exports []ExportData `json:"exports" yaml:"exports"`
}

// PackageIdentity names a package and its public entry point.
type PackageIdentity struct {
	Name           string `json:"name" yaml:"name"`
	PackageID      string `json:"packageId" yaml:"packageId"`
	MainModulePath string `json:"mainModulePath" yaml:"mainModulePath"`
}

// PackageManifest is the complete parser output for one package.
//
// Files is a list rather than a map so that a path reported twice by the
// parser survives decoding and can be rejected during graph construction.
type PackageManifest struct {
	PackageIdentity `yaml:",inline"`
	Files           []FileExports `json:"files" yaml:"files"`
}

// File returns the first file registered under path.
func (m *PackageManifest) File(path string) (FileExports, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileExports{}, false
}

// ExportCount returns the number of declarations across all files.
func (m *PackageManifest) ExportCount() int {
	n := 0
	for _, f := range m.Files {
		n += len(f.Exports)
	}
	return n
}
