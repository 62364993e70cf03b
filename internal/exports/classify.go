package exports

import (
	"strings"

	"github.com/roach88/stubgen/internal/ir"
)

// Placement says where a serialized export goes within its stub.
type Placement string

const (
	// PlacementTop records are linked before the namespace object is populated
	// and must precede every statement that reads from it.
	PlacementTop Placement = "top"

	// PlacementBottom records read from the populated namespace object.
	PlacementBottom Placement = "bottom"

	// PlacementNone records have no source statement and are never emitted.
	PlacementNone Placement = "none"
)

// StubType describes how a record is rendered. It is a diagnostic label:
// the emitted text is decided by Serialize, which branches on Type.
type StubType string

const (
	StubExport        StubType = "export"
	StubExportDefault StubType = "export-default"
	StubReExport      StubType = "re-export"
	StubExportAll     StubType = "export-all"
)

// Placement returns where this record belongs in the assembled stub.
func (e Export) Placement() Placement {
	switch e.typ {
	case ir.ExportReExport:
		if e.from != "" {
			return PlacementTop
		}
		return PlacementBottom
	case ir.ExportGlobalBinding:
		return PlacementNone
	default:
		return PlacementBottom
	}
}

// IsReExportedByParent reports whether this re-export points at a sibling
// file. Siblings are already merged into the package namespace object, so
// the binding is read from there instead of imported file-to-file.
func (e Export) IsReExportedByParent() bool {
	return e.typ == ir.ExportReExport && strings.HasPrefix(e.from, "./")
}

// ExportPath returns the specifier a re-export is served from.
// Relative specifiers are qualified with the owning package id and lose
// their leading "./" and "../" segments; anything else passes through.
// The second result is false for records that are not re-exports.
func (e Export) ExportPath() (string, bool) {
	if e.typ != ir.ExportReExport {
		return "", false
	}
	if strings.HasPrefix(e.from, ".") {
		return e.owner.PackageID + "/" + strings.TrimLeft(e.from, "./"), true
	}
	return e.from, true
}

// StubType classifies how this record is rendered.
// Unknown export types are returned unchanged rather than rejected.
func (e Export) StubType() StubType {
	switch e.typ {
	case ir.ExportNamed:
		if e.name == "default" {
			return StubExportDefault
		}
		return StubExport
	case ir.ExportDefault:
		return StubExportDefault
	case ir.ExportReExport:
		if e.IsWildcard() && e.as == "" {
			return StubExportAll
		}
		if e.IsReExportedByParent() {
			return StubExport
		}
		return StubReExport
	default:
		return StubType(e.typ)
	}
}

// Key returns the identifier this record binds in emitted code.
// Pure re-exports bind nothing and return false.
func (e Export) Key() (string, bool) {
	if e.as != "" {
		return e.as, true
	}
	switch e.typ {
	case ir.ExportDefault:
		return "default", true
	case ir.ExportNamed:
		return e.name, true
	default:
		return "", false
	}
}

// Classification is a snapshot of every derived property of an Export.
type Classification struct {
	ID                   string        `json:"id"`
	Type                 ir.ExportType `json:"type"`
	Name                 string        `json:"name,omitempty"`
	As                   string        `json:"as,omitempty"`
	From                 string        `json:"from,omitempty"`
	Placement            Placement     `json:"placement"`
	StubType             StubType      `json:"stub_type"`
	Key                  string        `json:"key,omitempty"`
	ExportPath           string        `json:"export_path,omitempty"`
	IsReExportedByParent bool          `json:"is_re_exported_by_parent"`
}

// Classify computes the Classification of e.
func (e Export) Classify() Classification {
	key, _ := e.Key()
	path, _ := e.ExportPath()
	return Classification{
		ID:                   e.id,
		Type:                 e.typ,
		Name:                 e.name,
		As:                   e.as,
		From:                 e.from,
		Placement:            e.Placement(),
		StubType:             e.StubType(),
		Key:                  key,
		ExportPath:           path,
		IsReExportedByParent: e.IsReExportedByParent(),
	}
}
