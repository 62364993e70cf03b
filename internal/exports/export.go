package exports

import (
	"fmt"
	"strings"

	"github.com/roach88/stubgen/internal/ir"
)

// Handle identifies the file and package that own an export record.
//
// It replaces a back-pointer to the owning submodule: records stay valid and
// comparable after the package graph that produced them is discarded.
type Handle struct {
	PackageID   string `json:"package_id"`
	PackageName string `json:"package_name"`
	Path        string `json:"path"`
}

// String returns "<packageId>/<path>".
func (h Handle) String() string {
	return h.PackageID + "/" + h.Path
}

// Export is a single classified export declaration.
type Export struct {
	typ   ir.ExportType
	name  string
	as    string
	from  string
	id    string
	owner Handle
}

// New creates an Export from a raw parser record.
// The record's type is fixed here and never reclassified.
func New(data ir.ExportData, owner Handle) Export {
	return Export{
		typ:   data.Type,
		name:  data.Name,
		as:    data.As,
		from:  data.From,
		id:    data.ID,
		owner: owner,
	}
}

// Type returns the declared export type.
func (e Export) Type() ir.ExportType { return e.typ }

// Name returns the exported identifier, the wildcard marker, or "".
func (e Export) Name() string { return e.name }

// Alias returns the local binding name given with `as`, or "".
func (e Export) Alias() string { return e.as }

// From returns the source specifier of a re-export, or "".
func (e Export) From() string { return e.from }

// ID returns the package-unique record identifier.
func (e Export) ID() string { return e.id }

// Owner returns the handle of the file that declared this export.
func (e Export) Owner() Handle { return e.owner }

// Data returns the raw record this export was created from.
func (e Export) Data() ir.ExportData {
	return ir.ExportData{
		Type: e.typ,
		Name: e.name,
		As:   e.as,
		From: e.from,
		ID:   e.id,
	}
}

// IsWildcard reports whether the export name is the `*` marker.
func (e Export) IsWildcard() bool {
	return strings.TrimSpace(e.name) == ir.Wildcard
}

// String renders the record for diagnostics.
func (e Export) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.typ, e.owner)
	if e.id != "" {
		fmt.Fprintf(&b, "#%s", e.id)
	}
	if e.name != "" {
		fmt.Fprintf(&b, " name=%q", e.name)
	}
	if e.as != "" {
		fmt.Fprintf(&b, " as=%q", e.as)
	}
	if e.from != "" {
		fmt.Fprintf(&b, " from=%q", e.from)
	}
	return b.String()
}
