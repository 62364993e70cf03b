// Package pkggraph aggregates per-file export records into an immutable
// package graph.
package pkggraph

import (
	"fmt"

	"github.com/roach88/stubgen/internal/exports"
	"github.com/roach88/stubgen/internal/ir"
)

// Submodule holds the export records of one source file in declaration order.
type Submodule struct {
	handle  exports.Handle
	exports []exports.Export
}

// Path returns the file path the submodule is registered under.
func (s *Submodule) Path() string { return s.handle.Path }

// Handle returns the owner handle shared by every record of this file.
func (s *Submodule) Handle() exports.Handle { return s.handle }

// Exports returns the records in declaration order.
// The returned slice is a copy; the submodule is never mutated.
func (s *Submodule) Exports() []exports.Export {
	out := make([]exports.Export, len(s.exports))
	copy(out, s.exports)
	return out
}

// Len returns the number of records in the file.
func (s *Submodule) Len() int { return len(s.exports) }

// Package is the export graph of one package: file path -> Submodule plus
// the package identity.
//
// A Package is immutable after Build returns.
type Package struct {
	identity ir.PackageIdentity
	modules  map[string]*Submodule
	order    []string
}

// Build constructs the graph for one package manifest.
//
// Each file becomes one Submodule with its records in source order. A file
// path registered twice is an upstream parser defect and fails the whole
// package with a *GraphConstructionError; nothing is merged.
func Build(m ir.PackageManifest) (*Package, error) {
	pkg := &Package{
		identity: m.PackageIdentity,
		modules:  make(map[string]*Submodule, len(m.Files)),
		order:    make([]string, 0, len(m.Files)),
	}
	firstIndex := make(map[string]int, len(m.Files))

	for i, file := range m.Files {
		if prev, dup := firstIndex[file.Path]; dup {
			return nil, &GraphConstructionError{
				PackageID:      m.PackageID,
				Path:           file.Path,
				FirstIndex:     prev,
				DuplicateIndex: i,
			}
		}
		firstIndex[file.Path] = i

		handle := exports.Handle{
			PackageID:   m.PackageID,
			PackageName: m.Name,
			Path:        file.Path,
		}
		records := make([]exports.Export, len(file.Exports))
		for j, data := range file.Exports {
			records[j] = exports.New(data, handle)
		}

		pkg.modules[file.Path] = &Submodule{handle: handle, exports: records}
		pkg.order = append(pkg.order, file.Path)
	}

	return pkg, nil
}

// Identity returns the package identity.
func (p *Package) Identity() ir.PackageIdentity { return p.identity }

// Name returns the package name.
func (p *Package) Name() string { return p.identity.Name }

// PackageID returns the stable cross-package identifier.
func (p *Package) PackageID() string { return p.identity.PackageID }

// MainModulePath returns the path of the file whose exports form the public surface.
func (p *Package) MainModulePath() string { return p.identity.MainModulePath }

// Module returns the submodule registered under path.
func (p *Package) Module(path string) (*Submodule, bool) {
	m, ok := p.modules[path]
	return m, ok
}

// Modules returns every submodule in registration order.
func (p *Package) Modules() []*Submodule {
	out := make([]*Submodule, len(p.order))
	for i, path := range p.order {
		out[i] = p.modules[path]
	}
	return out
}

// Len returns the number of registered files.
func (p *Package) Len() int { return len(p.order) }

// MainModule returns the submodule at MainModulePath, if it was registered.
func (p *Package) MainModule() (*Submodule, bool) {
	return p.Module(p.identity.MainModulePath)
}

// PublicSurface returns the main module's `export` and `export-default`
// records, in declaration order. It is empty when the main module is absent.
func (p *Package) PublicSurface() []exports.Export {
	main, ok := p.MainModule()
	if !ok {
		return nil
	}
	var surface []exports.Export
	for _, e := range main.exports {
		switch e.Type() {
		case ir.ExportNamed, ir.ExportDefault:
			surface = append(surface, e)
		}
	}
	return surface
}

// GraphConstructionError reports a file path registered more than once in a package.
type GraphConstructionError struct {
	PackageID      string
	Path           string
	FirstIndex     int
	DuplicateIndex int
}

// Error implements the error interface.
func (e *GraphConstructionError) Error() string {
	return fmt.Sprintf("build package graph %s: file %q registered twice (files[%d] and files[%d])",
		e.PackageID, e.Path, e.FirstIndex, e.DuplicateIndex)
}
