package stub

import (
	"fmt"
	"strings"

	"github.com/roach88/stubgen/internal/exports"
	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/pkggraph"
)

// Stub is the emitted module text for one source file.
type Stub struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Hash returns the content hash of the stub.
func (s Stub) Hash() string {
	return ir.StubHash(s.Content)
}

// PackageStubs is the generated output of one package.
// Values returned by a Generator may be shared between callers and must be
// treated as read-only.
type PackageStubs struct {
	Identity     ir.PackageIdentity `json:"identity"`
	Namespace    string             `json:"namespace"`
	ManifestHash string             `json:"manifest_hash,omitempty"`
	Stubs        []Stub             `json:"stubs"`
}

// Stub returns the stub generated for path.
func (p *PackageStubs) Stub(path string) (Stub, bool) {
	for _, s := range p.Stubs {
		if s.Path == path {
			return s, true
		}
	}
	return Stub{}, false
}

// Bytes returns the total size of all stub contents.
func (p *PackageStubs) Bytes() int {
	n := 0
	for _, s := range p.Stubs {
		n += len(s.Content)
	}
	return n
}

// Assembler renders submodules into stub text.
type Assembler struct {
	namespace string
}

// NewAssembler returns an Assembler that reads live exports from namespace.
// The token is inserted verbatim and never resolved or validated.
func NewAssembler(namespace string) *Assembler {
	return &Assembler{namespace: namespace}
}

// Namespace returns the namespace token.
func (a *Assembler) Namespace() string { return a.namespace }

// AssembleModule serializes one file.
//
// The result holds every top record, a blank line, then every bottom record,
// each line newline-terminated. The boolean is false when the file has
// nothing to emit.
func (a *Assembler) AssembleModule(m *pkggraph.Submodule) (string, bool, error) {
	var top, bottom []string

	for _, e := range m.Exports() {
		placement := e.Placement()
		if placement == exports.PlacementNone {
			continue
		}

		line, err := e.Serialize(a.namespace)
		if err != nil {
			return "", false, fmt.Errorf("assemble %s: %w", m.Handle(), err)
		}

		switch placement {
		case exports.PlacementTop:
			top = append(top, line)
		case exports.PlacementBottom:
			bottom = append(bottom, line)
		}
	}

	if len(top) == 0 && len(bottom) == 0 {
		return "", false, nil
	}

	var groups []string
	if len(top) > 0 {
		groups = append(groups, strings.Join(top, "\n"))
	}
	if len(bottom) > 0 {
		groups = append(groups, strings.Join(bottom, "\n"))
	}
	return strings.Join(groups, "\n\n") + "\n", true, nil
}

// AssemblePackage serializes every file of pkg in registration order.
// Files with nothing to emit are skipped. Any failure discards the package.
func (a *Assembler) AssemblePackage(pkg *pkggraph.Package) (*PackageStubs, error) {
	out := &PackageStubs{
		Identity:  pkg.Identity(),
		Namespace: a.namespace,
		Stubs:     []Stub{},
	}

	for _, mod := range pkg.Modules() {
		content, ok, err := a.AssembleModule(mod)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out.Stubs = append(out.Stubs, Stub{Path: mod.Path(), Content: content})
	}

	return out, nil
}
