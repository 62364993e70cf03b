package stub

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/stubgen/internal/pkggraph"
)

// SurfaceIssue describes a public export of a package that its generated
// main stub does not bind.
type SurfaceIssue struct {
	PackageID string `json:"package_id"`
	ExportID  string `json:"export_id"`
	Key       string `json:"key"`
	Message   string `json:"message"`
}

// String renders the issue for text output.
func (i SurfaceIssue) String() string {
	return fmt.Sprintf("%s: %s (export %s): %s", i.PackageID, i.Key, i.ExportID, i.Message)
}

// CheckSurface verifies that every record of pkg's declared public surface
// is bound by the main module stub in stubs.
//
// stubs may come from anywhere (a fresh Generator, the history store, disk);
// the expected statement is re-derived with stubs.Namespace.
func CheckSurface(pkg *pkggraph.Package, stubs *PackageStubs) []SurfaceIssue {
	surface := pkg.PublicSurface()
	if len(surface) == 0 {
		return nil
	}

	var issues []SurfaceIssue
	main, ok := stubs.Stub(pkg.MainModulePath())
	lines := strings.Split(main.Content, "\n")

	for _, e := range surface {
		key, _ := e.Key()
		issue := SurfaceIssue{
			PackageID: pkg.PackageID(),
			ExportID:  e.ID(),
			Key:       key,
		}

		if !ok {
			issue.Message = fmt.Sprintf("no stub generated for main module %s", pkg.MainModulePath())
			issues = append(issues, issue)
			continue
		}

		expected, err := e.Serialize(stubs.Namespace)
		if err != nil {
			issue.Message = err.Error()
			issues = append(issues, issue)
			continue
		}
		if !slices.Contains(lines, expected) {
			issue.Message = fmt.Sprintf("main stub is missing %q", expected)
			issues = append(issues, issue)
		}
	}

	return issues
}
