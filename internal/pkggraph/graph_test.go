package pkggraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stubgen/internal/exports"
	"github.com/roach88/stubgen/internal/ir"
)

func manifest(files ...ir.FileExports) ir.PackageManifest {
	return ir.PackageManifest{
		PackageIdentity: ir.PackageIdentity{
			Name:           "demo:pkg",
			PackageID:      "demo:pkg",
			MainModulePath: "index.js",
		},
		Files: files,
	}
}

func TestBuildPreservesOrder(t *testing.T) {
	m := manifest(
		ir.FileExports{Path: "index.js", Exports: []ir.ExportData{
			{Type: ir.ExportNamed, Name: "B", ID: "1"},
			{Type: ir.ExportNamed, Name: "A", ID: "2"},
		}},
		ir.FileExports{Path: "lib/a.js", Exports: []ir.ExportData{
			{Type: ir.ExportDefault, ID: "3"},
		}},
		ir.FileExports{Path: "empty.js"},
	)

	pkg, err := Build(m)
	require.NoError(t, err)

	assert.Equal(t, "demo:pkg", pkg.PackageID())
	assert.Equal(t, "demo:pkg", pkg.Name())
	assert.Equal(t, "index.js", pkg.MainModulePath())
	assert.Equal(t, 3, pkg.Len())

	var paths []string
	for _, mod := range pkg.Modules() {
		paths = append(paths, mod.Path())
	}
	assert.Equal(t, []string{"index.js", "lib/a.js", "empty.js"}, paths)

	index, ok := pkg.Module("index.js")
	require.True(t, ok)
	records := index.Exports()
	require.Len(t, records, 2)
	assert.Equal(t, "B", records[0].Name())
	assert.Equal(t, "A", records[1].Name())

	empty, ok := pkg.Module("empty.js")
	require.True(t, ok)
	assert.Equal(t, 0, empty.Len())
}

func TestBuildSetsOwnerHandles(t *testing.T) {
	pkg, err := Build(manifest(ir.FileExports{Path: "lib/a.js", Exports: []ir.ExportData{
		{Type: ir.ExportReExport, Name: "*", From: "./b", ID: "1"},
	}}))
	require.NoError(t, err)

	mod, ok := pkg.Module("lib/a.js")
	require.True(t, ok)
	e := mod.Exports()[0]

	assert.Equal(t, exports.Handle{PackageID: "demo:pkg", PackageName: "demo:pkg", Path: "lib/a.js"}, e.Owner())
	assert.Equal(t, mod.Handle(), e.Owner())

	path, ok := e.ExportPath()
	require.True(t, ok)
	assert.Equal(t, "demo:pkg/b", path)
}

func TestBuildRejectsDuplicatePaths(t *testing.T) {
	m := manifest(
		ir.FileExports{Path: "index.js"},
		ir.FileExports{Path: "lib.js"},
		ir.FileExports{Path: "index.js"},
	)

	pkg, err := Build(m)
	require.Error(t, err)
	assert.Nil(t, pkg, "no partial graph on failure")

	var graphErr *GraphConstructionError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, "demo:pkg", graphErr.PackageID)
	assert.Equal(t, "index.js", graphErr.Path)
	assert.Equal(t, 0, graphErr.FirstIndex)
	assert.Equal(t, 2, graphErr.DuplicateIndex)
	assert.Contains(t, err.Error(), `"index.js" registered twice`)
}

func TestExportsReturnsCopy(t *testing.T) {
	pkg, err := Build(manifest(ir.FileExports{Path: "index.js", Exports: []ir.ExportData{
		{Type: ir.ExportNamed, Name: "Foo", ID: "1"},
	}}))
	require.NoError(t, err)

	mod, _ := pkg.Module("index.js")
	records := mod.Exports()
	records[0] = exports.Export{}

	assert.Equal(t, "Foo", mod.Exports()[0].Name(), "submodule must not be mutated through Exports()")
}

func TestPublicSurface(t *testing.T) {
	pkg, err := Build(manifest(
		ir.FileExports{Path: "index.js", Exports: []ir.ExportData{
			{Type: ir.ExportNamed, Name: "Foo", ID: "1"},
			{Type: ir.ExportReExport, Name: "*", From: "./sub", ID: "2"},
			{Type: ir.ExportGlobalBinding, Name: "Meteor", ID: "3"},
			{Type: ir.ExportDefault, ID: "4"},
		}},
		ir.FileExports{Path: "other.js", Exports: []ir.ExportData{
			{Type: ir.ExportNamed, Name: "NotPublic", ID: "5"},
		}},
	))
	require.NoError(t, err)

	surface := pkg.PublicSurface()
	require.Len(t, surface, 2)
	assert.Equal(t, "1", surface[0].ID())
	assert.Equal(t, "4", surface[1].ID())
}

func TestPublicSurfaceWithoutMainModule(t *testing.T) {
	pkg, err := Build(manifest(ir.FileExports{Path: "other.js", Exports: []ir.ExportData{
		{Type: ir.ExportNamed, Name: "Foo", ID: "1"},
	}}))
	require.NoError(t, err)

	_, ok := pkg.MainModule()
	assert.False(t, ok)
	assert.Empty(t, pkg.PublicSurface())
}
