package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/testutil"
)

const demoCUE = `
packages: "demo:pkg": {
	packageId:      "demo:pkg"
	mainModulePath: "index.js"
	files: [{
		path: "index.js"
		exports: [
			{type: "export", name: "Foo", id: "1"},
			{type: "export-default", id: "2"},
			{type: "re-export", name: "*", from: "./sub", id: "3"},
			{type: "re-export", name: "Baz", as: "Qux", from: "./sub2", id: "4"},
			{type: "re-export", name: "*", as: "NS2", from: "./sub3", id: "5"},
			{type: "re-export", name: "Thing", from: "other:package", id: "6"},
		]
	}]
}
`

func compileEntry(t *testing.T, src, path string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath(path))
}

func TestCompilePackageDemo(t *testing.T) {
	m, err := CompilePackage(compileEntry(t, demoCUE, `packages."demo:pkg"`))
	require.NoError(t, err)

	assert.Equal(t, testutil.DemoManifest(), *m)
	assert.Equal(t, ir.MustManifestHash(testutil.DemoManifest()), ir.MustManifestHash(*m))
}

func TestCompilePackageNameDefaultsToLabel(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "label",
			src:  `packages: "meteor:tracker": {packageId: "tracker", mainModulePath: "t.js", files: []}`,
			want: "meteor:tracker",
		},
		{
			name: "explicit name wins",
			src:  `packages: "meteor:tracker": {name: "tracker", packageId: "tracker", mainModulePath: "t.js"}`,
			want: "tracker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := CompilePackage(compileEntry(t, tt.src, `packages."meteor:tracker"`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Name)
			assert.NotNil(t, m.Files)
		})
	}
}

func TestCompilePackageIntegerIDs(t *testing.T) {
	src := `packages: p: {
		packageId: "p"
		mainModulePath: "a.js"
		files: [{path: "a.js", exports: [{type: "export", name: "a", id: 7}]}]
	}`

	m, err := CompilePackage(compileEntry(t, src, "packages.p"))
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "7", m.Files[0].Exports[0].ID)
}

func TestCompilePackageKeepsDuplicateFiles(t *testing.T) {
	src := `packages: p: {
		packageId: "p"
		mainModulePath: "a.js"
		files: [{path: "a.js"}, {path: "a.js"}]
	}`

	m, err := CompilePackage(compileEntry(t, src, "packages.p"))
	require.NoError(t, err)
	assert.Len(t, m.Files, 2)
}

func TestCompilePackageKeepsUnknownTypes(t *testing.T) {
	src := `packages: p: {
		packageId: "p"
		mainModulePath: "a.js"
		files: [{path: "a.js", exports: [{type: "export-namespace", name: "x", id: "1"}]}]
	}`

	m, err := CompilePackage(compileEntry(t, src, "packages.p"))
	require.NoError(t, err)
	assert.Equal(t, ir.ExportType("export-namespace"), m.Files[0].Exports[0].Type)
}

func TestCompilePackageStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "files not a list",
			src:   `packages: p: {packageId: "p", files: {a: 1}}`,
			field: "files",
		},
		{
			name:  "file without path",
			src:   `packages: p: {packageId: "p", files: [{exports: []}]}`,
			field: "files[0].path",
		},
		{
			name:  "exports not a list",
			src:   `packages: p: {packageId: "p", files: [{path: "a.js", exports: "x"}]}`,
			field: "files[0].exports",
		},
		{
			name:  "record without type",
			src:   `packages: p: {packageId: "p", files: [{path: "a.js", exports: [{name: "a", id: "1"}]}]}`,
			field: "files[0].exports[0].type",
		},
		{
			name:  "boolean id",
			src:   `packages: p: {packageId: "p", files: [{path: "a.js", exports: [{type: "export", name: "a", id: true}]}]}`,
			field: "files[0].exports[0].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompilePackage(compileEntry(t, tt.src, "packages.p"))
			require.Error(t, err)

			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr))
			assert.Equal(t, tt.field, compileErr.Field)
		})
	}
}

func TestCompilePackageWrongKind(t *testing.T) {
	src := `packages: p: {packageId: 42}`

	m, err := CompilePackage(compileEntry(t, src, "packages.p"))
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "files", Message: "files must be a list"}
	assert.Equal(t, "files: files must be a list", err.Error())
}

func TestFormatCUEErrorNil(t *testing.T) {
	assert.NoError(t, formatCUEError(nil))
}
