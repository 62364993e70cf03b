package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/testutil"
)

func TestDecodeManifestsYAML(t *testing.T) {
	src := `
name: demo:pkg
packageId: demo:pkg
mainModulePath: index.js
files:
  - path: index.js
    exports:
      - {type: export, name: Foo, id: "1"}
      - {type: export-default, id: "2"}
      - {type: re-export, name: "*", from: ./sub, id: "3"}
      - {type: re-export, name: Baz, as: Qux, from: ./sub2, id: "4"}
      - {type: re-export, name: "*", as: NS2, from: ./sub3, id: "5"}
      - {type: re-export, name: Thing, from: "other:package", id: "6"}
`

	manifests, err := DecodeManifests(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, testutil.DemoManifest(), manifests[0])
}

func TestDecodeManifestsJSON(t *testing.T) {
	src := `{
		"name": "p",
		"packageId": "p",
		"mainModulePath": "a.js",
		"files": [
			{"path": "a.js", "exports": [{"type": "export", "name": "a", "id": "1"}]}
		]
	}`

	manifests, err := DecodeManifests(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, "p", manifests[0].PackageID)
	assert.Equal(t, []ir.ExportData{{Type: ir.ExportNamed, Name: "a", ID: "1"}}, manifests[0].Files[0].Exports)
}

func TestDecodeManifestsMultipleDocuments(t *testing.T) {
	src := `packageId: a
mainModulePath: a.js
---
packageId: b
mainModulePath: b.js
files:
  - path: b.js
    exports:
      - {type: export, name: x, id: 1}
`

	manifests, err := DecodeManifests(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, manifests, 2)

	assert.Equal(t, "a", manifests[0].PackageID)
	assert.NotNil(t, manifests[0].Files)
	assert.Empty(t, manifests[0].Files)

	assert.Equal(t, "b", manifests[1].PackageID)
	assert.Equal(t, "1", manifests[1].Files[0].Exports[0].ID)
}

func TestDecodeManifestsRejectsUnknownFields(t *testing.T) {
	src := `packageId: a
mainModule: a.js
`

	_, err := DecodeManifests(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode manifest document 0")
	assert.Contains(t, err.Error(), "mainModule")
}

func TestDecodeManifestsEmpty(t *testing.T) {
	manifests, err := DecodeManifests(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, manifests)
}
