package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stubgen/internal/exports"
	"github.com/roach88/stubgen/internal/ir"
)

func TestInspectText(t *testing.T) {
	output, err := execute(NewInspectCommand(testRootOptions("text")), manifestsDir)
	require.NoError(t, err)

	assert.Contains(t, output, "demo:pkg (main: index.js)")
	assert.Contains(t, output, "demo:multi (main: index.js)")
	assert.Contains(t, output, "lib/globals.js")
	assert.Contains(t, output, "Baz as Qux")
	assert.Contains(t, output, "demo:pkg/sub2")
	assert.Contains(t, output, "export-all")
}

func TestInspectJSON(t *testing.T) {
	output, err := execute(NewInspectCommand(testRootOptions("json")), manifestsDir)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Packages, 2)

	demo := resp.Data.Packages[0]
	assert.Equal(t, "demo:pkg", demo.PackageID)
	require.Len(t, demo.Files, 1)
	records := demo.Files[0].Exports
	require.Len(t, records, 6)

	assert.Equal(t, exports.Classification{
		ID:                   "4",
		Type:                 ir.ExportReExport,
		Name:                 "Baz",
		As:                   "Qux",
		From:                 "./sub2",
		Placement:            exports.PlacementTop,
		StubType:             exports.StubExport,
		Key:                  "Qux",
		ExportPath:           "demo:pkg/sub2",
		IsReExportedByParent: true,
	}, records[3])

	multi := resp.Data.Packages[1]
	require.Len(t, multi.Files, 3)
	assert.Equal(t, "lib/globals.js", multi.Files[2].Path)
	assert.Equal(t, exports.PlacementNone, multi.Files[2].Exports[0].Placement)
}

func TestInspectPackageFilter(t *testing.T) {
	output, err := execute(NewInspectCommand(testRootOptions("json")), manifestsDir, "--package", "demo:multi")
	require.NoError(t, err)

	var resp struct {
		Data InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Packages, 1)
	assert.Equal(t, "demo:multi", resp.Data.Packages[0].PackageID)
}

func TestInspectUnknownPackage(t *testing.T) {
	output, err := execute(NewInspectCommand(testRootOptions("text")), manifestsDir, "--package", "nope:pkg")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "package not found: nope:pkg")
}
