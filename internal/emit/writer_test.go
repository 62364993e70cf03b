package emit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/stub"
	"github.com/roach88/stubgen/internal/testutil"
)

func quietWriter(root string, opts ...Option) *Writer {
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return NewWriter(root, opts...)
}

func multiStubs(t *testing.T) *stub.PackageStubs {
	t.Helper()
	g, err := stub.NewGenerator(testutil.MultiNamespace, stub.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	stubs, err := g.GeneratePackage(context.Background(), testutil.MultiFileManifest())
	require.NoError(t, err)
	return stubs
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPrepareWritesGitignore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out", "stubs")
	w := quietWriter(root)

	require.NoError(t, w.Prepare())
	assert.Equal(t, "/**", readFile(t, filepath.Join(root, ".gitignore")))

	// Idempotent.
	require.NoError(t, w.Prepare())
}

func TestWritePackage(t *testing.T) {
	root := t.TempDir()
	w := quietWriter(root)

	res, err := w.WritePackage(context.Background(), multiStubs(t))
	require.NoError(t, err)

	pkgDir := filepath.Join(root, "demo_multi")
	assert.Equal(t, pkgDir, res.Dir)
	assert.Equal(t, "demo:multi", res.PackageID)
	assert.Equal(t, []string{
		filepath.Join(pkgDir, "index.js"),
		filepath.Join(pkgDir, "lib", "util.js"),
	}, res.Files)
	assert.Equal(t, len(testutil.MultiIndexStub)+len(testutil.MultiUtilStub), res.Bytes)

	assert.Equal(t, testutil.MultiIndexStub, readFile(t, filepath.Join(pkgDir, "index.js")))
	assert.Equal(t, testutil.MultiUtilStub, readFile(t, filepath.Join(pkgDir, "lib", "util.js")))
	assert.NoFileExists(t, filepath.Join(pkgDir, "lib", "globals.js"))
}

func TestWritePackageBundleExtension(t *testing.T) {
	root := t.TempDir()
	w := quietWriter(root, WithBundleExtension("_vite-bundle.tmp"))

	res, err := w.WritePackage(context.Background(), multiStubs(t))
	require.NoError(t, err)

	want := filepath.Join(root, "demo_multi", "index.js._vite-bundle.tmp")
	assert.Equal(t, want, res.Files[0])
	assert.FileExists(t, want)
	assert.Equal(t, "index.js", TrimBundleExtension(filepath.Base(want), "_vite-bundle.tmp"))
}

func TestWritePackageClean(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "demo_multi", "stale.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	res, err := quietWriter(root).WritePackage(context.Background(), multiStubs(t))
	require.NoError(t, err)
	assert.FileExists(t, stale)
	assert.Equal(t, []string{"stale.js"}, res.Stale)

	res, err = quietWriter(root, WithClean(true)).WritePackage(context.Background(), multiStubs(t))
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.Empty(t, res.Stale)
	assert.FileExists(t, filepath.Join(root, "demo_multi", "index.js"))
}

func TestWritePackageReportsStaleBundleFiles(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "demo_multi")
	require.NoError(t, os.MkdirAll(filepath.Join(pkgDir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "lib", "old.js._vite-bundle.tmp"), []byte("old"), 0o644))

	res, err := quietWriter(root, WithBundleExtension("_vite-bundle.tmp")).WritePackage(context.Background(), multiStubs(t))
	require.NoError(t, err)

	// Reported as module paths, not emitted names
	assert.Equal(t, []string{"lib/old.js"}, res.Stale)
}

func TestWritePackageFirstWriteHasNoStale(t *testing.T) {
	res, err := quietWriter(t.TempDir()).WritePackage(context.Background(), multiStubs(t))
	require.NoError(t, err)
	assert.Empty(t, res.Stale)
}

func TestWritePackageRejectsEscapingPaths(t *testing.T) {
	tests := []struct {
		name      string
		packageID string
		path      string
	}{
		{name: "parent traversal", packageID: "p", path: "../evil.js"},
		{name: "nested traversal", packageID: "p", path: "lib/../../evil.js"},
		{name: "absolute", packageID: "p", path: "/etc/evil.js"},
		{name: "package id traversal", packageID: "..", path: "a.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubs := &stub.PackageStubs{
				Identity: ir.PackageIdentity{PackageID: tt.packageID},
				Stubs:    []stub.Stub{{Path: tt.path, Content: "export const a = P.a;\n"}},
			}

			_, err := quietWriter(t.TempDir()).WritePackage(context.Background(), stubs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsafePath))
		})
	}
}

func TestWritePackageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietWriter(t.TempDir()).WritePackage(ctx, multiStubs(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPackageDir(t *testing.T) {
	assert.Equal(t, "ostrio_cookies", PackageDir("ostrio:cookies"))
	assert.Equal(t, "tracker", PackageDir("tracker"))
}

func TestTrimBundleExtension(t *testing.T) {
	tests := []struct {
		name, ext, want string
	}{
		{"index.js._vite-bundle.tmp", "_vite-bundle.tmp", "index.js"},
		{"index.js", "_vite-bundle.tmp", "index.js"},
		{"index.js._vite-bundle.tmp", "", "index.js._vite-bundle.tmp"},
		{"lib/a.js.tmp", "tmp", "lib/a.js"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrimBundleExtension(tt.name, tt.ext), tt.name)
	}
}
