package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/stub"
	"github.com/roach88/stubgen/internal/testutil"
)

// createTestStore creates a new store in a temp dir for testing.
// Run ids come from FixedGenerator when ids are given.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	var opts []Option
	if len(ids) > 0 {
		opts = append(opts, WithRunIDGenerator(NewFixedGenerator(ids...)))
	}

	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// generateStubs assembles manifests with the given namespace.
func generateStubs(t *testing.T, namespace string, manifests ...ir.PackageManifest) []*stub.PackageStubs {
	t.Helper()
	g, err := stub.NewGenerator(namespace, stub.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("NewGenerator() failed: %v", err)
	}
	out, err := g.Generate(context.Background(), manifests)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	return out
}

// demoStubs returns the generated demo and multi-file packages.
func demoStubs(t *testing.T) []*stub.PackageStubs {
	t.Helper()
	return generateStubs(t, testutil.DemoNamespace, testutil.DemoManifest(), testutil.MultiFileManifest())
}
