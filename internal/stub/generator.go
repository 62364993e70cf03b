package stub

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/pkggraph"
)

// Default generator settings.
const (
	DefaultWorkers   = 4
	DefaultCacheSize = 256
)

// Generator turns package manifests into stubs, several packages at a time.
//
// Packages are independent: each is built, assembled and cached on its own
// worker. Results are memoized by (namespace, manifest hash).
type Generator struct {
	assembler *Assembler
	workers   int
	cacheSize int
	cache     *lru.Cache[string, *PackageStubs]
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers bounds the number of packages generated concurrently.
// Values below 1 mean one worker.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n < 1 {
			n = 1
		}
		g.workers = n
	}
}

// WithCacheSize sets the number of memoized packages. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(g *Generator) {
		g.cacheSize = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewGenerator creates a Generator that emits stubs reading from namespace.
func NewGenerator(namespace string, opts ...Option) (*Generator, error) {
	g := &Generator{
		assembler: NewAssembler(namespace),
		workers:   DefaultWorkers,
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.cacheSize > 0 {
		cache, err := lru.New[string, *PackageStubs](g.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create stub cache: %w", err)
		}
		g.cache = cache
	}

	return g, nil
}

// Namespace returns the namespace token used for every package.
func (g *Generator) Namespace() string { return g.assembler.Namespace() }

// GeneratePackage builds the graph for m and assembles its stubs.
func (g *Generator) GeneratePackage(ctx context.Context, m ir.PackageManifest) (*PackageStubs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := ir.ManifestHash(m)
	if err != nil {
		return nil, &PackageError{PackageID: m.PackageID, Err: err}
	}

	cacheKey := g.assembler.Namespace() + "\x00" + hash
	if g.cache != nil {
		if cached, ok := g.cache.Get(cacheKey); ok {
			g.logger.Debug("stub cache hit", "package", m.PackageID, "manifest_hash", hash)
			return cached, nil
		}
	}

	pkg, err := pkggraph.Build(m)
	if err != nil {
		return nil, &PackageError{PackageID: m.PackageID, Err: err}
	}

	stubs, err := g.assembler.AssemblePackage(pkg)
	if err != nil {
		return nil, &PackageError{PackageID: m.PackageID, Err: err}
	}
	stubs.ManifestHash = hash

	if g.cache != nil {
		g.cache.Add(cacheKey, stubs)
	}

	g.logger.Debug("package assembled",
		"package", m.PackageID,
		"files", pkg.Len(),
		"stubs", len(stubs.Stubs),
	)
	return stubs, nil
}

// Generate assembles every manifest, at most the configured number at once.
//
// Results are returned in input order. The first failing package cancels the
// remaining work and its error is returned; no partial results are returned.
func (g *Generator) Generate(ctx context.Context, manifests []ir.PackageManifest) ([]*PackageStubs, error) {
	results := make([]*PackageStubs, len(manifests))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)

	for i, m := range manifests {
		group.Go(func() error {
			stubs, err := g.GeneratePackage(gctx, m)
			if err != nil {
				return err
			}
			results[i] = stubs
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		g.logger.Error("stub generation failed", "error", err)
		return nil, err
	}

	g.logger.Info("stubs generated", "packages", len(manifests))
	return results, nil
}

// PackageError attributes a generation failure to a package.
type PackageError struct {
	PackageID string
	Err       error
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	return fmt.Sprintf("package %s: %v", e.PackageID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PackageError) Unwrap() error {
	return e.Err
}
