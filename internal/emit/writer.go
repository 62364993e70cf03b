// Package emit writes generated stubs to disk.
package emit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/stubgen/internal/stub"
)

// GitignoreContent keeps generated output out of version control.
const GitignoreContent = "/**"

// ErrUnsafePath is returned for module paths that would escape the output root.
var ErrUnsafePath = errors.New("unsafe module path")

// Writer places stubs below a root directory as <root>/<package dir>/<file path>.
type Writer struct {
	root      string
	bundleExt string
	clean     bool
	logger    *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithBundleExtension appends "."+ext to every emitted file name, marking it
// as a temporary bundle file for downstream compilers. Empty disables it.
// The separating dot is added here, so ext is given without one
// ("_vite-bundle.tmp" yields "index.js._vite-bundle.tmp").
func WithBundleExtension(ext string) Option {
	return func(w *Writer) {
		w.bundleExt = ext
	}
}

// WithClean removes a package's previous output before writing it.
func WithClean(clean bool) Option {
	return func(w *Writer) {
		w.clean = clean
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = l
	}
}

// NewWriter creates a Writer rooted at root.
func NewWriter(root string, opts ...Option) *Writer {
	w := &Writer{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the output root directory.
func (w *Writer) Root() string { return w.root }

// Result describes the files written for one package.
type Result struct {
	PackageID string   `json:"package_id"`
	Dir       string   `json:"dir"`
	Files     []string `json:"files"`
	Bytes     int      `json:"bytes"`
	// Stale lists module paths found in the package directory that this
	// write did not produce. Always empty with WithClean.
	Stale []string `json:"stale,omitempty"`
}

// Prepare creates the output root and its .gitignore.
func (w *Writer) Prepare() error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.root, ".gitignore"), []byte(GitignoreContent), 0o644); err != nil {
		return fmt.Errorf("write .gitignore: %w", err)
	}
	return nil
}

// PackageDir maps a package id to its directory name below the root.
// Colons are not portable in file names and become underscores.
func PackageDir(packageID string) string {
	return strings.ReplaceAll(packageID, ":", "_")
}

// WritePackage writes every stub of a package.
// Module paths use forward slashes and are converted to the host separator.
func (w *Writer) WritePackage(ctx context.Context, stubs *stub.PackageStubs) (*Result, error) {
	pkgDir, err := safeJoin(w.root, PackageDir(stubs.Identity.PackageID))
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", stubs.Identity.PackageID, err)
	}

	if w.clean {
		if err := os.RemoveAll(pkgDir); err != nil {
			return nil, fmt.Errorf("clean %s: %w", pkgDir, err)
		}
	}

	result := &Result{
		PackageID: stubs.Identity.PackageID,
		Dir:       pkgDir,
		Files:     []string{},
	}

	written := make(map[string]bool, len(stubs.Stubs))
	for _, s := range stubs.Stubs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := s.Path
		if w.bundleExt != "" {
			name += "." + w.bundleExt
		}
		written[path.Clean(name)] = true

		target, err := safeJoin(pkgDir, name)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", stubs.Identity.PackageID, err)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create dir for %s: %w", s.Path, err)
		}
		if err := os.WriteFile(target, []byte(s.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write stub %s: %w", s.Path, err)
		}

		result.Files = append(result.Files, target)
		result.Bytes += len(s.Content)
	}

	if !w.clean {
		names, err := emittedNames(pkgDir)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", stubs.Identity.PackageID, err)
		}
		for _, name := range names {
			if !written[name] {
				result.Stale = append(result.Stale, TrimBundleExtension(name, w.bundleExt))
			}
		}
		if len(result.Stale) > 0 {
			w.logger.Warn("stale stubs left in place", "package", stubs.Identity.PackageID, "files", result.Stale)
		}
	}

	w.logger.Debug("package stubs written",
		"package", stubs.Identity.PackageID,
		"dir", pkgDir,
		"files", len(result.Files),
	)
	return result, nil
}

// emittedNames returns the files below dir as sorted forward-slash paths.
func emittedNames(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	slices.Sort(names)
	return names, nil
}

// safeJoin joins a forward-slash relative path onto dir, refusing absolute
// paths and paths that climb out of dir.
func safeJoin(dir, rel string) (string, error) {
	if rel == "" || path.IsAbs(rel) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	cleaned := path.Clean(rel)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	return filepath.Join(dir, filepath.FromSlash(cleaned)), nil
}

// TrimBundleExtension strips the temporary bundle extension added by
// WithBundleExtension, returning name unchanged when it is absent.
func TrimBundleExtension(name, ext string) string {
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, "."+ext)
}
