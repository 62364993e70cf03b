package store

import (
	"context"
	"fmt"

	"github.com/roach88/stubgen/internal/ir"
	"github.com/roach88/stubgen/internal/stub"
)

// Run is one recorded generation run.
type Run struct {
	ID            string       `json:"id"`
	Seq           int64        `json:"seq"`
	Namespace     string       `json:"namespace"`
	EngineVersion string       `json:"engine_version"`
	Packages      []RunPackage `json:"packages"`
}

// RunPackage is a package generated within a run.
type RunPackage struct {
	PackageID      string `json:"package_id"`
	Name           string `json:"name"`
	MainModulePath string `json:"main_module_path"`
	ManifestHash   string `json:"manifest_hash"`
	StubCount      int    `json:"stub_count"`
}

// StoredStub is one stub file as recorded in a run.
type StoredStub struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	ContentHash string `json:"content_hash"`
}

// WriteRun records the output of one generation run.
//
// The run receives the next seq value and an id from the store's
// RunIDGenerator. Everything is written in a single transaction: if any
// insert fails (for example the same package twice) nothing is recorded.
func (s *Store) WriteRun(ctx context.Context, namespace string, packages []*stub.PackageStubs) (*Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("write run: next seq: %w", err)
	}

	run := &Run{
		ID:            s.runID.Generate(),
		Seq:           seq,
		Namespace:     namespace,
		EngineVersion: ir.EngineVersion,
		Packages:      make([]RunPackage, 0, len(packages)),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, namespace, engine_version)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Seq, run.Namespace, run.EngineVersion)
	if err != nil {
		return nil, fmt.Errorf("write run: insert run: %w", err)
	}

	for _, pkg := range packages {
		id := pkg.Identity

		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_packages (run_id, package_id, name, main_module_path, manifest_hash)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, id.PackageID, id.Name, id.MainModulePath, pkg.ManifestHash)
		if err != nil {
			return nil, fmt.Errorf("write run: insert package %s: %w", id.PackageID, err)
		}

		for _, st := range pkg.Stubs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO run_stubs (run_id, package_id, path, content, content_hash)
				VALUES (?, ?, ?, ?, ?)
			`, run.ID, id.PackageID, st.Path, st.Content, st.Hash())
			if err != nil {
				return nil, fmt.Errorf("write run: insert stub %s/%s: %w", id.PackageID, st.Path, err)
			}
		}

		run.Packages = append(run.Packages, RunPackage{
			PackageID:      id.PackageID,
			Name:           id.Name,
			MainModulePath: id.MainModulePath,
			ManifestHash:   pkg.ManifestHash,
			StubCount:      len(pkg.Stubs),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("write run: commit: %w", err)
	}

	return run, nil
}
