package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
)

// ReadRun retrieves a run and its packages by id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, namespace, engine_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.Namespace, &run.EngineVersion)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Packages, err = s.readRunPackages(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns every recorded run with its packages, oldest first.
// Results are ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, namespace, engine_version
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Seq, &run.Namespace, &run.EngineVersion); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	// Release the single connection before the per-run package queries.
	rows.Close()

	for i := range runs {
		runs[i].Packages, err = s.readRunPackages(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return runs, nil
}

// readRunPackages returns the packages of a run ordered by package id.
func (s *Store) readRunPackages(ctx context.Context, runID string) ([]RunPackage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.package_id, p.name, p.main_module_path, p.manifest_hash,
			(SELECT COUNT(*) FROM run_stubs st
			 WHERE st.run_id = p.run_id AND st.package_id = p.package_id)
		FROM run_packages p
		WHERE p.run_id = ?
		ORDER BY p.package_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run packages: %w", err)
	}
	defer rows.Close()

	packages := []RunPackage{}
	for rows.Next() {
		var p RunPackage
		if err := rows.Scan(&p.PackageID, &p.Name, &p.MainModulePath, &p.ManifestHash, &p.StubCount); err != nil {
			return nil, fmt.Errorf("scan run package: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run packages: %w", err)
	}

	return packages, nil
}

// ReadStubs returns the stubs recorded for one package in one run.
// Results are ordered by path ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadStubs(ctx context.Context, runID, packageID string) ([]StoredStub, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, content, content_hash
		FROM run_stubs
		WHERE run_id = ? AND package_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, runID, packageID)
	if err != nil {
		return nil, fmt.Errorf("query stubs: %w", err)
	}
	defer rows.Close()

	stubs := []StoredStub{}
	for rows.Next() {
		var st StoredStub
		if err := rows.Scan(&st.Path, &st.Content, &st.ContentHash); err != nil {
			return nil, fmt.Errorf("scan stub: %w", err)
		}
		stubs = append(stubs, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stubs: %w", err)
	}

	return stubs, nil
}

// LatestManifestHash returns the manifest hash recorded for packageID by the
// most recent run that generated it. The boolean is false if no run did.
func (s *Store) LatestManifestHash(ctx context.Context, packageID string) (string, bool, error) {
	latest, ok, err := s.latestGeneration(ctx, packageID)
	return latest.manifestHash, ok, err
}

// generation is what the most recent run recorded for one package.
type generation struct {
	manifestHash string
	namespace    string
}

func (s *Store) latestGeneration(ctx context.Context, packageID string) (generation, bool, error) {
	var g generation
	err := s.db.QueryRowContext(ctx, `
		SELECT p.manifest_hash, r.namespace
		FROM run_packages p
		JOIN runs r ON r.id = p.run_id
		WHERE p.package_id = ?
		ORDER BY r.seq DESC
		LIMIT 1
	`, packageID).Scan(&g.manifestHash, &g.namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return generation{}, false, nil
	}
	if err != nil {
		return generation{}, false, fmt.Errorf("latest generation %s: %w", packageID, err)
	}
	return g, true, nil
}

// ChangedPackages reports which packages would get different stubs than the
// latest run that recorded them: the manifest hash differs or the run used
// another namespace. hashes is keyed by package id; unknown packages count
// as changed. The returned ids are sorted.
func (s *Store) ChangedPackages(ctx context.Context, namespace string, hashes map[string]string) ([]string, error) {
	var changed []string
	for id, hash := range hashes {
		prev, ok, err := s.latestGeneration(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok || prev.manifestHash != hash || prev.namespace != namespace {
			changed = append(changed, id)
		}
	}
	slices.Sort(changed)
	return changed, nil
}
