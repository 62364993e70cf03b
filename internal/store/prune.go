package store

import (
	"context"
	"fmt"
)

// PruneRuns deletes all but the keep most recent runs, together with their
// packages and stubs. It returns the number of runs deleted.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune runs: keep must be non-negative, got %d", keep)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE seq NOT IN (
			SELECT seq FROM runs ORDER BY seq DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if n > 0 {
		s.logger.Info("history pruned", "deleted", n, "kept", keep)
	}
	return n, nil
}
