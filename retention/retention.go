// Package retention enforces the per-project cap on historical sync-log
// records: the most recent keep-count records survive, everything older is
// deleted in bounded batches so a large backlog never turns into one
// unbounded delete.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devgate/swagsync/synclog"
)

// Defaults applied when the corresponding Cleaner field is zero.
const (
	DefaultKeep       = 20
	DefaultBatchSize  = 500
	DefaultMaxBatches = 100
)

// Report summarizes a CleanupAll run.
type Report struct {
	DeletedTotal     int            `json:"deletedTotal"`
	DeletedByProject map[string]int `json:"deletedByProject"`
}

// Cleaner deletes sync-log records beyond the retention cap.
//
// Concurrent cleanups of the same project (timer plus manual trigger) may
// select overlapping batches; that is tolerated because deleting an
// already-deleted record is a no-op in the store.
type Cleaner struct {
	Store synclog.Store
	// Keep is how many most-recent records survive per project.
	Keep int
	// BatchSize bounds each delete pass.
	BatchSize int
	// MaxBatches caps the number of delete passes per project per run.
	MaxBatches int
	Logger     *slog.Logger
}

// NewCleaner creates a Cleaner with defaults filled in.
func NewCleaner(store synclog.Store) *Cleaner {
	return &Cleaner{
		Store:      store,
		Keep:       DefaultKeep,
		BatchSize:  DefaultBatchSize,
		MaxBatches: DefaultMaxBatches,
		Logger:     slog.Default(),
	}
}

// CleanupProject deletes a project's records beyond the keep most-recent
// ones and returns how many were deleted. A non-positive keep falls back to
// the cleaner's configured value. Projects at or under the cap are untouched.
func (c *Cleaner) CleanupProject(ctx context.Context, projectID string, keep int) (int, error) {
	if keep <= 0 {
		keep = c.keep()
	}

	count, err := c.Store.CountProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("retention: counting records for project %s: %w", projectID, err)
	}
	if count <= keep {
		return 0, nil
	}

	// The cutoff is the Nth most recent record; everything strictly older
	// goes away.
	cutoff, err := c.Store.NthMostRecent(ctx, projectID, keep)
	if err != nil {
		return 0, fmt.Errorf("retention: finding cutoff for project %s: %w", projectID, err)
	}
	if cutoff == nil {
		return 0, nil
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxBatches := c.MaxBatches
	if maxBatches <= 0 {
		maxBatches = DefaultMaxBatches
	}

	total := 0
	for i := 0; i < maxBatches; i++ {
		deleted, err := c.Store.DeleteOlderThan(ctx, projectID, *cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("retention: deleting batch for project %s: %w", projectID, err)
		}
		total += deleted
		if deleted < batchSize {
			return total, nil
		}
	}

	c.logger().Warn("retention hit max batch count, leaving remainder for next run",
		"project_id", projectID, "deleted", total, "max_batches", maxBatches)
	return total, nil
}

// CleanupAll applies the per-project cleanup to every project that has
// records. One failing project does not stop the sweep; its error is logged
// and the last one is returned alongside the partial report.
func (c *Cleaner) CleanupAll(ctx context.Context, keep int) (Report, error) {
	report := Report{DeletedByProject: make(map[string]int)}

	ids, err := c.Store.ProjectIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("retention: listing projects: %w", err)
	}

	var lastErr error
	for _, id := range ids {
		deleted, err := c.CleanupProject(ctx, id, keep)
		if err != nil {
			c.logger().Error("project cleanup failed", "project_id", id, "error", err)
			lastErr = err
			continue
		}
		if deleted > 0 {
			report.DeletedByProject[id] = deleted
			report.DeletedTotal += deleted
		}
	}
	return report, lastErr
}

// RunPeriodic sweeps every project on a fixed interval until ctx is
// cancelled. A failing sweep is logged and the loop keeps going; retention
// is advisory and must never take the process down. Blocks, so run it on
// its own goroutine.
func (c *Cleaner) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger().Info("periodic log cleanup started", "interval", interval, "keep", c.keep())
	for {
		select {
		case <-ctx.Done():
			c.logger().Info("periodic log cleanup stopped")
			return
		case <-ticker.C:
			report, err := c.CleanupAll(ctx, c.keep())
			if err != nil {
				c.logger().Error("periodic log cleanup sweep failed", "error", err)
			}
			if report.DeletedTotal > 0 {
				c.logger().Info("periodic log cleanup deleted records",
					"deleted", report.DeletedTotal, "projects", len(report.DeletedByProject))
			}
		}
	}
}

func (c *Cleaner) keep() int {
	if c.Keep > 0 {
		return c.Keep
	}
	return DefaultKeep
}

func (c *Cleaner) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
