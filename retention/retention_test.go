package retention

import (
	"context"
	"testing"
	"time"

	"github.com/devgate/swagsync/synclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T, store synclog.Store, projectID string, n int) {
	t.Helper()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := store.Append(context.Background(), synclog.Record{
			ProjectID: projectID,
			Status:    synclog.StatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestCleanupProjectUnderCap(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", 5)

	cleaner := NewCleaner(store)
	deleted, err := cleaner.CleanupProject(context.Background(), "p1", 10)
	require.NoError(t, err)
	assert.Zero(t, deleted, "project at or under the cap must be untouched")

	count, err := store.CountProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCleanupProjectExactlyAtCap(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", 10)

	cleaner := NewCleaner(store)
	deleted, err := cleaner.CleanupProject(context.Background(), "p1", 10)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCleanupProjectKeepsMostRecent(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", 30)

	cleaner := NewCleaner(store)
	deleted, err := cleaner.CleanupProject(context.Background(), "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, 20, deleted)

	recs, err := store.ListProject(context.Background(), "p1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 10)

	// Survivors are the latest ten, minutes 20..29.
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(29*time.Minute), recs[0].CreatedAt)
	assert.Equal(t, base.Add(20*time.Minute), recs[len(recs)-1].CreatedAt)
}

func TestCleanupProjectBatching(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", 25)

	cleaner := NewCleaner(store)
	cleaner.BatchSize = 4
	deleted, err := cleaner.CleanupProject(context.Background(), "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 20, deleted)

	count, err := store.CountProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCleanupProjectMaxBatchesCap(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", 50)

	cleaner := NewCleaner(store)
	cleaner.BatchSize = 5
	cleaner.MaxBatches = 2
	deleted, err := cleaner.CleanupProject(context.Background(), "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, deleted, "deletion stops at the batch cap, remainder waits for the next run")
}

func TestCleanupProjectDefaultKeep(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", DefaultKeep+7)

	cleaner := NewCleaner(store)
	deleted, err := cleaner.CleanupProject(context.Background(), "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, deleted)
}

func TestCleanupAll(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "a", 15)
	seedProject(t, store, "b", 3)
	seedProject(t, store, "c", 12)

	cleaner := NewCleaner(store)
	report, err := cleaner.CleanupAll(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 7, report.DeletedTotal)
	assert.Equal(t, map[string]int{"a": 5, "c": 2}, report.DeletedByProject)
}

func TestRunPeriodicSweeps(t *testing.T) {
	store := synclog.NewMemStore()
	seedProject(t, store, "p1", 30)

	cleaner := NewCleaner(store)
	cleaner.Keep = 10

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		cleaner.RunPeriodic(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		count, err := store.CountProject(context.Background(), "p1")
		return err == nil && count == 10
	}, 2*time.Second, 5*time.Millisecond, "timer sweep never trimmed the backlog")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not stop on cancel")
	}
}

func TestRunPeriodicZeroIntervalReturns(t *testing.T) {
	cleaner := NewCleaner(synclog.NewMemStore())

	done := make(chan struct{})
	go func() {
		defer close(done)
		cleaner.RunPeriodic(context.Background(), 0)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero interval must disable the sweep loop")
	}
}
