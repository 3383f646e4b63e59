package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coco-export/internal/timeutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigratesToLatest(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// already current
	require.NoError(t, s.MigrateUp())
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	run, err := s.RecordRun(context.Background(), Run{Labels: "rows.json", Images: 3})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Run(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Images)
}

func TestMigrateDown(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.MigrateDown())

	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = s.db.Exec(`SELECT COUNT(*) FROM export_run_categories`)
	assert.Error(t, err)
}

func TestRecordRunRoundTrip(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	s := openTestStore(t, WithClock(clock))
	ctx := context.Background()

	run, err := s.RecordRun(ctx, Run{
		Duration:       1500 * time.Millisecond,
		Labels:         "rows.json",
		Ontology:       "ontology.json",
		Results:        "coco.json",
		Images:         12,
		Annotations:    40,
		Categories:     3,
		CategoryCounts: map[string]int{"Car": 30, "Person": 10},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.True(t, run.StartedAt.Equal(epoch))

	got, err := s.Run(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(epoch))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, "ontology.json", got.Ontology)
	assert.Equal(t, 40, got.Annotations)
	assert.Equal(t, map[string]int{"Car": 30, "Person": 10}, got.CategoryCounts)
	assert.Empty(t, got.Error)
}

func TestRecordFailedRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.RecordRun(ctx, Run{ID: "failed-1", Error: "feature hash not found"})
	require.NoError(t, err)
	assert.Equal(t, "failed-1", run.ID)

	got, err := s.Run(ctx, "failed-1")
	require.NoError(t, err)
	assert.Equal(t, "feature hash not found", got.Error)
	assert.Empty(t, got.CategoryCounts)

	_, err = s.RecordRun(ctx, Run{ID: "failed-1"})
	assert.Error(t, err, "duplicate id")
}

func TestRunsNewestFirst(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	s := openTestStore(t, WithClock(clock))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.RecordRun(ctx, Run{Annotations: i})
		require.NoError(t, err)
		ids = append(ids, run.ID)
		clock.Advance(time.Minute)
	}

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
}

func TestRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}
