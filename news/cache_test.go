package news

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "news_cache.json"), testLogger())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	c := s.Load()
	assert.False(t, c.APIAvailable)
	assert.Empty(t, c.Events)
	assert.True(t, c.LastRefresh.IsZero())
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewFileStore(path, testLogger())
	c := s.Load()
	assert.False(t, c.APIAvailable)
	assert.Empty(t, c.Events)
}

func TestSaveOverwritesAndSorts(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	later := Event{Time: now.Add(3 * time.Hour), Title: "FOMC Statement", Impact: High}
	earlier := Event{Time: now.Add(time.Hour), Title: "Unemployment Claims", Impact: Medium}

	require.NoError(t, s.Save([]Event{later, earlier}, true, now))

	c := s.Load()
	require.Len(t, c.Events, 2)
	assert.Equal(t, "Unemployment Claims", c.Events[0].Title)
	assert.Equal(t, "FOMC Statement", c.Events[1].Title)
	assert.True(t, c.APIAvailable)
	assert.True(t, c.LastRefresh.Equal(now))

	// A second save replaces everything, never merges.
	require.NoError(t, s.Save(nil, false, now.Add(time.Hour)))
	c = s.Load()
	assert.Empty(t, c.Events)
	assert.False(t, c.APIAvailable)
}

func TestPruneDropsStaleEvents(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	stale := Event{Time: now.Add(-25 * time.Hour), Title: "Old GDP", Impact: High}
	fresh := Event{Time: now.Add(-time.Hour), Title: "CPI", Impact: High}
	require.NoError(t, s.Save([]Event{stale, fresh}, true, now))

	require.NoError(t, s.Prune(24*time.Hour, now))

	c := s.Load()
	require.Len(t, c.Events, 1)
	assert.Equal(t, "CPI", c.Events[0].Title)
	// Prune keeps the availability flag.
	assert.True(t, c.APIAvailable)
}

func TestPruneEmptyCacheIsNoop(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.NoError(t, s.Prune(24*time.Hour, time.Now()))
}

func TestEventKey(t *testing.T) {
	t.Parallel()

	ev := Event{
		Time:  time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
		Title: "US FOMC Statement",
	}
	assert.Equal(t, "2026-08-29 14:30:00_US FOMC Statement", ev.Key())
}
