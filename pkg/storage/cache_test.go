// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, c *Cache, targetID string, content []byte, accessedAt time.Time) string {
	t.Helper()
	path := c.TargetPath(targetID)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	require.NoError(t, os.Chtimes(path, accessedAt, accessedAt))
	return path
}

// ============================================================================
// NewCache Tests
// ============================================================================

func TestNewCache_EmptyRoot(t *testing.T) {
	cache, err := NewCache("", 100)
	assert.Error(t, err)
	assert.Nil(t, cache)
}

func TestNewCache_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")
	cache, err := NewCache(root, 100)
	require.NoError(t, err)

	fi, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, root, cache.Root())
}

func TestCache_Paths(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 100)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cache.Root(), "tid", "target"), cache.TargetPath("tid"))
	assert.Equal(t, filepath.Join(cache.Root(), "tid", "rid", "workspace"), cache.IsolatedWorkspace("tid", "rid"))
}

// ============================================================================
// Get Tests
// ============================================================================

func TestCache_Get_DownloadsOnMissHitsOnSecondCall(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 1<<20)
	require.NoError(t, err)

	content := []byte("target-bytes")
	var downloads atomic.Int32
	download := func(_ context.Context, dst string) error {
		downloads.Add(1)
		return os.WriteFile(dst, content, 0o644)
	}

	path, err := cache.Get(context.Background(), "t1", download)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, int32(1), downloads.Load())

	again, err := cache.Get(context.Background(), "t1", download)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, int32(1), downloads.Load(), "cache hit must not re-download")
}

func TestCache_Get_RemovesPartialDirOnFailure(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 1<<20)
	require.NoError(t, err)

	downloadErr := errors.New("connection reset")
	_, err = cache.Get(context.Background(), "t1", func(_ context.Context, dst string) error {
		require.NoError(t, os.WriteFile(dst, []byte("partial"), 0o644))
		return downloadErr
	})
	require.ErrorIs(t, err, downloadErr)

	_, statErr := os.Stat(filepath.Join(cache.Root(), "t1"))
	assert.True(t, os.IsNotExist(statErr), "partial target dir must be removed")
}

func TestCache_Get_SingleFlightPerTarget(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 1<<20)
	require.NoError(t, err)

	var downloads atomic.Int32
	download := func(_ context.Context, dst string) error {
		downloads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return os.WriteFile(dst, []byte("blob"), 0o644)
	}

	const callers = 8
	paths := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = cache.Get(context.Background(), "shared", download)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), downloads.Load(), "same target must download at most once")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, paths[0], paths[i])
	}
}

// ============================================================================
// Cleanup Tests
// ============================================================================

func TestCache_Cleanup_NoopUnderBudget(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 100)
	require.NoError(t, err)

	writeEntry(t, cache, "a", []byte("aaaa"), time.Now().Add(-time.Hour))

	removed, err := cache.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, statErr := os.Stat(cache.TargetPath("a"))
	assert.NoError(t, statErr)
}

func TestCache_Cleanup_EvictsOldestUntilUnderBudget(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 10)
	require.NoError(t, err)

	now := time.Now()
	writeEntry(t, cache, "a", []byte("aaaa"), now.Add(-3*time.Hour))
	writeEntry(t, cache, "b", []byte("bbbb"), now.Add(-2*time.Hour))
	writeEntry(t, cache, "c", []byte("cccc"), now.Add(-1*time.Hour))

	removed, err := cache.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, aErr := os.Stat(cache.TargetPath("a"))
	assert.True(t, os.IsNotExist(aErr), "oldest entry must be evicted")
	_, bErr := os.Stat(cache.TargetPath("b"))
	assert.NoError(t, bErr)
	_, cErr := os.Stat(cache.TargetPath("c"))
	assert.NoError(t, cErr)

	_, dirErr := os.Stat(filepath.Join(cache.Root(), "a"))
	assert.True(t, os.IsNotExist(dirErr), "evicted target dir must be pruned")
}

func TestCache_Cleanup_TouchKeepsEntryAlive(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 10)
	require.NoError(t, err)

	now := time.Now()
	writeEntry(t, cache, "a", []byte("aaaa"), now.Add(-3*time.Hour))
	writeEntry(t, cache, "b", []byte("bbbb"), now.Add(-2*time.Hour))
	writeEntry(t, cache, "c", []byte("cccc"), now.Add(-1*time.Hour))

	// A cache hit re-touches the entry, making b the eviction candidate.
	path, err := cache.Get(context.Background(), "a", func(context.Context, string) error {
		t.Fatal("unexpected download for cached target")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, cache.TargetPath("a"), path)

	removed, err := cache.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, aErr := os.Stat(cache.TargetPath("a"))
	assert.NoError(t, aErr)
	_, bErr := os.Stat(cache.TargetPath("b"))
	assert.True(t, os.IsNotExist(bErr))
}

func TestCache_Cleanup_SparesEntriesTouchedAfterSweepStart(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 2)
	require.NoError(t, err)

	now := time.Now()
	writeEntry(t, cache, "old", []byte("bbbb"), now.Add(-2*time.Hour))
	// Access time ahead of the sweep snapshot, as if a reader touched the
	// entry while the sweep was running.
	writeEntry(t, cache, "busy", []byte("aaaa"), now.Add(time.Hour))

	removed, err := cache.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, oldErr := os.Stat(cache.TargetPath("old"))
	assert.True(t, os.IsNotExist(oldErr))
	_, busyErr := os.Stat(cache.TargetPath("busy"))
	assert.NoError(t, busyErr, "entry touched after sweep start must survive")
}

func TestCache_Remove_AbsentTargetIsNotAnError(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 100)
	require.NoError(t, err)
	assert.NoError(t, cache.Remove("never-downloaded"))
}

// ============================================================================
// Stats Tests
// ============================================================================

func TestCache_Stats(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 16)
	require.NoError(t, err)

	now := time.Now()
	writeEntry(t, cache, "a", []byte("aaaa"), now.Add(-2*time.Hour))
	writeEntry(t, cache, "b", []byte("bbbb"), now.Add(-1*time.Hour))

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.Bytes)
	assert.Equal(t, int64(2), stats.FileCount)
	assert.Equal(t, int64(16), stats.CapBytes)
	assert.InDelta(t, 0.5, stats.UsageFraction, 0.001)
}

func TestCache_Stats_EmptyCache(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 16)
	require.NoError(t, err)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Bytes)
	assert.Zero(t, stats.FileCount)
	assert.Zero(t, stats.UsageFraction)
}
