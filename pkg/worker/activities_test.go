// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/storage"
)

// fakeStore materialises targets into the cache like the real store would,
// without touching a remote.
type fakeStore struct {
	cache   *storage.Cache
	content map[string][]byte

	uploadedRuns map[string]storage.ResultFormat
}

func newFakeStore(cache *storage.Cache) *fakeStore {
	return &fakeStore{
		cache:        cache,
		content:      make(map[string][]byte),
		uploadedRuns: make(map[string]storage.ResultFormat),
	}
}

func (f *fakeStore) EnsureBucket(ctx context.Context) error { return nil }

func (f *fakeStore) UploadTarget(ctx context.Context, req *storage.UploadTargetRequest) (string, error) {
	return "", nil
}

func (f *fakeStore) GetTarget(ctx context.Context, targetID string) (string, error) {
	blob, ok := f.content[targetID]
	if !ok {
		return "", errors.Newf(errors.KindNotFound, "target %s not found", targetID)
	}
	return f.cache.Get(ctx, targetID, func(ctx context.Context, dst string) error {
		return os.WriteFile(dst, blob, 0o644)
	})
}

func (f *fakeStore) DeleteTarget(ctx context.Context, targetID string) error { return nil }

func (f *fakeStore) UploadResults(ctx context.Context, runID string, blob []byte, format storage.ResultFormat) (string, error) {
	f.uploadedRuns[runID] = format
	return "https://store.example/results/" + runID, nil
}

func (f *fakeStore) GetResults(ctx context.Context, runID string) ([]byte, error) { return nil, nil }

func (f *fakeStore) CleanupCache(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeStore) CacheStats() (*storage.CacheStats, error) { return &storage.CacheStats{}, nil }

func newTestActivities(t *testing.T) (*Activities, *fakeStore, *storage.Cache) {
	t.Helper()
	cache, err := storage.NewCache(t.TempDir(), 1<<20)
	require.NoError(t, err)
	store := newFakeStore(cache)
	return NewActivities(store, cache), store, cache
}

// ===== isolation modes =====

func TestParseIsolationMode(t *testing.T) {
	tests := []struct {
		in      string
		want    IsolationMode
		wantErr bool
	}{
		{in: "", want: IsolationShared},
		{in: "shared", want: IsolationShared},
		{in: "isolated", want: IsolationIsolated},
		{in: "copy-on-write", want: IsolationCopyOnWrite},
		{in: "Shared", wantErr: true},
		{in: "cow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("mode_"+tt.in, func(t *testing.T) {
			got, err := ParseIsolationMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ===== get_target =====

func TestGetTargetShared(t *testing.T) {
	acts, store, cache := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	path, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "shared")
	require.NoError(t, err)
	assert.Equal(t, cache.TargetPath("tgt-1"), path)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), blob)
}

func TestGetTargetIsolatedCopies(t *testing.T) {
	acts, store, cache := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	path, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "isolated")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache.IsolatedWorkspace("tgt-1", "run-1"), "target"), path)
	assert.NotEqual(t, cache.TargetPath("tgt-1"), path)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), blob)

	// The shared cached copy stays alongside the per-run copy.
	_, err = os.Stat(cache.TargetPath("tgt-1"))
	assert.NoError(t, err)
}

func TestGetTargetIsolatedReusesStagedCopy(t *testing.T) {
	acts, store, _ := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	first, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "isolated")
	require.NoError(t, err)
	// Mutate the staged copy; a retried activity must not clobber it.
	require.NoError(t, os.WriteFile(first, []byte("mutated"), 0o644))

	second, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "isolated")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	blob, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("mutated"), blob)
}

func TestGetTargetRunsDoNotShareIsolatedCopies(t *testing.T) {
	acts, store, _ := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	p1, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "isolated")
	require.NoError(t, err)
	p2, err := acts.GetTarget(context.Background(), "tgt-1", "run-2", "copy-on-write")
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestGetTargetUnknownMode(t *testing.T) {
	acts, store, _ := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	_, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "exclusive")
	assert.True(t, errors.IsKind(err, errors.KindValidationError))
}

func TestGetTargetMissing(t *testing.T) {
	acts, _, _ := newTestActivities(t)

	_, err := acts.GetTarget(context.Background(), "nope", "run-1", "shared")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

// ===== cleanup_cache =====

func TestCleanupCacheSharedIsNoop(t *testing.T) {
	acts, store, cache := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	path, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "shared")
	require.NoError(t, err)

	require.NoError(t, acts.CleanupCache(context.Background(), path, "shared"))
	_, err = os.Stat(cache.TargetPath("tgt-1"))
	assert.NoError(t, err)
}

func TestCleanupCacheIsolatedRemovesRunDir(t *testing.T) {
	acts, store, cache := newTestActivities(t)
	store.content["tgt-1"] = []byte("payload")

	path, err := acts.GetTarget(context.Background(), "tgt-1", "run-1", "isolated")
	require.NoError(t, err)

	require.NoError(t, acts.CleanupCache(context.Background(), path, "isolated"))
	_, err = os.Stat(filepath.Dir(filepath.Dir(path)))
	assert.True(t, os.IsNotExist(err))

	// The shared download survives the per-run teardown.
	_, err = os.Stat(cache.TargetPath("tgt-1"))
	assert.NoError(t, err)
}

// ===== upload_results =====

func TestUploadResults(t *testing.T) {
	acts, store, _ := newTestActivities(t)

	url, err := acts.UploadResults(context.Background(), "run-1", []byte(`{"findings":[]}`), "sarif")
	require.NoError(t, err)
	assert.Equal(t, "https://store.example/results/run-1", url)
	assert.Equal(t, storage.ResultFormatSARIF, store.uploadedRuns["run-1"])
}

func TestUploadResultsRejectsUnknownFormat(t *testing.T) {
	acts, store, _ := newTestActivities(t)

	_, err := acts.UploadResults(context.Background(), "run-1", []byte("x"), "xml")
	assert.True(t, errors.IsKind(err, errors.KindValidationError))
	assert.Empty(t, store.uploadedRuns)
}

// ===== copy helper =====

func TestCopyFilePreservesContentsAndMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))

	dst := filepath.Join(dir, "nested", "deeply", "dst")
	require.NoError(t, copyFile(src, dst))

	blob, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), blob)

	fi, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}
