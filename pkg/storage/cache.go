// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

const targetFileName = "target"

// DownloadFunc fetches a remote object into dst. It is invoked by the
// cache on a miss, with the per-target lock held.
type DownloadFunc func(ctx context.Context, dst string) error

// Cache is a bounded on-disk download cache keyed by target id. Recency is
// tracked through file access times: every hit re-touches the entry, and
// eviction removes files in ascending atime order until the cache is under
// its byte budget.
type Cache struct {
	root     string
	capBytes int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	sweepMu sync.Mutex
}

type cacheEntry struct {
	path  string
	size  int64
	atime time.Time
}

// NewCache creates the cache root if needed and returns a cache bounded to
// capBytes on disk.
func NewCache(root string, capBytes int64) (*Cache, error) {
	if root == "" {
		return nil, pkgerrors.New("cache root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, "create cache root")
	}
	return &Cache{
		root:     root,
		capBytes: capBytes,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// TargetPath returns the canonical cached location of a target blob.
func (c *Cache) TargetPath(targetID string) string {
	return filepath.Join(c.root, targetID, targetFileName)
}

// IsolatedWorkspace returns the per-run workspace directory used when a
// worker unpacks the same target separately for each run.
func (c *Cache) IsolatedWorkspace(targetID, runID string) string {
	return filepath.Join(c.root, targetID, runID, "workspace")
}

// Get returns a local path for the target, downloading on a miss. A hit
// refreshes the entry's access time. Concurrent calls for the same target
// serialize on a per-target lock so the blob is downloaded at most once;
// calls for different targets proceed independently.
func (c *Cache) Get(ctx context.Context, targetID string, download DownloadFunc) (string, error) {
	lock := c.lockFor(targetID)
	lock.Lock()
	defer lock.Unlock()

	path := c.TargetPath(targetID)
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		c.Touch(path)
		log.Debugf("Cache hit for target %s", targetID)
		return path, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pkgerrors.Wrapf(err, "create cache dir for target %s", targetID)
	}
	if err := download(ctx, path); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Warnf("Failed to remove partial cache dir %s: %v", dir, rmErr)
		}
		return "", err
	}
	c.Touch(path)
	log.Infof("Cached target %s at %s", targetID, path)

	c.sweepIfOverBudget(ctx)
	return path, nil
}

// Touch refreshes the access and modification times of a cache entry.
// Failures are non-fatal.
func (c *Cache) Touch(path string) {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		log.Debugf("Failed to touch cache entry %s: %v", path, err)
	}
}

// Remove deletes any cached copy of the target. Removing an absent entry
// is not an error.
func (c *Cache) Remove(targetID string) error {
	dir := filepath.Join(c.root, targetID)
	if err := os.RemoveAll(dir); err != nil {
		return pkgerrors.Wrapf(err, "remove cached target %s", targetID)
	}
	return nil
}

// Cleanup evicts entries in ascending access-time order until total cache
// size is within budget. Entries touched after the sweep snapshot was taken
// are spared. Per-file failures are logged and skipped; the return value is
// the number of files actually removed.
func (c *Cache) Cleanup(ctx context.Context) (int, error) {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	entries, total, err := c.scan()
	if err != nil {
		return 0, err
	}
	if total <= c.capBytes {
		return 0, nil
	}

	snapshotAt := time.Now()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].atime.Before(entries[j].atime)
	})

	removed := 0
	for _, entry := range entries {
		if total <= c.capBytes {
			break
		}
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		fi, statErr := os.Stat(entry.path)
		if statErr != nil {
			if !os.IsNotExist(statErr) {
				log.Warnf("Failed to stat cache entry %s: %v", entry.path, statErr)
			}
			continue
		}
		if fileAtime(fi).After(snapshotAt) {
			// Touched since the sweep started.
			continue
		}
		if rmErr := os.Remove(entry.path); rmErr != nil {
			log.Warnf("Failed to evict cache entry %s: %v", entry.path, rmErr)
			continue
		}
		total -= entry.size
		removed++
	}
	c.pruneEmptyDirs()

	if removed > 0 {
		log.Infof("Cache cleanup removed %d entries, %d bytes in use (cap %d)", removed, total, c.capBytes)
	}
	return removed, nil
}

// Stats reports current cache occupancy.
func (c *Cache) Stats() (*CacheStats, error) {
	entries, total, err := c.scan()
	if err != nil {
		return nil, err
	}
	stats := &CacheStats{
		Bytes:     total,
		FileCount: int64(len(entries)),
		CapBytes:  c.capBytes,
	}
	if c.capBytes > 0 {
		stats.UsageFraction = float64(total) / float64(c.capBytes)
	}
	return stats, nil
}

func (c *Cache) lockFor(targetID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[targetID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[targetID] = lock
	}
	return lock
}

// scan walks the cache tree collecting regular files. Unreadable entries
// are logged and skipped so one bad file never aborts a sweep.
func (c *Cache) scan() ([]cacheEntry, int64, error) {
	var entries []cacheEntry
	var total int64
	walkErr := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warnf("Cache scan error at %s: %v", path, err)
			}
			return nil
		}
		if d == nil || !d.Type().IsRegular() {
			return nil
		}
		fi, infoErr := d.Info()
		if infoErr != nil {
			log.Warnf("Failed to stat cache entry %s: %v", path, infoErr)
			return nil
		}
		entries = append(entries, cacheEntry{path: path, size: fi.Size(), atime: fileAtime(fi)})
		total += fi.Size()
		return nil
	})
	if walkErr != nil {
		return nil, 0, pkgerrors.Wrap(walkErr, "scan cache")
	}
	return entries, total, nil
}

// sweepIfOverBudget runs an inline cleanup after a download pushed the
// cache past its budget. The just-downloaded entry carries the newest
// access time, so it is the last eviction candidate.
func (c *Cache) sweepIfOverBudget(ctx context.Context) {
	stats, err := c.Stats()
	if err != nil || stats.Bytes <= c.capBytes {
		return
	}
	removed, err := c.Cleanup(ctx)
	if err != nil {
		log.Warnf("Cache sweep after download failed: %v", err)
		return
	}
	if removed > 0 {
		log.Infof("Cache over budget after download, evicted %d entries", removed)
	}
}

func (c *Cache) pruneEmptyDirs() {
	children, err := os.ReadDir(c.root)
	if err != nil {
		return
	}
	for _, child := range children {
		if child.IsDir() {
			pruneEmptyDir(filepath.Join(c.root, child.Name()))
		}
	}
}

func pruneEmptyDir(dir string) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, child := range children {
		if child.IsDir() {
			pruneEmptyDir(filepath.Join(dir, child.Name()))
		}
	}
	children, err = os.ReadDir(dir)
	if err != nil || len(children) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		log.Debugf("Failed to prune cache dir %s: %v", dir, err)
	}
}
