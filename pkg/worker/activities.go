// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"context"
	"os"
	"path/filepath"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/storage"
)

// Universal activity names. Every workflow entry, regardless of vertical,
// can schedule these by name.
const (
	ActivityGetTarget     = "get_target"
	ActivityCleanupCache  = "cleanup_cache"
	ActivityUploadResults = "upload_results"
)

const targetFileName = "target"

// Activities carries the universal activity implementations shared by all
// worker verticals: target staging, per-run workspace teardown and result
// publication.
type Activities struct {
	store storage.ObjectStore
	cache *storage.Cache
}

// NewActivities wires the activities onto a store and its download cache.
func NewActivities(store storage.ObjectStore, cache *storage.Cache) *Activities {
	return &Activities{store: store, cache: cache}
}

// GetTarget stages the target blob for a run and returns the local path
// the workflow should operate on. Shared mode hands back the cached blob
// directly; isolated and copy-on-write modes hand back a per-run copy.
func (a *Activities) GetTarget(ctx context.Context, targetID, runID, isolationMode string) (string, error) {
	mode, err := ParseIsolationMode(isolationMode)
	if err != nil {
		return "", errors.Wrap(err, errors.KindValidationError, "stage target").WithRunID(runID)
	}

	cached, err := a.store.GetTarget(ctx, targetID)
	if err != nil {
		return "", err
	}
	if mode == IsolationShared {
		return cached, nil
	}

	dst := filepath.Join(a.cache.IsolatedWorkspace(targetID, runID), targetFileName)
	if _, err := os.Stat(dst); err == nil {
		// Activity retry after a partial run: the copy is already staged.
		return dst, nil
	}
	if err := copyFile(cached, dst); err != nil {
		return "", errors.Wrap(err, errors.KindStorageError, "stage per-run target copy").WithRunID(runID)
	}
	log.Infof("Staged %s copy of target %s for run %s", mode, targetID, runID)
	return dst, nil
}

// CleanupCache tears down a run's staging. Shared mode leaves the cached
// blob for the janitor; isolated and copy-on-write modes remove the
// per-run directory.
func (a *Activities) CleanupCache(ctx context.Context, localPath, isolationMode string) error {
	mode, err := ParseIsolationMode(isolationMode)
	if err != nil {
		return errors.Wrap(err, errors.KindValidationError, "cleanup run staging")
	}
	if mode == IsolationShared {
		return nil
	}

	// localPath is <cache>/<target>/<run>/workspace/target; the run
	// directory is two levels up.
	runDir := filepath.Dir(filepath.Dir(localPath))
	if err := os.RemoveAll(runDir); err != nil {
		return errors.Wrap(err, errors.KindStorageError, "remove run workspace")
	}
	log.Debugf("Removed run workspace %s", runDir)
	return nil
}

// UploadResults publishes a run's findings blob and returns its download
// URL.
func (a *Activities) UploadResults(ctx context.Context, runID string, blob []byte, format string) (string, error) {
	rf := storage.ResultFormat(format)
	if !rf.IsValid() {
		return "", errors.Newf(errors.KindValidationError, "unsupported result format %q", format).WithRunID(runID)
	}
	return a.store.UploadResults(ctx, runID, blob, rf)
}
