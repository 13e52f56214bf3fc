// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"context"
)

// ResultFormat identifies the serialization of a stored results blob.
type ResultFormat string

const (
	ResultFormatJSON  ResultFormat = "json"
	ResultFormatSARIF ResultFormat = "sarif"
)

// Ext returns the object key extension for the format.
func (f ResultFormat) Ext() string {
	return string(f)
}

// IsValid reports whether the format is one of the supported values.
func (f ResultFormat) IsValid() bool {
	return f == ResultFormatJSON || f == ResultFormatSARIF
}

// ObjectStore is the storage surface used by the submission pipeline and
// the worker activities. Implementations persist opaque target blobs and
// JSON/SARIF result documents, and maintain a bounded local download cache.
type ObjectStore interface {
	// EnsureBucket verifies the backing bucket exists, creating it when absent.
	EnsureBucket(ctx context.Context) error

	// UploadTarget uploads a local file under a fresh target id and
	// returns that id.
	UploadTarget(ctx context.Context, req *UploadTargetRequest) (string, error)

	// GetTarget returns a local filesystem path holding the target blob,
	// downloading it into the cache on a miss.
	GetTarget(ctx context.Context, targetID string) (string, error)

	// DeleteTarget removes the remote object and any cached copy.
	// Absence on either side is not an error.
	DeleteTarget(ctx context.Context, targetID string) error

	// UploadResults stores a results blob for a run and returns a
	// presigned download URL.
	UploadResults(ctx context.Context, runID string, blob []byte, format ResultFormat) (string, error)

	// GetResults retrieves the results blob for a run.
	GetResults(ctx context.Context, runID string) ([]byte, error)

	// CleanupCache evicts least-recently-used cache entries until the
	// cache is under its size budget. Returns the number of entries removed.
	CleanupCache(ctx context.Context) (int, error)

	// CacheStats reports the current cache occupancy.
	CacheStats() (*CacheStats, error)
}

// UploadTargetRequest describes a target blob upload.
type UploadTargetRequest struct {
	// LocalPath is the file to upload. Must exist.
	LocalPath string

	// Owner identifies who submitted the target.
	Owner string

	// Workflow optionally records the workflow the target was uploaded for.
	Workflow string

	// OriginalFilename preserves the client-side filename when the upload
	// came through the HTTP surface.
	OriginalFilename string

	// UploadMethod records the submission channel, e.g. "multipart".
	UploadMethod string

	// Metadata carries arbitrary extra key/value pairs. Reserved keys set
	// by the store take precedence.
	Metadata map[string]string
}

// CacheStats reports the occupancy of the local download cache.
type CacheStats struct {
	Bytes         int64   `json:"bytes"`
	FileCount     int64   `json:"file_count"`
	CapBytes      int64   `json:"cap_bytes"`
	UsageFraction float64 `json:"usage_fraction"`
}
