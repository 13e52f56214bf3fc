// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

const (
	targetPrefix  = "targets"
	resultsPrefix = "results"

	noSuchKeyCode = "NoSuchKey"

	// resultURLExpiry bounds presigned result download links.
	resultURLExpiry = 7 * 24 * time.Hour
)

// MinioStore implements ObjectStore against a MinIO/S3 endpoint, fronted
// by a local LRU download cache.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
	cache  *Cache
}

// NewMinioStore builds the store from configuration. Construction is
// offline; EnsureBucket performs the first round trip.
func NewMinioStore(cfg *config.S3Config, cache *Cache) (*MinioStore, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindStorageError, "object store config is nil")
	}
	client, err := minio.New(cfg.GetEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.IsSSLEnabled(),
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindStorageError, "create object store client")
	}
	log.Infof("Initialized object store: endpoint=%s, bucket=%s, ssl=%v",
		cfg.GetEndpoint(), cfg.GetBucket(), cfg.IsSSLEnabled())
	return &MinioStore{
		client: client,
		bucket: cfg.GetBucket(),
		region: cfg.Region,
		cache:  cache,
	}, nil
}

// EnsureBucket verifies the configured bucket exists, creating it when absent.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("check bucket %q", s.bucket))
	}
	if exists {
		return nil
	}
	log.Warnf("Bucket %q does not exist, creating it", s.bucket)
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("create bucket %q", s.bucket))
	}
	log.Infof("Created bucket %q", s.bucket)
	return nil
}

// UploadTarget uploads a local file under a fresh target id. The object
// carries the owner, original filename, size and upload time as user
// metadata so the handle can be reconstructed from the object alone.
func (s *MinioStore) UploadTarget(ctx context.Context, req *UploadTargetRequest) (string, error) {
	fi, err := os.Stat(req.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.KindNotFound, "target file %s does not exist", req.LocalPath)
		}
		return "", errors.Wrap(err, errors.KindStorageError, "stat target file")
	}

	targetID := uuid.New().String()
	meta := map[string]string{
		"owner":       req.Owner,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		"filename":    filepath.Base(req.LocalPath),
		"size":        strconv.FormatInt(fi.Size(), 10),
	}
	if req.Workflow != "" {
		meta["workflow"] = req.Workflow
	}
	if req.OriginalFilename != "" {
		meta["original_filename"] = req.OriginalFilename
	}
	if req.UploadMethod != "" {
		meta["upload_method"] = req.UploadMethod
	}
	for k, v := range req.Metadata {
		if _, reserved := meta[k]; !reserved {
			meta[k] = v
		}
	}

	key := targetKey(targetID)
	info, err := s.client.FPutObject(ctx, s.bucket, key, req.LocalPath, minio.PutObjectOptions{
		ContentType:  "application/octet-stream",
		UserMetadata: meta,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.KindStorageError, "upload target")
	}

	log.Infof("Uploaded target %s: key=%s, size=%d, etag=%s", targetID, key, info.Size, info.ETag)
	return targetID, nil
}

// GetTarget returns a local path for the target blob, downloading into the
// cache on a miss.
func (s *MinioStore) GetTarget(ctx context.Context, targetID string) (string, error) {
	path, err := s.cache.Get(ctx, targetID, func(ctx context.Context, dst string) error {
		key := targetKey(targetID)
		if err := s.client.FGetObject(ctx, s.bucket, key, dst, minio.GetObjectOptions{}); err != nil {
			if minio.ToErrorResponse(err).Code == noSuchKeyCode {
				return errors.Newf(errors.KindNotFound, "target %s not found", targetID)
			}
			return errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("download target %s", targetID))
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsError(err); ok {
			return "", err
		}
		return "", errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("cache target %s", targetID))
	}
	return path, nil
}

// DeleteTarget removes the remote object and any cached copy. Absence on
// either side is not an error.
func (s *MinioStore) DeleteTarget(ctx context.Context, targetID string) error {
	key := targetKey(targetID)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code != noSuchKeyCode {
			return errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("delete target %s", targetID))
		}
	}
	if err := s.cache.Remove(targetID); err != nil {
		log.Warnf("Failed to drop cached copy of target %s: %v", targetID, err)
	}
	log.Infof("Deleted target %s", targetID)
	return nil
}

// UploadResults stores a results blob for a run and returns a presigned
// download URL valid for seven days.
func (s *MinioStore) UploadResults(ctx context.Context, runID string, blob []byte, format ResultFormat) (string, error) {
	if !format.IsValid() {
		return "", errors.Newf(errors.KindValidationError, "unsupported results format %q", format)
	}

	key := resultsKey(runID, format)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(blob), int64(len(blob)), minio.PutObjectOptions{
		ContentType: resultContentType(format),
		UserMetadata: map[string]string{
			"run_id":      runID,
			"format":      string(format),
			"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.KindStorageError, "upload results").WithRunID(runID)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, resultURLExpiry, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, errors.KindStorageError, "presign results URL").WithRunID(runID)
	}

	log.Infof("Uploaded results for run %s: key=%s, size=%d", runID, key, len(blob))
	return presigned.String(), nil
}

// GetResults retrieves the results blob for a run, probing the SARIF key
// first and falling back to JSON.
func (s *MinioStore) GetResults(ctx context.Context, runID string) ([]byte, error) {
	for _, format := range []ResultFormat{ResultFormatSARIF, ResultFormatJSON} {
		blob, err := s.getObject(ctx, resultsKey(runID, format))
		if err == nil {
			return blob, nil
		}
		if !errors.IsKind(err, errors.KindNotFound) {
			return nil, err
		}
	}
	return nil, errors.Newf(errors.KindNotFound, "no results stored for run %s", runID).WithRunID(runID)
}

// CleanupCache evicts least-recently-used cache entries until the cache is
// under budget.
func (s *MinioStore) CleanupCache(ctx context.Context) (int, error) {
	removed, err := s.cache.Cleanup(ctx)
	if err != nil {
		return removed, errors.Wrap(err, errors.KindStorageError, "cleanup cache")
	}
	return removed, nil
}

// CacheStats reports current cache occupancy.
func (s *MinioStore) CacheStats() (*CacheStats, error) {
	stats, err := s.cache.Stats()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindStorageError, "read cache stats")
	}
	return stats, nil
}

func (s *MinioStore) getObject(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("get object %s", key))
	}
	defer object.Close()

	if _, err := object.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == noSuchKeyCode {
			return nil, errors.Newf(errors.KindNotFound, "object %s not found", key)
		}
		return nil, errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("stat object %s", key))
	}

	blob, err := io.ReadAll(object)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindStorageError, fmt.Sprintf("read object %s", key))
	}
	return blob, nil
}

func targetKey(targetID string) string {
	return fmt.Sprintf("%s/%s/%s", targetPrefix, targetID, targetFileName)
}

func resultsKey(runID string, format ResultFormat) string {
	return fmt.Sprintf("%s/%s/results.%s", resultsPrefix, runID, format.Ext())
}

func resultContentType(format ResultFormat) string {
	if format == ResultFormatSARIF {
		return "application/sarif+json"
	}
	return "application/json"
}
