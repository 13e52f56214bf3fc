// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package clientsets holds the process-wide collaborators: engine client,
// object store, workflow registry, progress store and the bootstrap state
// machine. Handlers reach them through the getters; tests swap in fakes
// through the setters.
package clientsets

import (
	"context"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/bootstrap"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/engine"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/progress"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/registry"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/storage"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/submission"
)

var (
	engineClient  engine.Client
	objectStore   storage.ObjectStore
	downloadCache *storage.Cache
	workflowReg   *registry.Registry
	progressStore *progress.Store
	boot          *bootstrap.Bootstrap
	pipeline      *submission.Pipeline
)

// Init builds every collaborator from configuration. Construction is
// offline: the first round trips happen inside the bootstrap loop.
func Init(_ context.Context, cfg *config.Config) error {
	cache, err := storage.NewCache(cfg.Cache.GetDir(), cfg.Cache.GetMaxSizeBytes())
	if err != nil {
		return err
	}
	store, err := storage.NewMinioStore(&cfg.S3, cache)
	if err != nil {
		return err
	}
	eng, err := engine.NewTemporalClient(cfg.Temporal)
	if err != nil {
		return err
	}

	downloadCache = cache
	objectStore = store
	engineClient = eng
	workflowReg = registry.NewRegistry()
	progressStore = progress.NewStore()
	boot = bootstrap.New(eng, store, workflowReg, cfg.Workflows.GetDir(), cfg.Bootstrap)
	pipeline = submission.NewPipeline(workflowReg, store, eng, progressStore, cfg.Server.GetUploadMaxBytes())
	return nil
}

// Close releases long-lived connections.
func Close() {
	if engineClient != nil {
		engineClient.Close()
	}
}

func GetEngineClient() engine.Client      { return engineClient }
func GetObjectStore() storage.ObjectStore { return objectStore }
func GetDownloadCache() *storage.Cache    { return downloadCache }
func GetRegistry() *registry.Registry     { return workflowReg }
func GetProgressStore() *progress.Store   { return progressStore }
func GetBootstrap() *bootstrap.Bootstrap  { return boot }
func GetPipeline() *submission.Pipeline   { return pipeline }

func SetEngineClient(c engine.Client)      { engineClient = c }
func SetObjectStore(s storage.ObjectStore) { objectStore = s }
func SetRegistry(r *registry.Registry)     { workflowReg = r }
func SetProgressStore(s *progress.Store)   { progressStore = s }
func SetBootstrap(b *bootstrap.Bootstrap)  { boot = b }
func SetPipeline(p *submission.Pipeline)   { pipeline = p }
