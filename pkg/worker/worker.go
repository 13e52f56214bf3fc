// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package worker implements the task-queue worker process: it joins a
// vertical's queue on the engine and serves the universal activities that
// workflow entries schedule.
package worker

import (
	"context"

	"go.temporal.io/sdk/activity"
	sdkworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/engine"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/storage"
)

// WorkflowEntry names one workflow definition the vertical serves on its
// queue. The Name must match the workflow name submissions dispatch with.
type WorkflowEntry struct {
	Name       string
	Definition interface{}
}

// registrar is the slice of the sdk worker the registration step needs,
// kept separate so it can be exercised without a live engine.
type registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// register binds the universal activities and the vertical's workflow
// entries onto the worker.
func register(r registrar, acts *Activities, entries []WorkflowEntry) {
	r.RegisterActivityWithOptions(acts.GetTarget, activity.RegisterOptions{Name: ActivityGetTarget})
	r.RegisterActivityWithOptions(acts.CleanupCache, activity.RegisterOptions{Name: ActivityCleanupCache})
	r.RegisterActivityWithOptions(acts.UploadResults, activity.RegisterOptions{Name: ActivityUploadResults})
	for _, entry := range entries {
		r.RegisterWorkflowWithOptions(entry.Definition, workflow.RegisterOptions{Name: entry.Name})
	}
}

// Run blocks serving the vertical's task queue until ctx is cancelled or
// the worker fails. Each entry is registered under its workflow name.
func Run(ctx context.Context, cfg *config.Config, entries ...WorkflowEntry) error {
	eng, err := engine.NewTemporalClient(cfg.Temporal)
	if err != nil {
		return err
	}
	defer eng.Close()

	cache, err := storage.NewCache(cfg.Cache.GetDir(), cfg.Cache.GetMaxSizeBytes())
	if err != nil {
		return err
	}
	store, err := storage.NewMinioStore(&cfg.S3, cache)
	if err != nil {
		return err
	}

	queue := cfg.Worker.GetTaskQueue()
	w := sdkworker.New(eng.SDK(), queue, sdkworker.Options{
		MaxConcurrentActivityExecutionSize: cfg.Worker.GetMaxConcurrentActivities(),
	})

	register(w, NewActivities(store, cache), entries)

	log.Infof("Worker joining queue %s (workflows: %d, max concurrent activities: %d)",
		queue, len(entries), cfg.Worker.GetMaxConcurrentActivities())

	stopCh := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(stopCh)
	}()
	return w.Run(stopCh)
}
