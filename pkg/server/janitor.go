// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package server

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// Janitor evicts download-cache entries on a cron schedule so the local
// disk stays under the configured cap between submissions.
type Janitor struct {
	c *cron.Cron
}

// StartJanitor schedules the periodic cache sweep and starts the cron
// runner. The returned Janitor must be stopped on shutdown.
func StartJanitor(ctx context.Context, cfg *config.Config) (*Janitor, error) {
	c := cron.New()
	spec := cfg.Cache.GetJanitorCron()
	_, err := c.AddFunc(spec, func() {
		evicted, err := clientsets.GetObjectStore().CleanupCache(ctx)
		if err != nil {
			log.Warnf("Cache janitor sweep failed: %v", err)
			return
		}
		if evicted > 0 {
			log.Infof("Cache janitor evicted %d entries", evicted)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Infof("Cache janitor scheduled: %s", spec)
	return &Janitor{c: c}, nil
}

// Stop halts the cron runner. In-flight sweeps finish on their own.
func (j *Janitor) Stop() {
	if j == nil || j.c == nil {
		return
	}
	j.c.Stop()
}
