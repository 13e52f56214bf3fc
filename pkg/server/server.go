// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package server owns process bring-up and teardown: configuration,
// logging, clientsets, the HTTP engine, the background bootstrap loop and
// the cache janitor.
package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/router"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/version"
)

// shutdownTimeout bounds the HTTP drain on SIGTERM.
const shutdownTimeout = 15 * time.Second

// InitServer runs the control plane until ctx is cancelled or a SIGINT/
// SIGTERM arrives. The HTTP surface serves from the first moment; the
// engine connection comes up in the background.
func InitServer(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := log.InitGlobalLogger(cfg.Log); err != nil {
		return err
	}
	log.Infof("Starting crashwise %s (%s)", version.Version, version.GitCommit)

	if err := clientsets.Init(ctx, cfg); err != nil {
		return err
	}
	defer clientsets.Close()

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if err := router.InitRouter(ginEngine, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go clientsets.GetBootstrap().Run(ctx)

	janitor, err := StartJanitor(ctx, cfg)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.GetListenAddr(),
		Handler: ginEngine,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("Shutting down: draining HTTP connections")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Warnf("HTTP drain incomplete: %v", err)
	}
	return nil
}
