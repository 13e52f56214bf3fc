// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err := log.InitGlobalLogger(cfg.Log); err != nil {
		panic(err)
	}
	if err := worker.Run(ctx, cfg); err != nil {
		panic(err)
	}
}
