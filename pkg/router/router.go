// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/router/middleware"
)

var (
	groupRegisters []GroupRegister
)

// GroupRegister installs a set of routes onto the root group.
type GroupRegister func(group *gin.RouterGroup) error

// RegisterGroup queues a route group for installation by InitRouter.
func RegisterGroup(group GroupRegister) {
	groupRegisters = append(groupRegisters, group)
}

// InitRouter wires the middleware chain and installs every registered
// group. The API is versionless, so the root group has no prefix.
func InitRouter(engine *gin.Engine, cfg *config.Config) error {
	g := engine.Group("")
	g.Use(middleware.HandleMetrics())

	if cfg.Middleware.IsLoggingEnabled() {
		log.Info("HTTP request logging middleware enabled")
		g.Use(middleware.HandleLogging())
	} else {
		log.Info("HTTP request logging middleware disabled")
	}

	// Error handling middleware is always enabled
	g.Use(middleware.HandleErrors())

	if cfg.Middleware.IsCORSEnabled() {
		g.Use(middleware.CorsMiddleware())
	}

	for _, group := range groupRegisters {
		if err := group(g); err != nil {
			return err
		}
	}
	return nil
}
