// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// HandleLogging logs one line per request and seeds the request id the
// logging facade lifts into every in-request log line.
func HandleLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Set(logger.RequestIDKey, uuid.New().String())

		c.Next()

		duration := time.Since(startTime)
		log.GlobalLogger().WithContext(c).Infof(
			"Request: Method=%s | Path=%s | Status=%d | IP=%s | Duration=%v",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			c.ClientIP(),
			duration,
		)
	}
}
