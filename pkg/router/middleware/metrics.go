// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/metrics"
)

var (
	httpRequests = metrics.NewCounterVec("http_requests",
		"HTTP requests by route, method and status", []string{"path", "method", "status"})
	httpLatency = metrics.NewHistogramVec("http_request_duration_seconds",
		"HTTP request latency by route and method", []string{"path", "method"},
		metrics.WithBuckets([]float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30}))
)

// HandleMetrics records the request counter and latency histogram, keyed
// by the route template so path parameters don't explode cardinality.
func HandleMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.Inc(path, c.Request.Method, strconv.Itoa(c.Writer.Status()))
		httpLatency.Observe(time.Since(startTime).Seconds(), path, c.Request.Method)
	}
}
