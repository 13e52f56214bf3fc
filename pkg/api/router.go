// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package api implements the HTTP surface of the control plane: workflow
// introspection, submission, run status and findings, fuzzing progress
// push and fan-out, and operational endpoints.
package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRouter installs every route group. Wired into the router via
// router.RegisterGroup at process start.
func RegisterRouter(group *gin.RouterGroup) error {
	group.GET("/", getRoot)
	group.GET("/health", getHealth)
	group.GET("/metrics", getMetrics)

	workflowGroup := group.Group("/workflows")
	{
		workflowGroup.GET("/", listWorkflows)
		workflowGroup.GET("/metadata/schema", getMetadataSchema)
		workflowGroup.GET("/:name/metadata", getWorkflowMetadata)
		workflowGroup.GET("/:name/parameters", getWorkflowParameters)
		workflowGroup.GET("/:name/worker-info", getWorkerInfo)
		workflowGroup.POST("/:name/submit", submitPath)
		workflowGroup.POST("/:name/upload-and-submit", uploadAndSubmit)
	}

	runGroup := group.Group("/runs")
	{
		runGroup.GET("/", listRuns)
		runGroup.GET("/:run_id/status", getRunStatus)
		runGroup.GET("/:run_id/findings", getRunFindings)
		runGroup.POST("/:run_id/cancel", cancelRun)
	}

	fuzzingGroup := group.Group("/fuzzing")
	{
		fuzzingGroup.GET("/:run_id/stats", getFuzzingStats)
		fuzzingGroup.POST("/:run_id/stats", postFuzzingStats)
		fuzzingGroup.GET("/:run_id/crashes", getFuzzingCrashes)
		fuzzingGroup.POST("/:run_id/crash", postFuzzingCrash)
		fuzzingGroup.GET("/:run_id/stream", streamFuzzingSSE)
		fuzzingGroup.GET("/:run_id/live", streamFuzzingWS)
		fuzzingGroup.DELETE("/:run_id", purgeFuzzingTrack)
	}

	systemGroup := group.Group("/system")
	{
		systemGroup.GET("/info", getSystemInfo)
	}
	return nil
}
