// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/progress"
)

// The fuzzing endpoints are deliberately not gated on engine readiness:
// the progress store is process-local and workers keep pushing while the
// engine connection recovers.

func getFuzzingStats(c *gin.Context) {
	stats, err := clientsets.GetProgressStore().ReadStats(c.Param("run_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func postFuzzingStats(c *gin.Context) {
	runID := c.Param("run_id")
	stats := &progress.FuzzingStats{}
	if err := c.ShouldBindJSON(stats); err != nil {
		_ = c.Error(errors.Wrap(err, errors.KindValidationError, "invalid stats payload").WithRunID(runID))
		return
	}
	if err := clientsets.GetProgressStore().PutStats(runID, stats); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "message": "stats accepted"})
}

func getFuzzingCrashes(c *gin.Context) {
	runID := c.Param("run_id")
	crashes, err := clientsets.GetProgressStore().ReadCrashes(runID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "crashes": crashes, "count": len(crashes)})
}

func postFuzzingCrash(c *gin.Context) {
	runID := c.Param("run_id")
	crash := &progress.CrashReport{}
	if err := c.ShouldBindJSON(crash); err != nil {
		_ = c.Error(errors.Wrap(err, errors.KindValidationError, "invalid crash payload").WithRunID(runID))
		return
	}
	if err := clientsets.GetProgressStore().AppendCrash(runID, crash); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "crash_id": crash.CrashID, "message": "crash recorded"})
}

func purgeFuzzingTrack(c *gin.Context) {
	runID := c.Param("run_id")
	if err := clientsets.GetProgressStore().Purge(runID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "message": "progress track purged"})
}
