// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/engine"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/model/rest"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/submission"
)

// findingsCache memoises findings of terminal runs: a closed run's result
// never changes, so repeated CLI polls don't refetch from the engine.
// cancelRun never needs to purge it: only terminal statuses are cached,
// and a run cannot leave a terminal status, so any cached entry is already
// the run's final answer.
var findingsCache = gocache.New(10*time.Minute, 20*time.Minute)

// runStatusResp is the status view of one run.
type runStatusResp struct {
	RunID         string     `json:"run_id"`
	WorkflowName  string     `json:"workflow_name"`
	Status        string     `json:"status"`
	IsRunning     bool       `json:"is_running"`
	IsCompleted   bool       `json:"is_completed"`
	IsFailed      bool       `json:"is_failed"`
	TaskQueue     string     `json:"task_queue,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	CloseTime     *time.Time `json:"close_time,omitempty"`
	ExecutionTime *time.Time `json:"execution_time,omitempty"`
}

func getRunStatus(c *gin.Context) {
	if notReady(c) {
		return
	}
	runID := c.Param("run_id")
	desc, err := clientsets.GetEngineClient().Describe(c.Request.Context(), runID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, runStatusResp{
		RunID:         runID,
		WorkflowName:  submission.WorkflowFromRunID(runID),
		Status:        string(desc.Status),
		IsRunning:     desc.Status == engine.StatusRunning,
		IsCompleted:   desc.Status == engine.StatusCompleted,
		IsFailed:      desc.Status == engine.StatusFailed,
		TaskQueue:     desc.TaskQueue,
		StartTime:     desc.StartTime,
		CloseTime:     desc.CloseTime,
		ExecutionTime: desc.ExecutionTime,
	})
}

// findingsResp carries the SARIF document of a completed run.
type findingsResp struct {
	RunID        string      `json:"run_id"`
	WorkflowName string      `json:"workflow_name"`
	Status       string      `json:"status"`
	Sarif        interface{} `json:"sarif"`
}

func getRunFindings(c *gin.Context) {
	if notReady(c) {
		return
	}
	runID := c.Param("run_id")

	if cached, ok := findingsCache.Get(runID); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	desc, err := clientsets.GetEngineClient().Describe(c.Request.Context(), runID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	switch {
	case !desc.Status.IsTerminal():
		_ = c.Error(errors.Newf(errors.KindValidationError,
			"run %s is still %s, findings are available once it finishes", runID, desc.Status).
			WithRunID(runID).
			WithSuggestions(
				fmt.Sprintf("Poll GET /runs/%s/status until the run is terminal", runID)))
		return
	case desc.Status == engine.StatusFailed:
		// Failed runs answer 400, not the kind's usual 500: the request is
		// answerable, there are just no findings to hand out.
		failErr := errors.Newf(errors.KindWorkflowError,
			"run %s finished with status %s and produced no findings", runID, desc.Status).
			WithRunID(runID).
			WithSuggestions("Check the worker logs for the failure cause")
		c.AbortWithStatusJSON(http.StatusBadRequest, rest.NewErrorEnvelope(failErr))
		return
	case desc.Status == engine.StatusCancelled:
		// Fetching the result of a cancelled run raises the cancellation
		// error on the engine side; the run legitimately has no findings,
		// so answer with the empty document without asking.
		resp := findingsResp{
			RunID:        runID,
			WorkflowName: submission.WorkflowFromRunID(runID),
			Status:       string(desc.Status),
			Sarif:        map[string]interface{}{},
		}
		findingsCache.Set(runID, resp, gocache.DefaultExpiration)
		c.JSON(http.StatusOK, resp)
		return
	}

	result, err := clientsets.GetEngineClient().Result(c.Request.Context(), runID, 0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := findingsResp{
		RunID:        runID,
		WorkflowName: submission.WorkflowFromRunID(runID),
		Status:       string(desc.Status),
		Sarif:        extractSarif(result),
	}
	findingsCache.Set(runID, resp, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, resp)
}

// extractSarif pulls the `sarif` field out of the workflow result object,
// defaulting to an empty document.
func extractSarif(result interface{}) interface{} {
	if m, ok := result.(map[string]interface{}); ok {
		if sarif, ok := m["sarif"]; ok && sarif != nil {
			return sarif
		}
	}
	return map[string]interface{}{}
}

func cancelRun(c *gin.Context) {
	if notReady(c) {
		return
	}
	runID := c.Param("run_id")
	if err := clientsets.GetEngineClient().Cancel(c.Request.Context(), runID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"message": "cancellation requested",
	})
}

func listRuns(c *gin.Context) {
	if notReady(c) {
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			_ = c.Error(errors.Newf(errors.KindValidationError, "limit must be a positive integer, got %q", raw))
			return
		}
		limit = parsed
	}
	runs, err := clientsets.GetEngineClient().List(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// parseTimeoutSeconds converts a form-field timeout to a duration.
func parseTimeoutSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || seconds < 0 {
		return 0, errors.Newf(errors.KindValidationError, "timeout must be a non-negative number of seconds, got %q", raw)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
