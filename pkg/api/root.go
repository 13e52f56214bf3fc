// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/bootstrap"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/metrics"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/model/rest"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/version"
)

// rootResp is the service banner returned at /.
type rootResp struct {
	Service         string              `json:"service"`
	Version         string              `json:"version"`
	Ready           bool                `json:"ready"`
	WorkflowsLoaded int                 `json:"workflows_loaded"`
	Temporal        *bootstrap.Snapshot `json:"temporal"`
}

func getRoot(c *gin.Context) {
	snapshot := clientsets.GetBootstrap().Snapshot()
	c.JSON(http.StatusOK, rootResp{
		Service:         "crashwise",
		Version:         version.Version,
		Ready:           snapshot.Ready,
		WorkflowsLoaded: clientsets.GetRegistry().Len(),
		Temporal:        snapshot,
	})
}

// getHealth is the liveness probe. It never depends on the engine: a
// booting service is alive, just not ready.
func getHealth(c *gin.Context) {
	status := "healthy"
	if !clientsets.GetBootstrap().IsReady() {
		status = "initializing"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func getMetrics(c *gin.Context) {
	text, err := metrics.GetPrometheusAsFmtText()
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(text))
}

// notReady answers an engine-gated endpoint while bootstrap is still in
// flight. Deliberately a 200: clients poll on it without special-casing
// a 5xx.
func notReady(c *gin.Context) bool {
	boot := clientsets.GetBootstrap()
	if boot.IsReady() {
		return false
	}
	c.JSON(http.StatusOK, rest.NewNotReadyResp(boot.Snapshot()))
	return true
}
