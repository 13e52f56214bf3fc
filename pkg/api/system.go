// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
)

// systemInfoResp tells client-side tooling (workerctl) where the install
// lives on the host, so it can drive docker compose from outside the
// container.
type systemInfoResp struct {
	HostRoot          string `json:"host_root"`
	DockerComposePath string `json:"docker_compose_path"`
	WorkersDir        string `json:"workers_dir"`
}

func getSystemInfo(c *gin.Context) {
	var root string
	if cfg := config.GetConfig(); cfg != nil {
		root = cfg.Server.HostRoot
	}
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}
	c.JSON(http.StatusOK, systemInfoResp{
		HostRoot:          root,
		DockerComposePath: filepath.Join(root, "docker-compose.yaml"),
		WorkersDir:        filepath.Join(root, "workers"),
	})
}
