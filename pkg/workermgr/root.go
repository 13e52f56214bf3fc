// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package workermgr

import (
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// markerDir is the directory that marks a crashwise install root.
const markerDir = ".crashwise"

// composeFileNames are the compose files accepted at a candidate root, in
// preference order.
var composeFileNames = []string{"docker-compose.yaml", "docker-compose.yml"}

// systemInfoResp mirrors the backend's /system/info body.
type systemInfoResp struct {
	HostRoot          string `json:"host_root"`
	DockerComposePath string `json:"docker_compose_path"`
	WorkersDir        string `json:"workers_dir"`
}

// DiscoverComposeFile locates the compose file the workers are defined
// in. Strategies in order: ask the running backend, walk ancestors for
// the marker directory, the CRASHWISE_HOST_ROOT environment variable,
// and finally the current directory. The first candidate with a readable
// compose file wins.
func DiscoverComposeFile(backendURL string) (string, error) {
	if backendURL != "" {
		if path := composeFromBackend(backendURL); path != "" {
			return path, nil
		}
	}
	if root := findMarkerRoot(); root != "" {
		if path := composeFileIn(root); path != "" {
			return path, nil
		}
	}
	if root := os.Getenv("CRASHWISE_HOST_ROOT"); root != "" {
		if path := composeFileIn(root); path != "" {
			return path, nil
		}
		log.Warnf("CRASHWISE_HOST_ROOT=%s has no readable compose file", root)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if path := composeFileIn(cwd); path != "" {
		return path, nil
	}
	return "", os.ErrNotExist
}

// composeFromBackend asks the running control plane where it was
// installed. Failures fall through to the next strategy.
func composeFromBackend(backendURL string) string {
	client := resty.New().SetBaseURL(backendURL)
	info := &systemInfoResp{}
	resp, err := client.R().SetResult(info).Get("/system/info")
	if err != nil || resp.IsError() {
		log.Debugf("Backend root discovery failed: %v", err)
		return ""
	}
	if info.DockerComposePath != "" && readable(info.DockerComposePath) {
		return info.DockerComposePath
	}
	if info.HostRoot != "" {
		return composeFileIn(info.HostRoot)
	}
	return ""
}

// findMarkerRoot walks from the working directory upward looking for the
// marker directory.
func findMarkerRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		marker := filepath.Join(dir, markerDir)
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func composeFileIn(root string) string {
	for _, name := range composeFileNames {
		path := filepath.Join(root, name)
		if readable(path) {
			return path
		}
	}
	return ""
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
