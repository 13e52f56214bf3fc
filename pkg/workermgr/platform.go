// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package workermgr

import (
	"runtime"
	"time"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// Platform labels workers declare dockerfiles for.
const (
	PlatformAMD64 = "linux/amd64"
	PlatformARM64 = "linux/arm64"
)

// WorkerDescriptor is what the manager needs to know about one vertical's
// worker.
type WorkerDescriptor struct {
	Vertical string `json:"vertical" yaml:"vertical"`
	// Platforms maps a platform label to the dockerfile that builds the
	// worker image on it.
	Platforms       map[string]string `json:"platforms,omitempty" yaml:"platforms"`
	DefaultPlatform string            `json:"default_platform,omitempty" yaml:"default_platform"`
	// HealthCheckGrace extends WaitReady for workers with slow health
	// probes.
	HealthCheckGrace time.Duration `json:"health_check_grace,omitempty" yaml:"health_check_grace"`
}

// ServiceName returns the compose service for the vertical.
func (w *WorkerDescriptor) ServiceName() string {
	return "worker-" + w.Vertical
}

// ContainerName returns the container the service runs as under the
// given compose project.
func (w *WorkerDescriptor) ContainerName(project string) string {
	return project + "-" + w.ServiceName()
}

// HostPlatform normalises the current architecture to a platform label.
// Unknown architectures warn and take the amd64 branch.
func HostPlatform() string {
	return normalizeArch(runtime.GOARCH)
}

func normalizeArch(arch string) string {
	switch arch {
	case "x86_64", "amd64":
		return PlatformAMD64
	case "arm64", "aarch64":
		return PlatformARM64
	default:
		log.Warnf("Unknown host architecture %q, assuming %s", arch, PlatformAMD64)
		return PlatformAMD64
	}
}

// SelectDockerfile picks the build file for the platform: exact platform
// match, then the declared default platform, then the bare Dockerfile.
func (w *WorkerDescriptor) SelectDockerfile(platform string) string {
	if path, ok := w.Platforms[platform]; ok && path != "" {
		return path
	}
	if w.DefaultPlatform != "" {
		if path, ok := w.Platforms[w.DefaultPlatform]; ok && path != "" {
			log.Debugf("No dockerfile for %s on worker-%s, using default platform %s",
				platform, w.Vertical, w.DefaultPlatform)
			return path
		}
	}
	return "Dockerfile"
}
