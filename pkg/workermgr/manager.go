// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package workermgr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

const (
	// readyPollInterval is how often WaitReady re-inspects the container.
	readyPollInterval = 2 * time.Second

	// defaultProject is the compose project workers run under.
	defaultProject = "crashwise"

	// dockerfileEnvVar carries the per-platform dockerfile into the compose
	// build: worker services declare `build.dockerfile:
	// ${WORKER_DOCKERFILE:-Dockerfile}` and pick it up on interpolation.
	dockerfileEnvVar = "WORKER_DOCKERFILE"
)

// Manager drives the worker containers of one compose project.
type Manager struct {
	runner      CommandRunner
	composeFile string
	project     string
}

// NewManager returns a manager over the given compose file. A nil runner
// uses the real CLI.
func NewManager(composeFile string, runner CommandRunner) *Manager {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	return &Manager{
		runner:      runner,
		composeFile: composeFile,
		project:     defaultProject,
	}
}

// ComposeFile returns the compose file the manager operates on.
func (m *Manager) ComposeFile() string {
	return m.composeFile
}

// containerFor maps a compose service to its container name.
func (m *Manager) containerFor(service string) string {
	return m.project + "-" + service
}

// IsRunning reports whether the service's container state is `running`.
// A missing container is simply not running.
func (m *Manager) IsRunning(ctx context.Context, service string) bool {
	state, _, err := m.inspect(ctx, service)
	if err != nil {
		return false
	}
	return state == "running"
}

// inspect returns the container state and health. Health is empty when
// the image defines no health check.
func (m *Manager) inspect(ctx context.Context, service string) (state, health string, err error) {
	out, err := m.runner.RunCommand(ctx, "docker", "inspect",
		"--format", "{{.State.Status}}|{{if .State.Health}}{{.State.Health.Status}}{{end}}",
		m.containerFor(service))
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(strings.TrimSpace(out), "|", 2)
	state = parts[0]
	if len(parts) > 1 {
		health = parts[1]
	}
	return state, health, nil
}

// Start brings the one service up with a rebuilt image. It never touches
// other services: core containers must survive worker restarts.
func (m *Manager) Start(ctx context.Context, worker *WorkerDescriptor) error {
	service := worker.ServiceName()
	dockerfile := worker.SelectDockerfile(HostPlatform())
	log.Infof("Starting worker %s (compose=%s, dockerfile=%s)", service, m.composeFile, dockerfile)

	stderr, err := m.runner.RunCommandStderrEnv(ctx,
		[]string{dockerfileEnvVar + "=" + dockerfile},
		"docker", "compose",
		"-f", m.composeFile, "-p", m.project,
		"up", "-d", "--build", service)
	if err != nil {
		return errors.Wrap(err, errors.KindImageError,
			fmt.Sprintf("failed to start %s: %s", service, strings.TrimSpace(stderr))).
			WithContainer(m.containerFor(service)).
			WithSuggestions(
				fmt.Sprintf("Check `docker compose -f %s logs %s` for the build failure", m.composeFile, service),
				"Verify the worker's Dockerfile builds on this host architecture",
			)
	}
	return nil
}

// WaitReady polls the container until it is running and healthy (or has
// no health check). Timing out returns false without an error: the worker
// may still come up later, it is just no longer being observed.
func (m *Manager) WaitReady(ctx context.Context, service string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		state, health, err := m.inspect(ctx, service)
		if err == nil && state == "running" && (health == "" || health == "healthy") {
			log.Infof("Worker %s is ready (health=%q)", service, health)
			return true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			log.Warnf("Worker %s not ready after %s (state=%q, health=%q)", service, timeout, state, health)
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(readyPollInterval):
		}
	}
}

// Stop stops one worker service. Compose `stop` on the named service only;
// a broad compose-down would take the core services with it.
func (m *Manager) Stop(ctx context.Context, service string) error {
	log.Infof("Stopping worker %s", service)
	stderr, err := m.runner.RunCommandStderr(ctx, "docker", "compose",
		"-f", m.composeFile, "-p", m.project,
		"stop", service)
	if err != nil {
		return errors.Wrap(err, errors.KindResourceError,
			fmt.Sprintf("failed to stop %s: %s", service, strings.TrimSpace(stderr))).
			WithContainer(m.containerFor(service))
	}
	return nil
}

// StopAll stops each worker individually and aggregates the failures.
func (m *Manager) StopAll(ctx context.Context, workers []*WorkerDescriptor) map[string]error {
	results := make(map[string]error, len(workers))
	for _, worker := range workers {
		service := worker.ServiceName()
		results[service] = m.Stop(ctx, service)
	}
	return results
}

// EnsureRunning makes sure the worker is up, starting it when autoStart
// allows. Returns true when the worker is running and ready.
func (m *Manager) EnsureRunning(ctx context.Context, worker *WorkerDescriptor, autoStart bool, readyTimeout time.Duration) (bool, error) {
	service := worker.ServiceName()
	if m.IsRunning(ctx, service) {
		return true, nil
	}
	if !autoStart {
		return false, nil
	}
	if err := m.Start(ctx, worker); err != nil {
		return false, err
	}
	timeout := readyTimeout + worker.HealthCheckGrace
	return m.WaitReady(ctx, service, timeout), nil
}
