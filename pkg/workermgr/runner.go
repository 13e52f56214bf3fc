// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package workermgr starts, watches and stops the per-vertical worker
// containers through the docker compose CLI.
package workermgr

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// CommandRunner abstracts subprocess execution so the manager is testable
// without a container runtime.
type CommandRunner interface {
	RunCommand(ctx context.Context, args ...string) (string, error)
	RunCommandStderr(ctx context.Context, args ...string) (string, error)
	// RunCommandStderrEnv is RunCommandStderr with extra KEY=VALUE pairs
	// appended to the subprocess environment.
	RunCommandStderrEnv(ctx context.Context, extraEnv []string, args ...string) (string, error)
}

// DefaultCommandRunner shells out for real.
type DefaultCommandRunner struct{}

var _ CommandRunner = &DefaultCommandRunner{}

func (d *DefaultCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	log.Debugf("Running command: %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	log.Debugf("Command output: %s", string(out))
	return string(out), err
}

// RunCommandStderr runs a command and returns only its stderr, which is
// where compose writes its build and error output.
func (d *DefaultCommandRunner) RunCommandStderr(ctx context.Context, args ...string) (string, error) {
	return d.RunCommandStderrEnv(ctx, nil, args...)
}

func (d *DefaultCommandRunner) RunCommandStderrEnv(ctx context.Context, extraEnv []string, args ...string) (string, error) {
	log.Debugf("Running command (stderr only): %s %s", strings.Join(extraEnv, " "), strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", pkgerrors.Wrap(err, "open stderr pipe")
	}
	cmd.Stdout = io.Discard

	if err := cmd.Start(); err != nil {
		return "", pkgerrors.Wrap(err, "start command")
	}
	stderrBytes, readErr := io.ReadAll(stderr)
	cmdErr := cmd.Wait()
	if readErr != nil {
		return "", pkgerrors.Wrap(readErr, "read stderr")
	}
	return string(stderrBytes), cmdErr
}

// FakeCommandRunner scripts command results for tests. Outputs are
// consumed in call order; the last entry repeats.
type FakeCommandRunner struct {
	Calls   [][]string
	Outputs []FakeResult
}

// FakeResult is one scripted command result.
type FakeResult struct {
	Output string
	Err    error
}

var _ CommandRunner = &FakeCommandRunner{}

func (f *FakeCommandRunner) RunCommand(_ context.Context, args ...string) (string, error) {
	f.Calls = append(f.Calls, args)
	return f.next()
}

func (f *FakeCommandRunner) RunCommandStderr(_ context.Context, args ...string) (string, error) {
	f.Calls = append(f.Calls, args)
	return f.next()
}

// RunCommandStderrEnv records the env pairs ahead of the args so tests can
// assert on both.
func (f *FakeCommandRunner) RunCommandStderrEnv(_ context.Context, extraEnv []string, args ...string) (string, error) {
	call := make([]string, 0, len(extraEnv)+len(args))
	call = append(call, extraEnv...)
	call = append(call, args...)
	f.Calls = append(f.Calls, call)
	return f.next()
}

func (f *FakeCommandRunner) next() (string, error) {
	if len(f.Outputs) == 0 {
		return "", nil
	}
	res := f.Outputs[0]
	if len(f.Outputs) > 1 {
		f.Outputs = f.Outputs[1:]
	}
	return res.Output, res.Err
}
