// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package engine wraps the workflow engine behind a narrow client
// interface so handlers and the bootstrap loop never touch SDK types.
package engine

import (
	"context"
	"time"
)

// RunStatus is the engine-neutral execution status exposed over the API.
type RunStatus string

const (
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusFailed    RunStatus = "FAILED"
	StatusCancelled RunStatus = "CANCELLED"
	StatusUnknown   RunStatus = "UNKNOWN"
)

// IsTerminal reports whether the run has finished. Findings are only
// retrievable once the status is terminal.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// RunHandle identifies a freshly started run.
type RunHandle struct {
	RunID string `json:"run_id"`
	// EngineRunID is the engine-internal attempt id, kept for logging only.
	EngineRunID string `json:"-"`
}

// RunDescription is the live state of a single run.
type RunDescription struct {
	RunID         string     `json:"run_id"`
	Status        RunStatus  `json:"status"`
	TaskQueue     string     `json:"task_queue,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	CloseTime     *time.Time `json:"close_time,omitempty"`
	ExecutionTime *time.Time `json:"execution_time,omitempty"`
}

// RunSummary is one row of a run listing.
type RunSummary struct {
	RunID        string     `json:"run_id"`
	WorkflowType string     `json:"workflow_type"`
	Status       RunStatus  `json:"status"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	CloseTime    *time.Time `json:"close_time,omitempty"`
}

// StartRequest carries everything needed to launch a run.
type StartRequest struct {
	// EntryType names the workflow entry point registered by the workers.
	EntryType string
	// Args are the positional workflow arguments, target id first.
	Args []interface{}
	// RunID doubles as the engine workflow id.
	RunID string
	// TaskQueue routes the run to the vertical's worker pool.
	TaskQueue string
	// Timeout bounds the whole execution when > 0.
	Timeout time.Duration
}

// Client is the engine surface the control plane depends on.
type Client interface {
	// Start launches a run and returns without waiting for it.
	Start(ctx context.Context, req *StartRequest) (*RunHandle, error)
	// Describe reports the current state of a run.
	Describe(ctx context.Context, runID string) (*RunDescription, error)
	// Result blocks until the run completes and returns its payload.
	// A zero timeout waits as long as ctx allows.
	Result(ctx context.Context, runID string, timeout time.Duration) (interface{}, error)
	// Cancel requests cooperative cancellation of a running run.
	Cancel(ctx context.Context, runID string) error
	// List returns summaries of runs matching the visibility query.
	List(ctx context.Context, query string, limit int) ([]*RunSummary, error)
	// CheckHealth verifies the engine answers RPCs.
	CheckHealth(ctx context.Context) error
	// Close releases the underlying connection.
	Close()
}
