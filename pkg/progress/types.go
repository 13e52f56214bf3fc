// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package progress holds the per-run fuzzing statistics and crash reports
// the workers push while a campaign is running, and fans them out to
// WebSocket/SSE subscribers.
package progress

import (
	"fmt"
	"time"
)

// Severity levels accepted on crash reports.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// FuzzingStats is the current snapshot of a fuzzing run. Counters are
// cumulative: executions, crashes, unique_crashes and elapsed_seconds never
// decrease across successive posts for the same run.
type FuzzingStats struct {
	Executions       int64      `json:"executions"`
	ExecutionsPerSec float64    `json:"executions_per_sec"`
	Crashes          int64      `json:"crashes"`
	UniqueCrashes    int64      `json:"unique_crashes"`
	Coverage         *float64   `json:"coverage,omitempty"`
	CorpusSize       int64      `json:"corpus_size"`
	ElapsedSeconds   float64    `json:"elapsed_seconds"`
	LastCrashAt      *time.Time `json:"last_crash_at,omitempty"`
}

// Validate rejects snapshots that cannot come from a well-behaved worker.
func (s *FuzzingStats) Validate() error {
	if s.Executions < 0 || s.Crashes < 0 || s.UniqueCrashes < 0 || s.CorpusSize < 0 {
		return fmt.Errorf("counters must be non-negative")
	}
	if s.ExecutionsPerSec < 0 || s.ElapsedSeconds < 0 {
		return fmt.Errorf("rates must be non-negative")
	}
	if s.Coverage != nil && (*s.Coverage < 0 || *s.Coverage > 100) {
		return fmt.Errorf("coverage must be within [0, 100], got %v", *s.Coverage)
	}
	return nil
}

// checkMonotonic verifies the cumulative fields never regress relative to
// the previously accepted snapshot.
func (s *FuzzingStats) checkMonotonic(prev *FuzzingStats) error {
	if s.Executions < prev.Executions {
		return fmt.Errorf("executions decreased from %d to %d", prev.Executions, s.Executions)
	}
	if s.Crashes < prev.Crashes {
		return fmt.Errorf("crashes decreased from %d to %d", prev.Crashes, s.Crashes)
	}
	if s.UniqueCrashes < prev.UniqueCrashes {
		return fmt.Errorf("unique_crashes decreased from %d to %d", prev.UniqueCrashes, s.UniqueCrashes)
	}
	if s.ElapsedSeconds < prev.ElapsedSeconds {
		return fmt.Errorf("elapsed_seconds decreased from %v to %v", prev.ElapsedSeconds, s.ElapsedSeconds)
	}
	return nil
}

// CrashReport is one crash event pushed by a worker. CrashID is unique
// within its run.
type CrashReport struct {
	CrashID        string    `json:"crash_id"`
	Timestamp      time.Time `json:"timestamp"`
	Signal         string    `json:"signal,omitempty"`
	CrashType      string    `json:"crash_type,omitempty"`
	StackTrace     string    `json:"stack_trace,omitempty"`
	InputFile      string    `json:"input_file,omitempty"`
	Reproducer     string    `json:"reproducer,omitempty"`
	Severity       string    `json:"severity"`
	Exploitability string    `json:"exploitability,omitempty"`
}

// Validate checks the report and fills the severity default.
func (r *CrashReport) Validate() error {
	if r.CrashID == "" {
		return fmt.Errorf("crash_id is required")
	}
	switch r.Severity {
	case "":
		r.Severity = SeverityMedium
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
	default:
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
	return nil
}

// Event types pushed to subscribers and over the wire.
const (
	EventStatsUpdate = "stats_update"
	EventCrashReport = "crash_report"
	EventHeartbeat   = "heartbeat"
)

// Event is one fan-out frame. Data is a FuzzingStats or CrashReport copy;
// heartbeats carry no data.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
