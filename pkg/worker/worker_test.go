// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// fakeRegistrar records what gets bound onto the worker.
type fakeRegistrar struct {
	workflows  []string
	activities []string
}

func (f *fakeRegistrar) RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions) {
	f.workflows = append(f.workflows, options.Name)
}

func (f *fakeRegistrar) RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions) {
	f.activities = append(f.activities, options.Name)
}

func gitleaksDetection(ctx workflow.Context, targetID, mode string) (interface{}, error) {
	return nil, nil
}

func semgrepScan(ctx workflow.Context, targetID string) (interface{}, error) {
	return nil, nil
}

func TestRegisterBindsUniversalActivities(t *testing.T) {
	acts, _, _ := newTestActivities(t)
	r := &fakeRegistrar{}

	register(r, acts, nil)

	assert.Equal(t, []string{
		ActivityGetTarget,
		ActivityCleanupCache,
		ActivityUploadResults,
	}, r.activities)
	assert.Empty(t, r.workflows)
}

func TestRegisterBindsWorkflowEntriesUnderTheirNames(t *testing.T) {
	acts, _, _ := newTestActivities(t)
	r := &fakeRegistrar{}

	register(r, acts, []WorkflowEntry{
		{Name: "gitleaks_detection", Definition: gitleaksDetection},
		{Name: "semgrep_scan", Definition: semgrepScan},
	})

	assert.Equal(t, []string{"gitleaks_detection", "semgrep_scan"}, r.workflows)
	require.Len(t, r.activities, 3, "workflow entries must not displace the universal activities")
}
