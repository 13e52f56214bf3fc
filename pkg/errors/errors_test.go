// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Builder Tests
// ============================================================================

func TestNew_SetsKindAndMessage(t *testing.T) {
	err := New(KindWorkflowNotFound, "workflow 'nope' not found")

	assert.Equal(t, KindWorkflowNotFound, err.Kind)
	assert.Equal(t, "workflow 'nope' not found", err.Message)
	assert.NotEmpty(t, err.Stack)
}

func TestNewf_FormatsMessage(t *testing.T) {
	err := Newf(KindFileTooLarge, "upload exceeds %d bytes", 1024)
	assert.Equal(t, "upload exceeds 1024 bytes", err.Message)
}

func TestWrap_KeepsInnerError(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap(inner, KindStorageError, "put object failed")

	assert.Equal(t, KindStorageError, err.Kind)
	assert.Equal(t, inner, err.InnerError)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, inner, err.Unwrap())
}

func TestBuilderChain(t *testing.T) {
	err := NewError().
		WithKind(KindWorkflowSubmissionError).
		WithMessage("engine rejected start").
		WithWorkflow("gitleaks_detection").
		WithRunID("gitleaks_detection-a1b2c3d4").
		WithSuggestions("retry later")

	assert.Equal(t, "gitleaks_detection", err.WorkflowName)
	assert.Equal(t, "gitleaks_detection-a1b2c3d4", err.RunID)
	assert.Equal(t, []string{"retry later"}, err.Suggestions)
}

// ============================================================================
// Kind Tests
// ============================================================================

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindWorkflowNotFound, http.StatusNotFound},
		{KindNotFound, http.StatusNotFound},
		{KindValidationError, http.StatusBadRequest},
		{KindInvalidParameters, http.StatusBadRequest},
		{KindVolumeError, http.StatusBadRequest},
		{KindFileTooLarge, http.StatusRequestEntityTooLarge},
		{KindEngineUnavailable, http.StatusServiceUnavailable},
		{KindStorageError, http.StatusInternalServerError},
		{KindWorkflowSubmissionError, http.StatusInternalServerError},
		{Kind("bogus"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.HTTPStatus())
		})
	}
}

func TestEffectiveSuggestions_FallsBackToKindDefaults(t *testing.T) {
	err := New(KindWorkflowNotFound, "nope")
	suggestions := err.EffectiveSuggestions()

	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[1], "/workflows/")
}

func TestEffectiveSuggestions_PrefersAttached(t *testing.T) {
	err := New(KindWorkflowNotFound, "nope").WithSuggestions("Available workflows: a, b")
	assert.Equal(t, []string{"Available workflows: a, b"}, err.EffectiveSuggestions())
}

// ============================================================================
// Unwrapping Tests
// ============================================================================

func TestAsError_FindsNestedError(t *testing.T) {
	structured := New(KindNotFound, "no such run")
	wrapped := fmt.Errorf("handler: %w", structured)

	found, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, found.Kind)
}

func TestAsError_PlainError(t *testing.T) {
	_, ok := AsError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestKindOf_DefaultsToSubmissionError(t *testing.T) {
	assert.Equal(t, KindWorkflowSubmissionError, KindOf(fmt.Errorf("plain")))
	assert.Equal(t, KindStorageError, KindOf(New(KindStorageError, "boom")))
}

func TestIsKind(t *testing.T) {
	err := New(KindEngineUnavailable, "not ready")
	assert.True(t, IsKind(err, KindEngineUnavailable))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestGetTopStackString_NamesThisTestFile(t *testing.T) {
	err := New(KindNotFound, "x")
	top := err.GetTopStackString()
	assert.Contains(t, top, "errors_test.go")
}
