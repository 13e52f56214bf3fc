// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package registry

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const gitleaksMetadata = `
name: gitleaks_detection
version: "1.2.0"
description: Secret detection with gitleaks
author: crashwise
tags:
  - secrets
vertical: secrets
entry_type: GitleaksDetectionWorkflow
parameters_schema:
  type: object
  properties:
    scan_mode:
      type: string
      default: detect
    no_git:
      type: boolean
      default: true
    redact:
      type: boolean
      default: false
`

func parseDefinition(t *testing.T, raw string) *WorkflowDefinition {
	t.Helper()
	var def WorkflowDefinition
	require.NoError(t, yaml.Unmarshal([]byte(raw), &def))
	return &def
}

// ============================================================================
// ParametersSchema Tests
// ============================================================================

func TestParametersSchema_PreservesDeclarationOrder(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	require.NotNil(t, def.ParametersSchema)
	assert.Equal(t, []string{"scan_mode", "no_git", "redact"}, def.ParametersSchema.Keys())
}

func TestParametersSchema_PropertyFields(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)

	scanMode, ok := def.ParametersSchema.Property("scan_mode")
	require.True(t, ok)
	assert.Equal(t, "string", scanMode.Type)
	assert.Equal(t, "detect", scanMode.Default)

	noGit, ok := def.ParametersSchema.Property("no_git")
	require.True(t, ok)
	assert.Equal(t, "boolean", noGit.Type)
	assert.Equal(t, true, noGit.Default)

	_, ok = def.ParametersSchema.Property("nope")
	assert.False(t, ok)
}

func TestParametersSchema_RejectsNonMapping(t *testing.T) {
	var def WorkflowDefinition
	err := yaml.Unmarshal([]byte("name: x\nparameters_schema: [not, a, mapping]\n"), &def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a mapping")
}

func TestParametersSchema_MarshalJSONKeepsOrder(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)

	raw, err := json.Marshal(def.ParametersSchema)
	require.NoError(t, err)

	text := string(raw)
	scanModeAt := strings.Index(text, `"scan_mode"`)
	noGitAt := strings.Index(text, `"no_git"`)
	redactAt := strings.Index(text, `"redact"`)
	require.NotEqual(t, -1, scanModeAt)
	require.NotEqual(t, -1, noGitAt)
	require.NotEqual(t, -1, redactAt)
	assert.Less(t, scanModeAt, noGitAt)
	assert.Less(t, noGitAt, redactAt)

	// Still a valid JSON object a client can decode.
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "object", decoded["type"])
}

// ============================================================================
// WorkflowDefinition Tests
// ============================================================================

func TestWorkflowDefinition_TaskQueue(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	assert.Equal(t, "secrets-queue", def.TaskQueue())
}

func TestWorkflowDefinition_IsFuzzing(t *testing.T) {
	tests := []struct {
		name     string
		def      WorkflowDefinition
		expected bool
	}{
		{"tagged", WorkflowDefinition{Name: "libafl_campaign", Tags: []string{"fuzzing"}}, true},
		{"name heuristic", WorkflowDefinition{Name: "binary_fuzzer", Tags: []string{"native"}}, true},
		{"neither", WorkflowDefinition{Name: "gitleaks_detection", Tags: []string{"secrets"}}, false},
		{"no tags", WorkflowDefinition{Name: "semgrep_scan"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.def.IsFuzzing())
		})
	}
}

func TestWorkflowDefinition_EffectiveDefaults(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	assert.Equal(t, map[string]interface{}{
		"scan_mode": "detect",
		"no_git":    true,
		"redact":    false,
	}, def.EffectiveDefaults())
}

func TestWorkflowDefinition_EffectiveDefaults_ExplicitBlockWins(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	def.DefaultParameters = map[string]interface{}{"scan_mode": "protect"}

	defaults := def.EffectiveDefaults()
	assert.Equal(t, "protect", defaults["scan_mode"])
	assert.Equal(t, true, defaults["no_git"])
}

// ============================================================================
// Validate Tests
// ============================================================================

func TestValidate_AcceptsWellFormedDefinition(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	assert.NoError(t, def.Validate())
}

func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkflowDefinition)
		missing string
	}{
		{"missing name", func(d *WorkflowDefinition) { d.Name = "" }, "name"},
		{"missing vertical", func(d *WorkflowDefinition) { d.Vertical = "" }, "vertical"},
		{"missing entry_type", func(d *WorkflowDefinition) { d.EntryType = "" }, "entry_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := parseDefinition(t, gitleaksMetadata)
			tt.mutate(def)
			err := def.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestValidate_DefaultMustMatchDeclaredType(t *testing.T) {
	def := parseDefinition(t, `
name: broken
vertical: secrets
entry_type: BrokenWorkflow
parameters_schema:
  type: object
  properties:
    retries:
      type: integer
      default: lots
`)
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}

func TestValidate_DefaultMustBelongToEnum(t *testing.T) {
	def := parseDefinition(t, `
name: broken
vertical: secrets
entry_type: BrokenWorkflow
parameters_schema:
  type: object
  properties:
    mode:
      type: string
      enum: [detect, protect]
      default: destroy
`)
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum")
}

func TestValidate_RejectsDefaultForUndeclaredParameter(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	def.DefaultParameters = map[string]interface{}{"ghost": 1}

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidateParams(t *testing.T) {
	def := parseDefinition(t, gitleaksMetadata)
	schema := def.ParametersSchema

	assert.NoError(t, schema.ValidateParams(map[string]interface{}{
		"scan_mode": "protect",
		"no_git":    false,
	}))

	err := schema.ValidateParams(map[string]interface{}{"ghost": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "scan_mode")

	err = schema.ValidateParams(map[string]interface{}{"no_git": "yes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_git")
}

func TestValidateParams_RequiredMissing(t *testing.T) {
	schema := &ParametersSchema{
		Type:     "object",
		Required: []string{"duration_seconds"},
		Properties: []ParameterProperty{
			{Name: "duration_seconds", Type: "integer"},
		},
	}

	err := schema.ValidateParams(map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_seconds")

	assert.NoError(t, schema.ValidateParams(map[string]interface{}{"duration_seconds": 600}))
}

func TestValidateParams_NilSchema(t *testing.T) {
	var schema *ParametersSchema
	assert.NoError(t, schema.ValidateParams(nil))
	assert.Error(t, schema.ValidateParams(map[string]interface{}{"x": 1}))
}

func TestMatchesType(t *testing.T) {
	tests := []struct {
		typ   string
		value interface{}
		ok    bool
	}{
		{"string", "x", true},
		{"string", 3, false},
		{"boolean", true, true},
		{"boolean", "true", false},
		{"integer", 3, true},
		{"integer", 3.0, true},
		{"integer", 3.5, false},
		{"number", 3.5, true},
		{"number", 3, true},
		{"number", "3", false},
		{"object", map[string]interface{}{"a": 1}, true},
		{"object", []interface{}{1}, false},
		{"array", []interface{}{1}, true},
		{"array", "not-array", false},
		{"", "anything", true},
		{"custom_type", struct{}{}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, matchesType(tt.value, tt.typ), "type=%s value=%v", tt.typ, tt.value)
	}
}
