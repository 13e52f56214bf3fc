// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/registry"
)

func gitleaksSchema() *registry.ParametersSchema {
	return &registry.ParametersSchema{
		Type: "object",
		Properties: []registry.ParameterProperty{
			{Name: "scan_mode", Type: "string", Default: "detect"},
			{Name: "no_git", Type: "boolean", Default: true},
			{Name: "redact", Type: "boolean", Default: false},
		},
	}
}

func TestBuildArgs_FollowsDeclarationOrder(t *testing.T) {
	def := &registry.WorkflowDefinition{
		Name:             "gitleaks_detection",
		Vertical:         "secrets",
		EntryType:        "GitleaksDetectionWorkflow",
		ParametersSchema: gitleaksSchema(),
	}

	// Defaults fill every slot when the caller sends no parameters.
	args := BuildArgs("tgt-123", def.ParametersSchema, def.EffectiveDefaults())

	require.Len(t, args, 4)
	assert.Equal(t, "tgt-123", args[0])
	assert.Equal(t, "detect", args[1])
	assert.Equal(t, true, args[2])
	assert.Equal(t, false, args[3])
}

func TestBuildArgs_UserValuesOverrideDefaults(t *testing.T) {
	def := &registry.WorkflowDefinition{
		Name:             "gitleaks_detection",
		Vertical:         "secrets",
		EntryType:        "GitleaksDetectionWorkflow",
		ParametersSchema: gitleaksSchema(),
	}

	merged := def.EffectiveDefaults()
	merged["redact"] = true

	args := BuildArgs("tgt-123", def.ParametersSchema, merged)

	require.Len(t, args, 4)
	assert.Equal(t, true, args[3])
}

func TestBuildArgs_MissingParameterBecomesNil(t *testing.T) {
	args := BuildArgs("tgt-1", gitleaksSchema(), map[string]interface{}{
		"scan_mode": "protect",
	})

	require.Len(t, args, 4)
	assert.Equal(t, "protect", args[1])
	assert.Nil(t, args[2])
	assert.Nil(t, args[3])
}

func TestBuildArgs_ConfigPropertyNilBecomesEmptyObject(t *testing.T) {
	schema := &registry.ParametersSchema{
		Type: "object",
		Properties: []registry.ParameterProperty{
			{Name: "duration_seconds", Type: "integer", Default: 600},
			{Name: "engine_config", Type: "object"},
		},
	}

	args := BuildArgs("tgt-9", schema, map[string]interface{}{"duration_seconds": 30})
	require.Len(t, args, 3)
	assert.Equal(t, map[string]interface{}{}, args[2])

	// An explicit null gets the same treatment.
	args = BuildArgs("tgt-9", schema, map[string]interface{}{"engine_config": nil})
	require.Len(t, args, 3)
	assert.Equal(t, map[string]interface{}{}, args[2])

	// A populated config object passes through untouched.
	args = BuildArgs("tgt-9", schema, map[string]interface{}{
		"engine_config": map[string]interface{}{"max_len": 4096},
	})
	assert.Equal(t, map[string]interface{}{"max_len": 4096}, args[2])
}

func TestBuildArgs_NilSchemaYieldsTargetOnly(t *testing.T) {
	args := BuildArgs("tgt-1", nil, map[string]interface{}{"ignored": true})
	assert.Equal(t, []interface{}{"tgt-1"}, args)
}
