// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package engine

import (
	"strings"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/registry"
)

// configSuffix marks properties that carry nested engine settings.
const configSuffix = "_config"

// BuildArgs assembles the positional argument list for a run: the target
// id first, then one value per schema property in declaration order.
// Properties absent from params are passed as nil so worker signatures
// keep their arity. Config-object properties (names ending in "_config")
// are coerced from nil to an empty object because workers index into
// them without nil checks.
func BuildArgs(targetID string, schema *registry.ParametersSchema, params map[string]interface{}) []interface{} {
	args := []interface{}{targetID}
	if schema == nil {
		return args
	}
	for _, prop := range schema.Properties {
		value := params[prop.Name]
		if value == nil && strings.HasSuffix(prop.Name, configSuffix) {
			value = map[string]interface{}{}
		}
		args = append(args, value)
	}
	return args
}
