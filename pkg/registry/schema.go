// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package registry

// MetadataSchema describes the manifest shape workflow authors must
// follow. Served verbatim on the metadata-schema endpoint.
func MetadataSchema() map[string]interface{} {
	return map[string]interface{}{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"title":    "Workflow Metadata",
		"type":     "object",
		"required": []string{"name", "vertical", "entry_type"},
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Unique workflow identifier, also the run-id prefix",
				"pattern":     "^[a-z0-9_]+$",
			},
			"version": map[string]interface{}{
				"type":        "string",
				"description": "Semantic version of the workflow definition",
			},
			"description": map[string]interface{}{
				"type": "string",
			},
			"author": map[string]interface{}{
				"type": "string",
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Capability labels; the fuzzing tag enables live progress",
			},
			"vertical": map[string]interface{}{
				"type":        "string",
				"description": "Capability label selecting the <vertical>-queue task queue and worker image",
			},
			"entry_type": map[string]interface{}{
				"type":        "string",
				"description": "Engine-side workflow class identifier",
			},
			"required_modules": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"parameters_schema": map[string]interface{}{
				"type":        "object",
				"description": "JSON-Schema-like parameter declaration; property order is the positional argument order",
				"properties": map[string]interface{}{
					"type":     map[string]interface{}{"type": "string"},
					"required": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"properties": map[string]interface{}{
						"type": "object",
						"additionalProperties": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"type":        map[string]interface{}{"type": "string"},
								"description": map[string]interface{}{"type": "string"},
								"default":     map[string]interface{}{},
								"enum":        map[string]interface{}{"type": "array"},
							},
						},
					},
				},
			},
			"default_parameters": map[string]interface{}{
				"type":        "object",
				"description": "Explicit defaults; win over schema-embedded property defaults",
			},
		},
	}
}
