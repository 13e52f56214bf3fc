// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkflowDefinition is one discovered workflow, immutable after discovery.
// Engine-side code is referenced by the EntryType string only; the
// orchestrator never loads workflow code.
type WorkflowDefinition struct {
	Name              string                 `yaml:"name" json:"name"`
	Version           string                 `yaml:"version" json:"version"`
	Description       string                 `yaml:"description" json:"description"`
	Author            string                 `yaml:"author" json:"author,omitempty"`
	Tags              []string               `yaml:"tags" json:"tags"`
	Vertical          string                 `yaml:"vertical" json:"vertical"`
	EntryType         string                 `yaml:"entry_type" json:"entry_type"`
	RequiredModules   []string               `yaml:"required_modules" json:"required_modules,omitempty"`
	ParametersSchema  *ParametersSchema      `yaml:"parameters_schema" json:"parameters_schema,omitempty"`
	DefaultParameters map[string]interface{} `yaml:"default_parameters" json:"default_parameters,omitempty"`
}

// TaskQueue returns the engine queue the workflow's runs are dispatched to.
func (d *WorkflowDefinition) TaskQueue() string {
	return d.Vertical + "-queue"
}

// HasTag reports whether the definition carries the tag.
func (d *WorkflowDefinition) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsFuzzing reports whether runs of this workflow publish live progress.
// The name heuristic is kept alongside the tag for workflows that predate
// tagging.
func (d *WorkflowDefinition) IsFuzzing() bool {
	return d.HasTag("fuzzing") || strings.Contains(d.Name, "fuzz")
}

// EffectiveDefaults merges schema-embedded property defaults with the
// explicit default_parameters block; the explicit block wins.
func (d *WorkflowDefinition) EffectiveDefaults() map[string]interface{} {
	defaults := make(map[string]interface{})
	if d.ParametersSchema != nil {
		for _, prop := range d.ParametersSchema.Properties {
			if prop.Default != nil {
				defaults[prop.Name] = prop.Default
			}
		}
	}
	for k, v := range d.DefaultParameters {
		defaults[k] = v
	}
	return defaults
}

// Validate enforces the definition contract: identifying fields present,
// every default well-typed against its declared property, enum membership
// respected, and no defaults for undeclared parameters.
func (d *WorkflowDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("metadata is missing required field %q", "name")
	}
	if d.Vertical == "" {
		return fmt.Errorf("workflow %q is missing required field %q", d.Name, "vertical")
	}
	if d.EntryType == "" {
		return fmt.Errorf("workflow %q is missing required field %q", d.Name, "entry_type")
	}
	if d.ParametersSchema != nil {
		for _, prop := range d.ParametersSchema.Properties {
			if err := prop.CheckValue(prop.Default); err != nil {
				return fmt.Errorf("workflow %q property %q: %w", d.Name, prop.Name, err)
			}
		}
	}
	for key, value := range d.DefaultParameters {
		prop, ok := d.property(key)
		if !ok {
			return fmt.Errorf("workflow %q declares a default for undeclared parameter %q", d.Name, key)
		}
		if err := prop.CheckValue(value); err != nil {
			return fmt.Errorf("workflow %q default for %q: %w", d.Name, key, err)
		}
	}
	return nil
}

func (d *WorkflowDefinition) property(name string) (*ParameterProperty, bool) {
	if d.ParametersSchema == nil {
		return nil, false
	}
	return d.ParametersSchema.Property(name)
}

// ParametersSchema is the JSON-Schema-like description of a workflow's
// parameters. Property order is the metadata declaration order and is the
// order positional engine arguments are assembled in, so it is preserved
// through parsing and JSON rendering.
type ParametersSchema struct {
	Type       string
	Required   []string
	Properties []ParameterProperty
}

// ParameterProperty is one named entry of a parameters schema.
type ParameterProperty struct {
	Name        string        `yaml:"-" json:"-"`
	Type        string        `yaml:"type" json:"type,omitempty"`
	Description string        `yaml:"description" json:"description,omitempty"`
	Default     interface{}   `yaml:"default" json:"default,omitempty"`
	Enum        []interface{} `yaml:"enum" json:"enum,omitempty"`
}

// Property returns the named property.
func (s *ParametersSchema) Property(name string) (*ParameterProperty, bool) {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return &s.Properties[i], true
		}
	}
	return nil, false
}

// Keys returns property names in declaration order.
func (s *ParametersSchema) Keys() []string {
	keys := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		keys = append(keys, p.Name)
	}
	return keys
}

// UnmarshalYAML decodes the schema from a mapping node directly so that
// property order survives; a plain map round-trip would randomize it.
func (s *ParametersSchema) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("parameters_schema must be a mapping")
	}
	for i := 0; i < len(value.Content)-1; i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]
		switch keyNode.Value {
		case "type":
			if err := valNode.Decode(&s.Type); err != nil {
				return fmt.Errorf("parameters_schema.type: %w", err)
			}
		case "required":
			if err := valNode.Decode(&s.Required); err != nil {
				return fmt.Errorf("parameters_schema.required: %w", err)
			}
		case "properties":
			if valNode.Kind != yaml.MappingNode {
				return fmt.Errorf("parameters_schema.properties must be a mapping")
			}
			for j := 0; j < len(valNode.Content)-1; j += 2 {
				nameNode := valNode.Content[j]
				propNode := valNode.Content[j+1]
				var prop ParameterProperty
				if err := propNode.Decode(&prop); err != nil {
					return fmt.Errorf("property %q: %w", nameNode.Value, err)
				}
				prop.Name = nameNode.Value
				s.Properties = append(s.Properties, prop)
			}
		}
	}
	return nil
}

// MarshalJSON renders the schema with properties as an object in
// declaration order.
func (s *ParametersSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	typJSON, err := json.Marshal(s.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(typJSON)

	buf.WriteString(`,"properties":{`)
	for i := range s.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		nameJSON, err := json.Marshal(s.Properties[i].Name)
		if err != nil {
			return nil, err
		}
		buf.Write(nameJSON)
		buf.WriteByte(':')
		propJSON, err := json.Marshal(&s.Properties[i])
		if err != nil {
			return nil, err
		}
		buf.Write(propJSON)
	}
	buf.WriteByte('}')

	if len(s.Required) > 0 {
		buf.WriteString(`,"required":`)
		reqJSON, err := json.Marshal(s.Required)
		if err != nil {
			return nil, err
		}
		buf.Write(reqJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidateParams checks a merged parameter map against the schema. Every
// key must be a declared property, every value must satisfy the property's
// type and enum, and every name in Required must be present.
func (s *ParametersSchema) ValidateParams(params map[string]interface{}) error {
	if s == nil {
		if len(params) > 0 {
			return fmt.Errorf("workflow accepts no parameters, got %d", len(params))
		}
		return nil
	}
	for key, value := range params {
		prop, ok := s.Property(key)
		if !ok {
			return fmt.Errorf("unknown parameter %q (declared: %s)", key, strings.Join(s.Keys(), ", "))
		}
		if err := prop.CheckValue(value); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
	}
	for _, name := range s.Required {
		if value, ok := params[name]; !ok || value == nil {
			return fmt.Errorf("required parameter %q is missing", name)
		}
	}
	return nil
}

// CheckValue verifies a value against the property's declared type and
// enum. A nil value always passes.
func (p *ParameterProperty) CheckValue(value interface{}) error {
	if value == nil {
		return nil
	}
	if !matchesType(value, p.Type) {
		return fmt.Errorf("value %v does not match declared type %q", value, p.Type)
	}
	if len(p.Enum) > 0 && !enumContains(p.Enum, value) {
		return fmt.Errorf("value %v is not one of the declared enum values %v", value, p.Enum)
	}
	return nil
}

func matchesType(value interface{}, typ string) bool {
	switch typ {
	case "string", "str":
		_, ok := value.(string)
		return ok
	case "boolean", "bool":
		_, ok := value.(bool)
		return ok
	case "integer", "int":
		switch v := value.(type) {
		case int, int32, int64, uint, uint32, uint64:
			return true
		case float64:
			return v == math.Trunc(v)
		}
		return false
	case "number", "float":
		switch value.(type) {
		case int, int32, int64, uint, uint32, uint64, float32, float64:
			return true
		}
		return false
	case "object", "dict":
		switch value.(type) {
		case map[string]interface{}, map[interface{}]interface{}:
			return true
		}
		return false
	case "array", "list":
		_, ok := value.([]interface{})
		return ok
	case "":
		// Untyped property, anything goes.
		return true
	default:
		// Unknown declared types are not enforced here.
		return true
	}
}

func enumContains(enum []interface{}, value interface{}) bool {
	for _, candidate := range enum {
		if reflect.DeepEqual(candidate, value) {
			return true
		}
	}
	return false
}
