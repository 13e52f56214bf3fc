// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// MetadataFileName is the manifest every workflow directory must carry.
const MetadataFileName = "metadata.yaml"

// Discover sweeps the immediate subdirectories of root and returns the
// definitions it accepts, keyed by workflow name. One malformed workflow
// never aborts the sweep: it is logged and excluded. A missing or empty
// root yields an empty map, not an error.
func Discover(root string) map[string]*WorkflowDefinition {
	defs := make(map[string]*WorkflowDefinition)
	sources := make(map[string]string)

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Workflows dir %s does not exist, registry will be empty", root)
		} else {
			log.Warnf("Failed to read workflows dir %s: %v", root, err)
		}
		return defs
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		def, err := loadDefinition(dir)
		if err != nil {
			log.Warnf("Skipping workflow dir %s: %v", entry.Name(), err)
			continue
		}
		if def == nil {
			log.Debugf("Ignoring dir %s: no %s", entry.Name(), MetadataFileName)
			continue
		}
		if _, taken := defs[def.Name]; taken {
			log.Warnf("Workflow name collision: %q from %s already registered from %s, keeping the first",
				def.Name, entry.Name(), sources[def.Name])
			continue
		}
		defs[def.Name] = def
		sources[def.Name] = entry.Name()
		log.Infof("Discovered workflow %s (vertical=%s, version=%s)", def.Name, def.Vertical, def.Version)
	}
	return defs
}

// loadDefinition parses and validates the manifest under dir. A missing
// manifest returns (nil, nil) so callers can tell "not a workflow dir"
// apart from "broken workflow dir".
func loadDefinition(dir string) (*WorkflowDefinition, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", MetadataFileName, err)
	}

	var def WorkflowDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MetadataFileName, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
