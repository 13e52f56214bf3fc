// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// Registry holds the current workflow snapshot. It is read-mostly: Load
// and Clear replace the whole map under the write lock, so readers observe
// either the previous snapshot or the next one, never a partial sweep.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*WorkflowDefinition
	loadedAt time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*WorkflowDefinition)}
}

// Load sweeps root and atomically publishes the resulting snapshot.
// Returns the number of definitions accepted.
func (r *Registry) Load(root string) int {
	defs := Discover(root)

	r.mu.Lock()
	r.defs = defs
	r.loadedAt = time.Now()
	r.mu.Unlock()

	log.Infof("Workflow registry loaded %d definitions from %s", len(defs), root)
	return len(defs)
}

// Replace publishes defs as the new snapshot. Definitions failing
// Validate are skipped the same way discovery skips them.
func (r *Registry) Replace(defs map[string]*WorkflowDefinition) int {
	accepted := make(map[string]*WorkflowDefinition, len(defs))
	for name, def := range defs {
		if err := def.Validate(); err != nil {
			log.Warnf("Rejecting workflow %q on replace: %v", name, err)
			continue
		}
		accepted[name] = def
	}

	r.mu.Lock()
	r.defs = accepted
	r.loadedAt = time.Now()
	r.mu.Unlock()
	return len(accepted)
}

// Clear drops the snapshot. Bootstrap calls this at the start of every
// attempt so a stale partial registry is never observable.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.defs = make(map[string]*WorkflowDefinition)
	r.loadedAt = time.Time{}
	r.mu.Unlock()
}

// Get returns the named definition.
func (r *Registry) Get(name string) (*WorkflowDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered workflow names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*WorkflowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*WorkflowDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered workflows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// LoadedAt returns when the current snapshot was published; zero when the
// registry has never loaded or was cleared.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}
