// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package bootstrap brings the engine, object store, and workflow registry
// online in the background so the HTTP surface can serve introspection
// from the first moment of process life.
package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/metrics"
)

// State is the bring-up lifecycle phase.
type State string

const (
	StateNotStarted State = "not_started"
	StateStarting   State = "starting"
	StateReady      State = "ready"
	StateError      State = "error"
	StateCancelled  State = "cancelled"
)

var bootstrapAttempts = metrics.NewCounterVec("bootstrap_attempts", "bring-up attempts by result", []string{"result"})

// EngineHealth is the slice of the engine client bring-up needs.
type EngineHealth interface {
	CheckHealth(ctx context.Context) error
}

// BucketEnsurer is the slice of the object store bring-up needs.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

// WorkflowLoader is the slice of the registry bring-up needs.
type WorkflowLoader interface {
	Clear()
	Load(root string) int
}

// Snapshot is the bootstrap view embedded in status responses.
type Snapshot struct {
	Ready     bool   `json:"ready"`
	Status    State  `json:"status"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

// Bootstrap owns the retry loop and the state it exposes. All state is
// behind one mutex; reads are a snapshot copy.
type Bootstrap struct {
	engine       EngineHealth
	store        BucketEnsurer
	reg          WorkflowLoader
	workflowsDir string
	base         time.Duration
	max          time.Duration

	mu        sync.Mutex
	state     State
	attempts  int
	lastError string
}

// New wires the bring-up dependencies. Run must be started separately.
func New(eng EngineHealth, store BucketEnsurer, reg WorkflowLoader, workflowsDir string, cfg config.BootstrapConfig) *Bootstrap {
	return &Bootstrap{
		engine:       eng,
		store:        store,
		reg:          reg,
		workflowsDir: workflowsDir,
		base:         cfg.GetRetryInterval(),
		max:          cfg.GetRetryMaxInterval(),
		state:        StateNotStarted,
	}
}

// Run drives bring-up attempts until one succeeds or ctx is cancelled.
// It is meant to run in its own goroutine next to the HTTP server, which
// serves "initialising" responses in the meantime.
func (b *Bootstrap) Run(ctx context.Context) {
	bo := newBackOff(b.base, b.max)
	notify := func(err error, delay time.Duration) {
		log.Warnf("Bootstrap attempt %d failed: %v, retrying in %s", b.Snapshot().Attempts, err, delay)
	}
	err := backoff.RetryNotify(func() error {
		return b.attempt(ctx)
	}, backoff.WithContext(bo, ctx), notify)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		b.setState(StateCancelled)
		log.Infof("Bootstrap cancelled during shutdown")
		return
	}
	// No elapsed-time bound and no permanent errors, so the loop only
	// ends with the context.
	log.Errorf("Bootstrap loop stopped unexpectedly: %v", err)
}

// newBackOff yields delays base, 2*base, 4*base, ... capped at max, with
// no jitter and no total-time bound.
func newBackOff(base, max time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.MaxInterval = max
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// attempt performs one full bring-up pass. The registry is cleared first
// so a failed pass never leaves a partial snapshot visible.
func (b *Bootstrap) attempt(ctx context.Context) error {
	n := b.begin()
	log.Infof("Bootstrap attempt %d: connecting to engine and object store", n)

	b.reg.Clear()

	if err := b.store.EnsureBucket(ctx); err != nil {
		return b.fail(err)
	}
	if err := b.engine.CheckHealth(ctx); err != nil {
		return b.fail(err)
	}
	loaded := b.reg.Load(b.workflowsDir)

	b.mu.Lock()
	b.state = StateReady
	b.lastError = ""
	b.mu.Unlock()
	bootstrapAttempts.Inc("ok")
	log.Infof("Bootstrap ready after %d attempt(s): %d workflows registered", n, loaded)
	return nil
}

func (b *Bootstrap) begin() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateStarting
	b.attempts++
	return b.attempts
}

func (b *Bootstrap) fail(err error) error {
	b.mu.Lock()
	b.state = StateError
	b.lastError = err.Error()
	b.mu.Unlock()
	bootstrapAttempts.Inc("error")
	return err
}

func (b *Bootstrap) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// IsReady gates the engine-dependent endpoints.
func (b *Bootstrap) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateReady
}

// Snapshot returns a copy of the current state for status responses.
func (b *Bootstrap) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Snapshot{
		Ready:     b.state == StateReady,
		Status:    b.state,
		Attempts:  b.attempts,
		LastError: b.lastError,
	}
}
