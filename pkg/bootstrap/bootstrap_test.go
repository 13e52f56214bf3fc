// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
)

type fakeEngine struct {
	calls    atomic.Int32
	faillast int32
}

// CheckHealth fails until the call count exceeds faillast.
func (f *fakeEngine) CheckHealth(context.Context) error {
	n := f.calls.Add(1)
	if n <= f.faillast {
		return fmt.Errorf("engine unreachable (attempt %d)", n)
	}
	return nil
}

type fakeStore struct {
	calls atomic.Int32
	err   error
}

func (f *fakeStore) EnsureBucket(context.Context) error {
	f.calls.Add(1)
	return f.err
}

type fakeRegistry struct {
	clears atomic.Int32
	loads  atomic.Int32
}

func (f *fakeRegistry) Clear()           { f.clears.Add(1) }
func (f *fakeRegistry) Load(string) int { f.loads.Add(1); return 2 }

func fastRetry() config.BootstrapConfig {
	return config.BootstrapConfig{RetrySeconds: 0.001, RetryMaxSeconds: 0.004}
}

func TestSnapshot_BeforeRun(t *testing.T) {
	b := New(&fakeEngine{}, &fakeStore{}, &fakeRegistry{}, "workflows", fastRetry())

	snap := b.Snapshot()
	assert.False(t, snap.Ready)
	assert.Equal(t, StateNotStarted, snap.Status)
	assert.Zero(t, snap.Attempts)
	assert.Empty(t, snap.LastError)
	assert.False(t, b.IsReady())
}

func TestRun_ReadyOnFirstAttempt(t *testing.T) {
	eng := &fakeEngine{}
	reg := &fakeRegistry{}
	b := New(eng, &fakeStore{}, reg, "workflows", fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	require.Eventually(t, b.IsReady, 2*time.Second, time.Millisecond)

	snap := b.Snapshot()
	assert.Equal(t, StateReady, snap.Status)
	assert.Equal(t, 1, snap.Attempts)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, int32(1), reg.clears.Load())
	assert.Equal(t, int32(1), reg.loads.Load())
}

func TestRun_RetriesUntilEngineComesUp(t *testing.T) {
	eng := &fakeEngine{faillast: 2}
	reg := &fakeRegistry{}
	b := New(eng, &fakeStore{}, reg, "workflows", fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	require.Eventually(t, b.IsReady, 2*time.Second, time.Millisecond)

	snap := b.Snapshot()
	assert.Equal(t, 3, snap.Attempts)
	assert.Empty(t, snap.LastError, "reaching ready clears the last error")
	// Every attempt starts from an empty registry.
	assert.Equal(t, int32(3), reg.clears.Load())
	// Only the successful attempt loads it.
	assert.Equal(t, int32(1), reg.loads.Load())
}

func TestRun_ExposesErrorStateWhileRetrying(t *testing.T) {
	eng := &fakeEngine{faillast: 1 << 30}
	b := New(eng, &fakeStore{}, &fakeRegistry{}, "workflows", fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap := b.Snapshot()
		return snap.Status == StateError && snap.Attempts >= 2
	}, 2*time.Second, time.Millisecond)

	snap := b.Snapshot()
	assert.False(t, snap.Ready)
	assert.Contains(t, snap.LastError, "engine unreachable")

	cancel()
	<-done
	assert.Equal(t, StateCancelled, b.Snapshot().Status)
}

func TestRun_CancelDuringBackoffMovesToCancelled(t *testing.T) {
	eng := &fakeEngine{faillast: 1 << 30}
	// A large base parks the loop in its first backoff sleep.
	b := New(eng, &fakeStore{}, &fakeRegistry{}, "workflows",
		config.BootstrapConfig{RetrySeconds: 3600, RetryMaxSeconds: 7200})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return b.Snapshot().Attempts == 1
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, StateCancelled, b.Snapshot().Status)
	assert.False(t, b.IsReady())
}

func TestRun_StoreFailureBlocksReadiness(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("bucket create denied")}
	eng := &fakeEngine{}
	b := New(eng, store, &fakeRegistry{}, "workflows", fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap := b.Snapshot()
		return snap.Status == StateError && snap.Attempts >= 1
	}, 2*time.Second, time.Millisecond)

	assert.Contains(t, b.Snapshot().LastError, "bucket create denied")
	// The store gate fails before the engine is ever consulted.
	assert.Zero(t, eng.calls.Load())

	cancel()
	<-done
}

func TestNewBackOff_DelaySequence(t *testing.T) {
	bo := newBackOff(5*time.Second, time.Minute)

	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		time.Minute,
		time.Minute,
	}
	for i, expected := range want {
		assert.Equal(t, expected, bo.NextBackOff(), "delay %d", i+1)
	}
}
