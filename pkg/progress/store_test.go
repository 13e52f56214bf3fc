// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
)

func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscriber channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// ===== Track lifecycle tests =====

func TestInitIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Init("fuzz_campaign-aabbccdd", "fuzz_campaign")

	require.NoError(t, s.PutStats("fuzz_campaign-aabbccdd", &FuzzingStats{Executions: 10}))

	// A second Init must not wipe the live snapshot.
	s.Init("fuzz_campaign-aabbccdd", "fuzz_campaign")
	stats, err := s.ReadStats("fuzz_campaign-aabbccdd")
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Executions)
}

func TestUnknownRunReturnsNotFound(t *testing.T) {
	s := NewStore()

	_, err := s.ReadStats("missing-00000000")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	err = s.PutStats("missing-00000000", &FuzzingStats{})
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	_, err = s.Subscribe("missing-00000000")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestPurgeIdempotentAfterFirstSuccess(t *testing.T) {
	s := NewStore()
	s.Init("run-00000001", "fuzz_campaign")

	sub, err := s.Subscribe("run-00000001")
	require.NoError(t, err)

	require.NoError(t, s.Purge("run-00000001"))

	// Subscriber channel drains and closes.
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed after purge")
	}

	// Second purge: the run is unknown again.
	err = s.Purge("run-00000001")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

// ===== Validation tests =====

func TestPutStatsRejectsRegression(t *testing.T) {
	s := NewStore()
	s.Init("run-00000002", "fuzz_campaign")

	require.NoError(t, s.PutStats("run-00000002", &FuzzingStats{Executions: 100, ElapsedSeconds: 5}))

	err := s.PutStats("run-00000002", &FuzzingStats{Executions: 50, ElapsedSeconds: 6})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidationError))

	// The rejected snapshot must not replace the accepted one.
	stats, err := s.ReadStats("run-00000002")
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.Executions)
}

func TestPutStatsRejectsNegativeCounters(t *testing.T) {
	s := NewStore()
	s.Init("run-00000003", "fuzz_campaign")

	err := s.PutStats("run-00000003", &FuzzingStats{Executions: -1})
	assert.True(t, errors.IsKind(err, errors.KindValidationError))
}

func TestCrashValidation(t *testing.T) {
	tests := []struct {
		name    string
		crash   CrashReport
		wantErr bool
		wantSev string
	}{
		{name: "defaults severity", crash: CrashReport{CrashID: "c1"}, wantSev: SeverityMedium},
		{name: "keeps declared severity", crash: CrashReport{CrashID: "c2", Severity: SeverityHigh}, wantSev: SeverityHigh},
		{name: "missing crash id", crash: CrashReport{}, wantErr: true},
		{name: "unknown severity", crash: CrashReport{CrashID: "c3", Severity: "catastrophic"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.crash.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSev, tt.crash.Severity)
		})
	}
}

// ===== Fan-out tests =====

func TestTwoSubscribersObserveEventsInOrder(t *testing.T) {
	s := NewStore()
	s.Init("run-00000004", "fuzz_campaign")

	sub1, err := s.Subscribe("run-00000004")
	require.NoError(t, err)
	sub2, err := s.Subscribe("run-00000004")
	require.NoError(t, err)

	require.NoError(t, s.PutStats("run-00000004", &FuzzingStats{Executions: 100}))
	require.NoError(t, s.AppendCrash("run-00000004", &CrashReport{CrashID: "c1"}))

	for _, sub := range []*Subscriber{sub1, sub2} {
		ev := recvEvent(t, sub)
		require.Equal(t, EventStatsUpdate, ev.Type)
		assert.Equal(t, int64(100), ev.Data.(FuzzingStats).Executions)

		ev = recvEvent(t, sub)
		require.Equal(t, EventCrashReport, ev.Type)
		assert.Equal(t, "c1", ev.Data.(CrashReport).CrashID)

		ev = recvEvent(t, sub)
		require.Equal(t, EventStatsUpdate, ev.Type)
		assert.Equal(t, int64(1), ev.Data.(FuzzingStats).Crashes)
	}
}

func TestAppendCrashStampsLastCrashAt(t *testing.T) {
	s := NewStore()
	s.Init("run-00000005", "fuzz_campaign")

	require.NoError(t, s.AppendCrash("run-00000005", &CrashReport{CrashID: "c1"}))

	stats, err := s.ReadStats("run-00000005")
	require.NoError(t, err)
	require.NotNil(t, stats.LastCrashAt)
	assert.Equal(t, int64(1), stats.Crashes)

	crashes, err := s.ReadCrashes("run-00000005")
	require.NoError(t, err)
	require.Len(t, crashes, 1)
	assert.Equal(t, SeverityMedium, crashes[0].Severity)
	assert.False(t, crashes[0].Timestamp.IsZero())
}

func TestSubscriberObservesMonotoneCounters(t *testing.T) {
	s := NewStore()
	s.Init("run-00000006", "fuzz_campaign")

	sub, err := s.Subscribe("run-00000006")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.PutStats("run-00000006", &FuzzingStats{
			Executions:     int64(i * 100),
			ElapsedSeconds: float64(i),
		}))
	}

	var last int64 = -1
	for i := 0; i < 5; i++ {
		ev := recvEvent(t, sub)
		require.Equal(t, EventStatsUpdate, ev.Type)
		got := ev.Data.(FuzzingStats).Executions
		assert.Greater(t, got, last)
		last = got
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore()
	s.Init("run-00000007", "fuzz_campaign")

	sub, err := s.Subscribe("run-00000007")
	require.NoError(t, err)
	s.Unsubscribe("run-00000007", sub)

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// Events posted after the unsubscribe must not block the store.
	require.NoError(t, s.PutStats("run-00000007", &FuzzingStats{Executions: 1}))
}

// ===== Overflow tests =====

func TestOverflowDropsStatsButKeepsCrashes(t *testing.T) {
	s := NewStore()
	s.Init("run-00000008", "fuzz_campaign")

	sub, err := s.Subscribe("run-00000008")
	require.NoError(t, err)

	// No consumer: the pump parks one event in the unbuffered send, the
	// rest back up in the queue.
	crashCount := 10
	for i := 0; i < crashCount; i++ {
		require.NoError(t, s.AppendCrash("run-00000008", &CrashReport{CrashID: fmt.Sprintf("c%d", i)}))
	}
	for i := 0; i < subscriberQueueLimit*3; i++ {
		require.NoError(t, s.PutStats("run-00000008", &FuzzingStats{
			Executions: int64(crashCount*100 + i),
			Crashes:    int64(crashCount),
		}))
	}

	// Drain everything; every crash must still be delivered.
	seen := map[string]bool{}
	total := 0
	for {
		select {
		case ev := <-sub.Events():
			total++
			if ev.Type == EventCrashReport {
				seen[ev.Data.(CrashReport).CrashID] = true
			}
		case <-time.After(500 * time.Millisecond):
			assert.Len(t, seen, crashCount, "crash frames must never be dropped")
			assert.Less(t, total, crashCount*2+subscriberQueueLimit*3+2, "stats frames should have been dropped")
			return
		}
	}
}
