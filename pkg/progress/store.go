// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package progress

import (
	"sync"
	"time"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/metrics"
)

// subscriberQueueLimit bounds the per-subscriber backlog. Overflow drops
// the oldest stats frame; crash frames are never dropped.
const subscriberQueueLimit = 64

var (
	activeSubscribers = metrics.NewGaugeVec("progress_subscribers", "active progress subscribers per run", []string{"run_id"})
	droppedFrames     = metrics.NewCounterVec("progress_dropped_frames", "stats frames dropped on subscriber overflow", []string{"run_id"})
)

// Subscriber is one registered progress listener. Events are delivered in
// store acceptance order on the channel returned by Events.
type Subscriber struct {
	out  chan Event
	done chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func newSubscriber() *Subscriber {
	s := &Subscriber{
		out:  make(chan Event),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// Events is the delivery channel. It is closed after Close once the
// backlog drains.
func (s *Subscriber) Events() <-chan Event {
	return s.out
}

// push enqueues an event, evicting the oldest stats frame when the
// backlog is full. An all-crash backlog drops an incoming stats frame
// instead, so crash reports always survive a slow consumer. Reports
// whether a stats frame was dropped.
func (s *Subscriber) push(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	dropped := false
	if len(s.queue) >= subscriberQueueLimit {
		evicted := false
		for i := range s.queue {
			if s.queue[i].Type != EventCrashReport {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				evicted = true
				dropped = true
				break
			}
		}
		if !evicted {
			if ev.Type != EventCrashReport {
				return true
			}
			// Queue is all crashes and another crash arrived: grow past
			// the limit rather than lose it.
		}
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
	return dropped
}

// Close wakes the pump and stops delivery. Safe to call more than once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Subscriber) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// track is the state of one run. Its mutex covers stats, crashes and the
// subscriber set; notification happens after the lock is released so one
// slow subscriber never blocks the worker's next post.
type track struct {
	mu           sync.Mutex
	workflowName string
	stats        FuzzingStats
	crashes      []CrashReport
	subs         map[*Subscriber]struct{}
}

func (t *track) subscribers() []*Subscriber {
	subs := make([]*Subscriber, 0, len(t.subs))
	for s := range t.subs {
		subs = append(subs, s)
	}
	return subs
}

// Store owns every ProgressTrack in the process. The outer lock only
// guards the run map; per-run state has its own lock.
type Store struct {
	mu     sync.RWMutex
	tracks map[string]*track
}

// NewStore returns an empty progress store.
func NewStore() *Store {
	return &Store{tracks: make(map[string]*track)}
}

// Init creates an empty track for the run. Calling it again for a live
// run is a no-op, so submission can initialise without racing a worker's
// first post.
func (s *Store) Init(runID, workflowName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracks[runID]; ok {
		return
	}
	s.tracks[runID] = &track{
		workflowName: workflowName,
		subs:         make(map[*Subscriber]struct{}),
	}
	log.Infof("Progress track initialized for run %s (workflow=%s)", runID, workflowName)
}

func (s *Store) get(runID string) (*track, error) {
	s.mu.RLock()
	t, ok := s.tracks[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.KindNotFound, "no progress track for run %s", runID).WithRunID(runID)
	}
	return t, nil
}

// PutStats replaces the run's snapshot and notifies every subscriber.
// Snapshots that regress a cumulative counter are rejected.
func (s *Store) PutStats(runID string, stats *FuzzingStats) error {
	t, err := s.get(runID)
	if err != nil {
		return err
	}
	if err := stats.Validate(); err != nil {
		return errors.Wrap(err, errors.KindValidationError, "invalid fuzzing stats").WithRunID(runID)
	}

	t.mu.Lock()
	if err := stats.checkMonotonic(&t.stats); err != nil {
		t.mu.Unlock()
		return errors.Wrap(err, errors.KindValidationError, "stats regressed").WithRunID(runID)
	}
	if stats.LastCrashAt == nil {
		stats.LastCrashAt = t.stats.LastCrashAt
	}
	t.stats = *stats
	snapshot := t.stats
	subs := t.subscribers()
	t.mu.Unlock()

	notify(runID, subs, Event{Type: EventStatsUpdate, Data: snapshot})
	return nil
}

// AppendCrash records a crash, bumps the crash counter, and notifies the
// subscribers with the report followed by the updated snapshot.
func (s *Store) AppendCrash(runID string, crash *CrashReport) error {
	t, err := s.get(runID)
	if err != nil {
		return err
	}
	if err := crash.Validate(); err != nil {
		return errors.Wrap(err, errors.KindValidationError, "invalid crash report").WithRunID(runID)
	}
	if crash.Timestamp.IsZero() {
		crash.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	t.crashes = append(t.crashes, *crash)
	t.stats.Crashes++
	at := crash.Timestamp
	t.stats.LastCrashAt = &at
	report := *crash
	snapshot := t.stats
	subs := t.subscribers()
	t.mu.Unlock()

	log.Warnf("Crash %s reported for run %s (severity=%s)", crash.CrashID, runID, crash.Severity)
	notify(runID, subs, Event{Type: EventCrashReport, Data: report})
	notify(runID, subs, Event{Type: EventStatsUpdate, Data: snapshot})
	return nil
}

// ReadStats returns a copy of the current snapshot.
func (s *Store) ReadStats(runID string) (*FuzzingStats, error) {
	t, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.stats
	return &stats, nil
}

// ReadCrashes returns a copy of the crash list in arrival order.
func (s *Store) ReadCrashes(runID string) ([]CrashReport, error) {
	t, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	crashes := make([]CrashReport, len(t.crashes))
	copy(crashes, t.crashes)
	return crashes, nil
}

// WorkflowName returns the workflow the run was submitted from.
func (s *Store) WorkflowName(runID string) (string, error) {
	t, err := s.get(runID)
	if err != nil {
		return "", err
	}
	return t.workflowName, nil
}

// Subscribe registers a listener on the run and returns it.
func (s *Store) Subscribe(runID string) (*Subscriber, error) {
	t, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	sub := newSubscriber()
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	activeSubscribers.Inc(runID)
	return sub, nil
}

// Unsubscribe removes and closes the listener. Unknown subscribers and
// runs are ignored; disconnect paths may race the purge.
func (s *Store) Unsubscribe(runID string, sub *Subscriber) {
	s.mu.RLock()
	t, ok := s.tracks[runID]
	s.mu.RUnlock()
	if ok {
		t.mu.Lock()
		if _, registered := t.subs[sub]; registered {
			delete(t.subs, sub)
			activeSubscribers.Dec(runID)
		}
		t.mu.Unlock()
	}
	sub.Close()
}

// Purge drops the run's state and closes every subscriber. The first call
// for an unknown run returns NotFound; after a successful purge the run is
// simply unknown again, which callers treat as already-purged.
func (s *Store) Purge(runID string) error {
	s.mu.Lock()
	t, ok := s.tracks[runID]
	if ok {
		delete(s.tracks, runID)
	}
	s.mu.Unlock()
	if !ok {
		return errors.Newf(errors.KindNotFound, "no progress track for run %s", runID).WithRunID(runID)
	}

	t.mu.Lock()
	subs := t.subscribers()
	t.subs = make(map[*Subscriber]struct{})
	t.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
		activeSubscribers.Dec(runID)
	}
	activeSubscribers.Delete(runID)
	log.Infof("Progress track purged for run %s (%d subscribers closed)", runID, len(subs))
	return nil
}

// Runs lists the run ids with live tracks.
func (s *Store) Runs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]string, 0, len(s.tracks))
	for runID := range s.tracks {
		runs = append(runs, runID)
	}
	return runs
}

func notify(runID string, subs []*Subscriber, ev Event) {
	for _, sub := range subs {
		if sub.push(ev) {
			droppedFrames.Inc(runID)
		}
	}
}
