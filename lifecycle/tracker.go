/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package lifecycle

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"go.uber.org/zap"

	"github.com/suparena/entitybind/observability"
)

// DefaultInterval is the sweep cadence used when none is configured
const DefaultInterval = 100 * time.Millisecond

// ReleaseFunc is called once for every entry a sweep or Stop removes
type ReleaseFunc func(meta any)

type entry struct {
	alive func() bool
	meta  any
}

// Tracker pairs weakly referenced subjects with metadata
type Tracker struct {
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics

	// mu orders Track against Stop; sweeps never take it.
	mu      sync.RWMutex
	stopped bool

	entries sync.Map // uint64 -> *entry
	seq     atomic.Uint64
	count   atomic.Int64

	listenersMu sync.RWMutex
	listeners   []ReleaseFunc

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Tracker
type Option func(*Tracker)

// WithInterval sets the sweep interval; non-positive values keep the default
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		t.logger = observability.OrNop(logger)
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithReleaseFunc registers a release listener at construction time
func WithReleaseFunc(fn ReleaseFunc) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.listeners = append(t.listeners, fn)
		}
	}
}

// New creates a Tracker and starts its periodic sweep
func New(opts ...Option) *Tracker {
	t := &Tracker{
		interval: DefaultInterval,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.run(ctx)

	return t
}

// Interval returns the configured sweep interval
func (t *Tracker) Interval() time.Duration {
	return t.interval
}

// OnRelease adds a listener notified with the metadata of each collected entry
func (t *Tracker) OnRelease(fn ReleaseFunc) {
	if fn == nil {
		return
	}
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Track registers a weak reference to subject under meta.
// Subject must be a non-nil pointer to a heap-allocated value of non-zero size.
// It returns false for nil arguments, unsupported subjects, or a stopped tracker.
func (t *Tracker) Track(subject, meta any) bool {
	if subject == nil || meta == nil {
		return false
	}
	v := reflect.ValueOf(subject)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Type().Elem().Size() == 0 {
		return false
	}

	wp := weak.Make((*byte)(v.UnsafePointer()))
	return t.add(func() bool { return wp.Value() != nil }, meta)
}

// TrackPointer is the typed form of Track
func TrackPointer[T any](t *Tracker, subject *T, meta any) bool {
	if subject == nil || meta == nil {
		return false
	}
	if reflect.TypeFor[T]().Size() == 0 {
		return false
	}

	wp := weak.Make(subject)
	return t.add(func() bool { return wp.Value() != nil }, meta)
}

func (t *Tracker) add(alive func() bool, meta any) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.stopped {
		return false
	}

	id := t.seq.Add(1)
	t.entries.Store(id, &entry{alive: alive, meta: meta})
	t.metrics.SetTracked(int(t.count.Add(1)))
	return true
}

// Len returns the number of entries currently tracked
func (t *Tracker) Len() int {
	return int(t.count.Load())
}

// Sweep runs one liveness pass and returns how many entries it removed
func (t *Tracker) Sweep() int {
	collected := 0
	t.entries.Range(func(key, value any) bool {
		e := value.(*entry)
		if e.alive() {
			return true
		}
		if _, loaded := t.entries.LoadAndDelete(key); loaded {
			t.count.Add(-1)
			collected++
			t.release(e.meta)
		}
		return true
	})

	t.metrics.ObserveSweep(collected)
	t.metrics.SetTracked(t.Len())
	if collected > 0 {
		t.logger.Debug("lifecycle sweep collected entries",
			zap.Int("collected", collected),
			zap.Int("remaining", t.Len()))
	}
	return collected
}

func (t *Tracker) release(meta any) {
	t.listenersMu.RLock()
	listeners := t.listeners
	t.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(meta)
	}
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Stop halts the sweep and clears all entries, releasing each one so
// metadata owners see their counts drop. It is idempotent.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()

		t.cancel()
		<-t.done

		t.entries.Range(func(key, _ any) bool {
			if v, loaded := t.entries.LoadAndDelete(key); loaded {
				t.count.Add(-1)
				t.release(v.(*entry).meta)
			}
			return true
		})
		t.metrics.SetTracked(t.Len())
		t.logger.Debug("lifecycle tracker stopped")
	})
}

// Stopped reports whether Stop has been called
func (t *Tracker) Stopped() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopped
}
