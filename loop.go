package zeno

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	// DefaultFlushThreshold is the new-frame delta, in seconds, above which
	// Handle waits for pending transitions before reconciling effects.
	DefaultFlushThreshold = 0.004
	// DefaultFlushTimeout bounds that wait.
	DefaultFlushTimeout = 50 * time.Millisecond
)

// LoopConfig tunes a Loop. Zero fields take their defaults.
type LoopConfig struct {
	// FlushThreshold is the frame delta in seconds that triggers a blocking
	// flush before effects are reconciled. Negative disables the flush and
	// zero takes DefaultFlushThreshold. To flush on every frame that moves
	// the clock, use math.SmallestNonzeroFloat64.
	FlushThreshold float64
	// FlushTimeout bounds the flush. After it expires Handle proceeds with
	// whatever state is current.
	FlushTimeout time.Duration
	// View converts a state into something DrawableOf understands. Nil draws
	// the state itself as text.
	View func(State) any
	// Debug logs dropped events, skipped effects and flush timeouts to stderr.
	Debug bool
}

// DefaultLoopConfig returns the tuned defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		FlushThreshold: DefaultFlushThreshold,
		FlushTimeout:   DefaultFlushTimeout,
	}
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.FlushThreshold == 0 {
		c.FlushThreshold = DefaultFlushThreshold
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = DefaultFlushTimeout
	}
	return c
}

// LoopStats counts what the worker has applied.
type LoopStats struct {
	Applied       uint64 // transitions applied, reducer or raw
	RespondErrors uint64 // reducer failures turned into respond-error events
	Discarded     uint64 // transitions whose result was thrown away
	FxStarted     uint64 // Effect.Run calls
	FlushTimeouts uint64 // flushes that gave up waiting
}

type reporter struct{ h Handler }

// task is one queued transition. Exactly one of reduce or fn is used; a task
// with neither only marks a point in the queue for Flush.
type task struct {
	reduce bool
	event  Event
	fn     Transition
	done   chan struct{}
}

// Loop holds the authoritative game state and applies transitions to it one
// at a time, in the order they were enqueued, on a single worker goroutine.
//
// Handle, Submit and SubmitWait may be called from any goroutine. Sample
// never blocks. Draw must be called from the Ebitengine draw callback.
type Loop struct {
	cfg     LoopConfig
	reducer Reducer
	state   atomic.Pointer[State]

	mu      sync.Mutex
	queue   []task
	closed  bool
	wake    chan struct{}
	stopped chan struct{}

	fxMu    sync.Mutex
	playing map[any]struct{}

	report atomic.Pointer[reporter]

	applied       atomic.Uint64
	respondErrors atomic.Uint64
	discarded     atomic.Uint64
	fxStarted     atomic.Uint64
	flushTimeouts atomic.Uint64
}

// NewLoop starts a Loop holding initial. Events are reduced with r; a nil r
// leaves the state unchanged for every event. Call Close to stop the worker.
func NewLoop(initial State, r Reducer, cfg LoopConfig) *Loop {
	l := &Loop{
		cfg:     cfg.withDefaults(),
		reducer: r,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		playing: make(map[any]struct{}),
	}
	l.state.Store(&initial)
	go l.run()
	return l
}

// Sample returns the current state without waiting for pending transitions.
func (l *Loop) Sample() State {
	return *l.state.Load()
}

// Handle enqueues e for reduction and returns.
//
// A new-frame event first reconciles effects: when its delta exceeds the
// flush threshold Handle waits, bounded by the flush timeout, for earlier
// transitions to land; then every effect in the current fx-queue that was
// not playing on the previous frame is started. The frame itself is reduced
// after that, which is where the deferred queue advances.
//
// Dispatch-error events are handler-only and are not reduced. After Close,
// Handle drops e without flushing or starting effects.
func (l *Loop) Handle(e Event) {
	if e.Kind == EventDispatchError {
		l.debugf("ignoring %s", e)
		return
	}
	if l.isClosed() {
		l.debugf("dropped %s: loop closed", e)
		return
	}
	if e.Kind == EventNewFrame {
		if l.cfg.FlushThreshold >= 0 && e.Delta > l.cfg.FlushThreshold {
			if !l.Flush(l.cfg.FlushTimeout) {
				l.flushTimeouts.Add(1)
				l.debugf("flush timed out after %v; reconciling stale state", l.cfg.FlushTimeout)
			}
		}
		l.reconcile(l.Sample().FxQueue())
	}
	if !l.enqueue(task{reduce: true, event: e}) {
		l.debugf("dropped %s: loop closed", e)
	}
}

// Submit enqueues a raw transition. A transition that panics is discarded.
func (l *Loop) Submit(t Transition) {
	if t == nil {
		return
	}
	if !l.enqueue(task{fn: t}) {
		l.debugf("dropped transition: loop closed")
	}
}

// SubmitWait enqueues t and blocks until it has been applied. It must not be
// called from inside a transition or reducer.
func (l *Loop) SubmitWait(ctx context.Context, t Transition) error {
	done := make(chan struct{})
	if !l.enqueue(task{fn: t, done: done}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every transition enqueued before the call has been
// applied. It reports false if timeout expired first or the loop is closed.
func (l *Loop) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	if !l.enqueue(task{done: done}) {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Close applies everything already queued, stops the worker and rejects
// further transitions. Close must not be called from inside a transition.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.stopped
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.signal()
	<-l.stopped
}

// ReportTo sends render-error events from Draw to h instead of straight to
// Handle. Game points it at its Dispatcher so every attached handler sees
// them. A nil h restores the default.
func (l *Loop) ReportTo(h Handler) {
	if h == nil {
		l.report.Store(nil)
		return
	}
	l.report.Store(&reporter{h})
}

// Playing returns how many effects are currently recorded as playing.
func (l *Loop) Playing() int {
	l.fxMu.Lock()
	defer l.fxMu.Unlock()
	return len(l.playing)
}

// Stats returns a snapshot of the worker counters.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Applied:       l.applied.Load(),
		RespondErrors: l.respondErrors.Load(),
		Discarded:     l.discarded.Load(),
		FxStarted:     l.fxStarted.Load(),
		FlushTimeouts: l.flushTimeouts.Load(),
	}
}

// Draw renders the current state into r. A failure is reported as a
// render-error event, through the ReportTo handler when one is set, and its
// message is drawn in place of the state, so a
// broken view never takes the frame down. Draw always returns nil.
func (l *Loop) Draw(dst *ebiten.Image, r Rect) error {
	s := l.Sample()
	err := drawSafely(func() error {
		var v any = s
		if l.cfg.View != nil {
			v = l.cfg.View(s)
		}
		return DrawableOf(v).Draw(dst, r)
	})
	if err == nil {
		return nil
	}
	if rp := l.report.Load(); rp != nil {
		rp.h.Handle(RenderError(err))
	} else {
		l.Handle(RenderError(err))
	}
	if ferr := drawSafely(func() error {
		return DrawText(dst, err.Error(), r, TextAlignLeft)
	}); ferr != nil {
		warnf("render error fallback failed: %v", ferr)
	}
	return nil
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) enqueue(t task) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, t)
	l.mu.Unlock()
	l.signal()
	return true
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run is the worker. It takes the whole queue at once and applies it in
// order, so a transition enqueued while a batch runs lands in the next one.
func (l *Loop) run() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for i := range batch {
			l.apply(&batch[i])
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-l.wake
		}
	}
}

func (l *Loop) apply(t *task) {
	cur := l.Sample()
	next := cur
	switch {
	case t.reduce:
		next = l.reduce(cur, t.event)
	case t.fn != nil:
		next = l.transition(cur, t.fn)
	}
	if t.reduce || t.fn != nil {
		l.state.Store(&next)
		l.applied.Add(1)
	}
	if t.done != nil {
		close(t.done)
	}
}

// reduce runs the reducer on e. A failure is reduced again as a
// respond-error event; a failing respond-error keeps the current state.
func (l *Loop) reduce(s State, e Event) State {
	next, err := Reduce(l.reducer, s, e)
	if err == nil {
		return next
	}
	if e.Kind == EventRespondError {
		l.discarded.Add(1)
		warnf("discarding %s: %v", e, err)
		return s
	}
	l.respondErrors.Add(1)
	l.debugf("respond %s failed: %v", e, err)
	next, err2 := Reduce(l.reducer, s, RespondError(e, err))
	if err2 != nil {
		l.discarded.Add(1)
		warnf("discarding %s: respond-error also failed: %v", e, err2)
		return s
	}
	return next
}

func (l *Loop) transition(s State, fn Transition) (next State) {
	defer func() {
		if p := recover(); p != nil {
			l.discarded.Add(1)
			warnf("discarding transition: %v", p)
			next = s
		}
	}()
	return fn(s)
}

// reconcile replaces the playing set with queue and starts every effect that
// was not in it before.
func (l *Loop) reconcile(queue []Effect) {
	l.fxMu.Lock()
	playing := make(map[any]struct{}, len(queue))
	var started []Effect
	for _, fx := range queue {
		key, ok := effectKey(fx)
		if !ok {
			l.debugf("skipping effect %T: no comparable identity", fx)
			continue
		}
		if _, dup := playing[key]; dup {
			continue
		}
		playing[key] = struct{}{}
		if _, was := l.playing[key]; !was {
			started = append(started, fx)
		}
	}
	l.playing = playing
	l.fxMu.Unlock()

	for _, fx := range started {
		l.fxStarted.Add(1)
		if err := runEffect(fx, l); err != nil {
			l.debugf("effect %v failed: %v", fx, err)
			l.enqueue(task{reduce: true, event: FxError(fx, fmt.Errorf("run %T: %w", fx, err))})
		}
	}
}
