package zeno

import (
	"fmt"
	"sort"
	"strings"
)

// State is the immutable value representing the whole game at one instant.
//
// Every method that "changes" a State returns a new value and leaves the
// receiver untouched. Slices and maps are never shared writable between two
// States, so a State can be handed to another goroutine (for example the
// render thread via Loop.Sample) without copying.
//
// Besides arbitrary keyed values a State carries three reserved parts: the
// simulated clock (Elapsed), the deferred callback queue (see Defer and
// Elapse) and the fx-queue of effects the game currently requests (FxQueue).
// The zero State is a valid empty state.
type State struct {
	elapsed  float64
	deferred []bucket
	fx       []Effect
	values   map[string]any
}

// bucket holds every callback scheduled for one exact run-time, in the order
// they were deferred.
type bucket struct {
	at        float64
	callbacks []Callback
}

// NewState creates a state holding a copy of values.
func NewState(values map[string]any) State {
	var s State
	if len(values) > 0 {
		s.values = make(map[string]any, len(values))
		for k, v := range values {
			s.values[k] = v
		}
	}
	return s
}

// Elapsed returns the simulated time in seconds.
func (s State) Elapsed() float64 {
	return s.elapsed
}

// Get returns the value stored under key.
func (s State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Float returns the value under key as a float64. Integer values are
// converted; anything else reports false.
func (s State) Float(key string) (float64, bool) {
	switch v := s.values[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

// Has reports whether key is present.
func (s State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// With returns a copy of s with key set to v.
func (s State) With(key string, v any) State {
	values := make(map[string]any, len(s.values)+1)
	for k, old := range s.values {
		values[k] = old
	}
	values[key] = v
	s.values = values
	return s
}

// Update returns a copy of s with key replaced by fn applied to the current
// value (nil when absent).
func (s State) Update(key string, fn func(any) any) State {
	return s.With(key, fn(s.values[key]))
}

// Without returns a copy of s with key removed.
func (s State) Without(key string) State {
	if _, ok := s.values[key]; !ok {
		return s
	}
	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if k != key {
			values[k] = v
		}
	}
	s.values = values
	return s
}

// Keys returns the user keys in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of user keys.
func (s State) Len() int {
	return len(s.values)
}

// Values returns a copy of the user values.
func (s State) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// FxQueue returns a copy of the effects the state currently requests.
func (s State) FxQueue() []Effect {
	if len(s.fx) == 0 {
		return nil
	}
	out := make([]Effect, len(s.fx))
	copy(out, s.fx)
	return out
}

// WithFx returns a copy of s whose fx-queue is exactly fx.
func (s State) WithFx(fx ...Effect) State {
	if len(fx) == 0 {
		s.fx = nil
		return s
	}
	s.fx = make([]Effect, len(fx))
	copy(s.fx, fx)
	return s
}

// AddFx returns a copy of s with fx appended to the fx-queue.
func (s State) AddFx(fx Effect) State {
	queue := make([]Effect, len(s.fx), len(s.fx)+1)
	copy(queue, s.fx)
	s.fx = append(queue, fx)
	return s
}

// Pending returns the run-times of every deferred bucket in ascending order.
func (s State) Pending() []float64 {
	out := make([]float64, len(s.deferred))
	for i, b := range s.deferred {
		out[i] = b.at
	}
	return out
}

// PendingCount returns the number of deferred callbacks still queued.
func (s State) PendingCount() int {
	n := 0
	for _, b := range s.deferred {
		n += len(b.callbacks)
	}
	return n
}

// String renders the state for the text fallback drawable. Keys are sorted
// so that the output is stable frame to frame.
func (s State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "elapsed: %.3f", s.elapsed)
	if n := s.PendingCount(); n > 0 {
		fmt.Fprintf(&b, "\ndeferred: %d", n)
	}
	if len(s.fx) > 0 {
		fmt.Fprintf(&b, "\nfx: %d", len(s.fx))
	}
	for _, k := range s.Keys() {
		fmt.Fprintf(&b, "\n%s: %v", k, s.values[k])
	}
	return b.String()
}

// withElapsed returns a copy of s with the clock set to t.
func (s State) withElapsed(t float64) State {
	s.elapsed = t
	return s
}

// withDeferred returns a copy of s with fn appended to the bucket at runTime,
// creating the bucket in sorted position when absent.
func (s State) withDeferred(runTime float64, fn Callback) State {
	i := sort.Search(len(s.deferred), func(i int) bool {
		return s.deferred[i].at >= runTime
	})
	if i < len(s.deferred) && s.deferred[i].at == runTime {
		queue := make([]bucket, len(s.deferred))
		copy(queue, s.deferred)
		old := queue[i].callbacks
		cbs := make([]Callback, len(old), len(old)+1)
		copy(cbs, old)
		queue[i].callbacks = append(cbs, fn)
		s.deferred = queue
		return s
	}
	queue := make([]bucket, 0, len(s.deferred)+1)
	queue = append(queue, s.deferred[:i]...)
	queue = append(queue, bucket{at: runTime, callbacks: []Callback{fn}})
	queue = append(queue, s.deferred[i:]...)
	s.deferred = queue
	return s
}

// popDue removes and returns the earliest bucket when its run-time is at or
// before target.
func (s State) popDue(target float64) (bucket, State, bool) {
	if len(s.deferred) == 0 || s.deferred[0].at > target {
		return bucket{}, s, false
	}
	b := s.deferred[0]
	if len(s.deferred) == 1 {
		s.deferred = nil
	} else {
		s.deferred = s.deferred[1:]
	}
	return b, s, true
}
