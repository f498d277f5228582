package zeno

import (
	"errors"
	"fmt"
)

var (
	// ErrReducerPanic wraps a panic raised by a Reducer.
	ErrReducerPanic = errors.New("zeno: reducer panicked")
	// ErrEffectPanic wraps a panic raised by Effect.Run.
	ErrEffectPanic = errors.New("zeno: effect panicked")
	// ErrDrawPanic wraps a panic raised by a Drawable.
	ErrDrawPanic = errors.New("zeno: draw panicked")
	// ErrHandlerPanic wraps a panic raised by a Handler during Dispatch.
	ErrHandlerPanic = errors.New("zeno: handler panicked")
	// ErrClosed is returned when submitting to a closed Loop.
	ErrClosed = errors.New("zeno: loop closed")
)

// Reducer maps a state and an event to the next state. Reducers must be pure:
// the Loop may call one again with a respond-error event after a failure.
type Reducer interface {
	Respond(s State, e Event) (State, error)
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(s State, e Event) (State, error)

// Respond calls f(s, e).
func (f ReducerFunc) Respond(s State, e Event) (State, error) {
	return f(s, e)
}

// Reduce calls r with panic containment. A panic is returned as an error
// wrapping ErrReducerPanic and the input state. A nil reducer is identity.
func Reduce(r Reducer, s State, e Event) (next State, err error) {
	if r == nil {
		return s, nil
	}
	defer func() {
		if p := recover(); p != nil {
			next = s
			err = fmt.Errorf("%w: %s: %v", ErrReducerPanic, e.Kind, p)
		}
	}()
	return r.Respond(s, e)
}

// Responder is a dispatch table from event kind to reducer function.
// Kinds without an entry leave the state unchanged.
//
// A Responder is not safe for concurrent registration; register everything
// before handing it to a Loop.
type Responder struct {
	table map[EventKind]ReducerFunc
}

// NewResponder returns a Responder that already advances the deferred queue
// on every new-frame event. Override EventNewFrame with On to take over the
// clock; call Elapse from the replacement to keep deferred callbacks firing.
func NewResponder() *Responder {
	r := &Responder{table: make(map[EventKind]ReducerFunc)}
	r.On(EventNewFrame, func(s State, e Event) (State, error) {
		return Elapse(s, e.Delta, r)
	})
	return r
}

// On registers fn for kind, replacing any previous entry.
func (r *Responder) On(kind EventKind, fn func(State, Event) (State, error)) *Responder {
	if r.table == nil {
		r.table = make(map[EventKind]ReducerFunc)
	}
	r.table[kind] = fn
	return r
}

// OnState registers a function that cannot fail.
func (r *Responder) OnState(kind EventKind, fn func(State, Event) State) *Responder {
	return r.On(kind, func(s State, e Event) (State, error) {
		return fn(s, e), nil
	})
}

// Off removes the entry for kind so it falls back to identity.
func (r *Responder) Off(kind EventKind) {
	delete(r.table, kind)
}

// Handles reports whether kind has a registered function.
func (r *Responder) Handles(kind EventKind) bool {
	_, ok := r.table[kind]
	return ok
}

// Respond implements Reducer.
func (r *Responder) Respond(s State, e Event) (State, error) {
	fn, ok := r.table[e.Kind]
	if !ok {
		return s, nil
	}
	return fn(s, e)
}
