package zeno

import (
	"context"
	"fmt"
	"reflect"
)

// Transition is a state change submitted to a Loop outside the reducer.
type Transition func(State) State

// Submitter enqueues transitions on a Loop. Effects receive one in Run.
type Submitter interface {
	// Submit enqueues t and returns immediately.
	Submit(t Transition)
	// SubmitWait enqueues t and blocks until it has been applied or ctx is
	// done.
	SubmitWait(ctx context.Context, t Transition) error
}

// Effect is a side-effecting activity requested by the game state through
// its fx-queue. The Loop calls Run once each time the effect newly appears
// in the fx-queue; it is not called again while the effect stays listed.
//
// Run is called on the goroutine that delivered the new-frame event, so
// long-running work should start its own goroutine and report back through
// the Submitter.
//
// Effects are identified by value. Implementations must be comparable, or
// implement EffectKeyer.
type Effect interface {
	Run(sub Submitter) error
}

// EffectKeyer lets an effect supply its own identity.
type EffectKeyer interface {
	EffectKey() any
}

type funcEffect struct {
	key any
	fn  func(Submitter) error
}

// NewEffect returns an Effect identified by key that calls fn when started.
// key must be comparable.
func NewEffect(key any, fn func(Submitter) error) Effect {
	return funcEffect{key: key, fn: fn}
}

func (f funcEffect) Run(sub Submitter) error { return f.fn(sub) }

func (f funcEffect) EffectKey() any { return f.key }

func (f funcEffect) String() string { return fmt.Sprintf("fx(%v)", f.key) }

// effectKey returns the identity used for the playing set. ok is false for
// effects that cannot be used as a map key.
func effectKey(fx Effect) (key any, ok bool) {
	if fx == nil {
		return nil, false
	}
	if k, isKeyer := fx.(EffectKeyer); isKeyer {
		key = k.EffectKey()
	} else {
		key = fx
	}
	if key == nil || !reflect.ValueOf(key).Comparable() {
		return nil, false
	}
	return key, true
}

// runEffect calls fx.Run, converting a panic into an error wrapping
// ErrEffectPanic.
func runEffect(fx Effect, sub Submitter) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrEffectPanic, p)
		}
	}()
	return fx.Run(sub)
}
