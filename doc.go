// Package zeno is a thin, live-coding friendly layer over [Ebitengine].
//
// A game is an immutable [State] value. Events flow through a [Reducer] that
// returns the next State; a [Loop] owns the current State and applies every
// transition one at a time, in arrival order, on its own goroutine. Ebitengine
// keeps rendering, input capture and windowing; zeno only adapts them.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	r := zeno.NewResponder()
//	r.OnState(zeno.EventKeyDown, func(s zeno.State, e zeno.Event) zeno.State {
//		return s.With("last-key", e.Key.String())
//	})
//	loop := zeno.NewLoop(zeno.State{}, r, zeno.DefaultLoopConfig())
//	defer loop.Close()
//	zeno.Run(loop, zeno.RunConfig{Title: "My Game", Width: 640, Height: 480})
//
// # Deferred callbacks
//
// [Defer] schedules a state transformation to run once some amount of
// simulated time has passed and [Elapse] advances the clock, firing due
// callbacks in time order. The Responder returned by [NewResponder] calls
// Elapse on every new-frame event:
//
//	s = zeno.Defer(s, 1.5, func(s zeno.State) zeno.State {
//		return s.With("door", "open")
//	})
//
// # Effects
//
// Long-running side effects are requested by listing an [Effect] in the
// state's fx-queue. The Loop starts each effect once when it first appears
// and forgets it when the state stops listing it. Effects talk back through a
// [Submitter]. [TweenFx] animates a value with [gween].
//
// # Errors
//
// Nothing in the pipeline is fatal. A failing reducer is retried once with a
// respond-error event, a failing effect produces an fx-error event, a
// panicking handler produces a dispatch-error for the other handlers and a
// failing view produces a render-error while its message is drawn instead.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package zeno
