package zeno

import "github.com/hajimehoshi/ebiten/v2"

// Inject queues a synthetic event. Queued events are dispatched one per
// frame, at the start of Update, and real input is not polled on a frame that
// consumed one. Safe to call from any goroutine.
func (g *Game) Inject(e Event) {
	g.injectMu.Lock()
	g.injectQueue = append(g.injectQueue, e)
	g.injectMu.Unlock()
}

// InjectClick is a convenience that queues a press followed by a release at
// the same screen coordinates. Consumes two frames.
func (g *Game) InjectClick(x, y float64) {
	g.Inject(Event{Kind: EventPointerDown, X: x, Y: y, Button: MouseButtonLeft})
	g.Inject(Event{Kind: EventPointerUp, X: x, Y: y, Button: MouseButtonLeft})
}

// InjectKey queues a key-down followed by a key-up for k. Consumes two frames.
func (g *Game) InjectKey(k ebiten.Key) {
	g.Inject(Event{Kind: EventKeyDown, Key: k})
	g.Inject(Event{Kind: EventKeyUp, Key: k})
}

// Pending returns the number of injected events not yet dispatched.
func (g *Game) Pending() int {
	g.injectMu.Lock()
	defer g.injectMu.Unlock()
	return len(g.injectQueue)
}

// processInjected pops one event from the inject queue and dispatches it.
// Returns true if an event was consumed (real input should be skipped).
func (g *Game) processInjected() bool {
	g.injectMu.Lock()
	if len(g.injectQueue) == 0 {
		g.injectMu.Unlock()
		return false
	}
	e := g.injectQueue[0]
	copy(g.injectQueue, g.injectQueue[1:])
	g.injectQueue = g.injectQueue[:len(g.injectQueue)-1]
	g.injectMu.Unlock()
	g.dispatcher.Dispatch(e)
	return true
}
