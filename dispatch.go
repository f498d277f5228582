package zeno

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Handler observes events. Handlers may have side effects; *Loop is the
// Handler that feeds the reducer.
type Handler interface {
	Handle(e Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Event)

// Handle calls f(e).
func (f HandlerFunc) Handle(e Event) { f(e) }

type handlerEntry struct {
	id uint32
	h  Handler
}

// Dispatcher delivers events to a set of attached handlers. It replaces a
// process-wide handler registry: create one per game and pass it where
// events originate.
//
// Attach and Detach copy the handler list, and Dispatch iterates the copy it
// loaded on entry. A Detach racing with a Dispatch may therefore still see
// that one event delivered.
type Dispatcher struct {
	mu       sync.Mutex
	handlers atomic.Pointer[[]handlerEntry]
	nextID   uint32
	debug    bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Registration allows removing an attached handler.
type Registration struct {
	id uint32
	d  *Dispatcher
}

// Attach adds h after every handler already attached.
func (d *Dispatcher) Attach(h Handler) Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	old := d.load()
	next := make([]handlerEntry, len(old), len(old)+1)
	copy(next, old)
	next = append(next, handlerEntry{id: id, h: h})
	d.handlers.Store(&next)
	return Registration{id: id, d: d}
}

// Detach removes the handler. Calling it more than once is harmless.
func (r Registration) Detach() {
	if r.d == nil {
		return
	}
	r.d.detach(r.id)
}

func (d *Dispatcher) detach(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	old := d.load()
	next := make([]handlerEntry, 0, len(old))
	for _, e := range old {
		if e.id != id {
			next = append(next, e)
		}
	}
	d.handlers.Store(&next)
}

func (d *Dispatcher) load() []handlerEntry {
	if p := d.handlers.Load(); p != nil {
		return *p
	}
	return nil
}

// Len returns the number of attached handlers.
func (d *Dispatcher) Len() int {
	return len(d.load())
}

// SetDebugMode enables logging of every dispatched event to stderr.
func (d *Dispatcher) SetDebugMode(enabled bool) {
	d.mu.Lock()
	d.debug = enabled
	d.mu.Unlock()
}

// Dispatch delivers e to every attached handler in attach order. A handler
// that panics does not stop delivery to the rest; once all have run, a
// dispatch-error event is delivered to the handlers for each failure. A
// failure while delivering a dispatch-error is logged and dropped.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.Lock()
	debug := d.debug
	d.mu.Unlock()
	if debug {
		_, _ = fmt.Fprintf(os.Stderr, "[zeno] dispatch %s\n", e)
	}

	handlers := d.load()
	var failures []error
	for _, entry := range handlers {
		if err := deliver(entry.h, e); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return
	}
	if e.Kind == EventDispatchError {
		for _, err := range failures {
			warnf("dropping dispatch-error: %v", err)
		}
		return
	}
	for _, err := range failures {
		d.Dispatch(DispatchError(e, err))
	}
}

// deliver calls h.Handle(e), converting a panic into an error wrapping
// ErrHandlerPanic.
func deliver(h Handler, e Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %T on %s: %v", ErrHandlerPanic, h, e.Kind, p)
		}
	}()
	h.Handle(e)
	return nil
}
