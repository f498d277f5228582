package zeno

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// EventKind discriminates events. Applications define their own kinds
// starting at EventUser.
type EventKind uint16

const (
	EventNewFrame      EventKind = iota // one rendering frame; Delta holds seconds
	EventElapsed                        // simulated time advanced by Delta
	EventRespondError                   // the reducer failed on Cause with Err
	EventFxError                        // Effect.Run failed with Err
	EventDispatchError                  // a handler failed while receiving Cause
	EventRenderError                    // drawing the current state failed with Err
	EventKeyDown                        // Key was pressed
	EventKeyUp                          // Key was released
	EventKeyTyped                       // Char was typed
	EventPointerDown                    // Button pressed at (X, Y)
	EventPointerUp                      // Button released at (X, Y)
	EventPointerMove                    // pointer moved to (X, Y)
	EventScroll                         // wheel moved by (X, Y)
	EventResize                         // window resized to Width x Height

	// EventUser is the first kind available to applications.
	EventUser EventKind = 256
)

var eventKindNames = [...]string{
	EventNewFrame:      "new-frame",
	EventElapsed:       "elapsed",
	EventRespondError:  "respond-error",
	EventFxError:       "fx-error",
	EventDispatchError: "dispatch-error",
	EventRenderError:   "render-error",
	EventKeyDown:       "key-down",
	EventKeyUp:         "key-up",
	EventKeyTyped:      "key-typed",
	EventPointerDown:   "pointer-down",
	EventPointerUp:     "pointer-up",
	EventPointerMove:   "pointer-move",
	EventScroll:        "scroll",
	EventResize:        "resize",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) && eventKindNames[k] != "" {
		return eventKindNames[k]
	}
	if k >= EventUser {
		return fmt.Sprintf("user+%d", k-EventUser)
	}
	return fmt.Sprintf("EventKind(%d)", uint16(k))
}

// ParseEventKind returns the built-in kind with the given name.
func ParseEventKind(name string) (EventKind, bool) {
	for k, n := range eventKindNames {
		if n != "" && n == name {
			return EventKind(k), true
		}
	}
	return 0, false
}

// Event is an immutable tagged record. Only the fields relevant to Kind are
// set; events are passed by value.
type Event struct {
	Kind EventKind

	// Time (EventNewFrame, EventElapsed)
	Delta float64

	// Pointer position or scroll offset
	X, Y      float64
	Button    MouseButton
	Modifiers KeyModifiers

	// Window size (EventResize)
	Width, Height int

	// Keyboard
	Key  ebiten.Key
	Char rune

	// Application payload for user kinds
	Name    string
	Payload any

	// Failure reporting
	Err    error
	Cause  *Event
	Effect Effect
}

func (e Event) String() string {
	switch e.Kind {
	case EventNewFrame, EventElapsed:
		return fmt.Sprintf("%s(%.4f)", e.Kind, e.Delta)
	case EventRespondError, EventDispatchError:
		if e.Cause != nil {
			return fmt.Sprintf("%s(%s: %v)", e.Kind, e.Cause.Kind, e.Err)
		}
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	case EventFxError, EventRenderError:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	case EventKeyDown, EventKeyUp:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Key)
	case EventKeyTyped:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Char)
	case EventResize:
		return fmt.Sprintf("%s(%dx%d)", e.Kind, e.Width, e.Height)
	case EventPointerDown, EventPointerUp, EventPointerMove, EventScroll:
		return fmt.Sprintf("%s(%.1f, %.1f)", e.Kind, e.X, e.Y)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Name)
	}
	return e.Kind.String()
}

// NewFrame returns a tick event carrying delta seconds.
func NewFrame(delta float64) Event {
	return Event{Kind: EventNewFrame, Delta: delta}
}

// Elapsed returns the event emitted by Elapse for each clock step.
func Elapsed(delta float64) Event {
	return Event{Kind: EventElapsed, Delta: delta}
}

// RespondError wraps a reducer failure on cause.
func RespondError(cause Event, err error) Event {
	return Event{Kind: EventRespondError, Cause: &cause, Err: err}
}

// FxError reports that fx failed to run.
func FxError(fx Effect, err error) Event {
	return Event{Kind: EventFxError, Effect: fx, Err: err}
}

// DispatchError wraps a handler failure while delivering cause.
func DispatchError(cause Event, err error) Event {
	return Event{Kind: EventDispatchError, Cause: &cause, Err: err}
}

// RenderError reports a failure while drawing the current state.
func RenderError(err error) Event {
	return Event{Kind: EventRenderError, Err: err}
}

// UserEvent returns an application event of kind k with a name and payload.
func UserEvent(k EventKind, name string, payload any) Event {
	return Event{Kind: k, Name: name, Payload: payload}
}
