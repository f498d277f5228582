package zeno

import (
	"errors"
	"testing"
)

func TestReduceNilReducerIsIdentity(t *testing.T) {
	s := NewState(map[string]any{"a": 1})
	got, err := Reduce(nil, s, NewFrame(1))
	if err != nil || got.Len() != 1 {
		t.Errorf("Reduce(nil) = %s, %v", got, err)
	}
}

func TestReduceRecoversPanic(t *testing.T) {
	s := NewState(map[string]any{"a": 1})
	r := ReducerFunc(func(State, Event) (State, error) {
		panic("bad reducer")
	})
	got, err := Reduce(r, s, NewFrame(1))
	if !errors.Is(err, ErrReducerPanic) {
		t.Fatalf("err = %v, want ErrReducerPanic", err)
	}
	if v, _ := got.Get("a"); v != 1 {
		t.Error("panicking reducer should return the input state")
	}
}

func TestResponderDefaultsToIdentity(t *testing.T) {
	r := NewResponder()
	s := NewState(map[string]any{"a": 1})
	got, err := r.Respond(s, Event{Kind: EventKeyDown})
	if err != nil || got.Len() != 1 {
		t.Errorf("unregistered kind changed state: %s, %v", got, err)
	}
}

func TestResponderNewFrameAdvancesClock(t *testing.T) {
	var elapsed []float64
	r := NewResponder().OnState(EventElapsed, func(s State, e Event) State {
		elapsed = append(elapsed, e.Delta)
		return s
	})
	s := Defer(State{}, 0.25, addTag("x"))
	s, err := r.Respond(s, NewFrame(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if s.Elapsed() != 0.5 || len(tagsOf(s)) != 1 {
		t.Errorf("new-frame did not elapse: %s", s)
	}
	if len(elapsed) != 2 || elapsed[0] != 0.25 || elapsed[1] != 0.25 {
		t.Errorf("elapsed events = %v", elapsed)
	}
}

func TestResponderOnOff(t *testing.T) {
	r := NewResponder()
	kind := EventUser + 1
	if r.Handles(kind) {
		t.Fatal("fresh responder handles user kind")
	}
	r.OnState(kind, func(s State, e Event) State { return s.With("hit", e.Name) })
	if !r.Handles(kind) {
		t.Fatal("On did not register")
	}
	s, _ := r.Respond(State{}, UserEvent(kind, "first", nil))
	if v, _ := s.Get("hit"); v != "first" {
		t.Errorf("hit = %v", v)
	}

	r.Off(kind)
	s, _ = r.Respond(State{}, UserEvent(kind, "second", nil))
	if s.Has("hit") {
		t.Error("Off did not remove the entry")
	}
}

func TestResponderZeroValue(t *testing.T) {
	var r Responder
	r.OnState(EventKeyUp, func(s State, e Event) State { return s.With("up", true) })
	s, _ := r.Respond(State{}, Event{Kind: EventKeyUp})
	if !s.Has("up") {
		t.Error("zero Responder should accept registrations")
	}
	s, _ = r.Respond(State{}, NewFrame(1))
	if s.Elapsed() != 0 {
		t.Error("zero Responder does not advance the clock")
	}
}

func TestEventKindNames(t *testing.T) {
	tests := []struct {
		kind EventKind
		name string
	}{
		{EventNewFrame, "new-frame"},
		{EventRespondError, "respond-error"},
		{EventFxError, "fx-error"},
		{EventDispatchError, "dispatch-error"},
		{EventRenderError, "render-error"},
		{EventResize, "resize"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.name {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.name)
		}
		if k, ok := ParseEventKind(tt.name); !ok || k != tt.kind {
			t.Errorf("ParseEventKind(%q) = %v, %v", tt.name, k, ok)
		}
	}
	if got := (EventUser + 3).String(); got != "user+3" {
		t.Errorf("user kind = %q", got)
	}
	if _, ok := ParseEventKind("nope"); ok {
		t.Error("unknown name parsed")
	}
}

func TestRespondErrorCarriesCause(t *testing.T) {
	cause := Event{Kind: EventKeyDown}
	err := errors.New("x")
	e := RespondError(cause, err)
	if e.Cause == nil || e.Cause.Kind != EventKeyDown || e.Err != err {
		t.Errorf("RespondError = %+v", e)
	}
	if e.String() != "respond-error(key-down: x)" {
		t.Errorf("String = %q", e.String())
	}
}
