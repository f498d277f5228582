package zeno

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func collect(s *inputState, f *inputFrame) []Event {
	var out []Event
	s.translate(f, func(e Event) { out = append(out, e) })
	return out
}

func TestTranslateKeys(t *testing.T) {
	var s inputState
	f := &inputFrame{
		pressed:  []ebiten.Key{ebiten.KeyA},
		released: []ebiten.Key{ebiten.KeyB},
		chars:    []rune{'a'},
		mods:     ModShift,
	}
	events := collect(&s, f)

	want := []EventKind{EventKeyDown, EventKeyUp, EventKeyTyped}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event %d = %s, want %s", i, events[i].Kind, k)
		}
		if events[i].Modifiers != ModShift {
			t.Errorf("event %d lost modifiers", i)
		}
	}
	if events[0].Key != ebiten.KeyA || events[1].Key != ebiten.KeyB || events[2].Char != 'a' {
		t.Errorf("payloads = %v", events)
	}
}

func TestTranslatePointerMove(t *testing.T) {
	var s inputState

	// First sighting only records the position.
	if events := collect(&s, &inputFrame{cursorX: 10, cursorY: 10}); len(events) != 0 {
		t.Fatalf("first frame emitted %v", events)
	}
	if events := collect(&s, &inputFrame{cursorX: 10, cursorY: 10}); len(events) != 0 {
		t.Fatalf("stationary cursor emitted %v", events)
	}
	events := collect(&s, &inputFrame{cursorX: 15, cursorY: 20})
	if len(events) != 1 || events[0].Kind != EventPointerMove {
		t.Fatalf("events = %v", events)
	}
	if events[0].X != 15 || events[0].Y != 20 {
		t.Errorf("move to (%v, %v)", events[0].X, events[0].Y)
	}
}

func TestTranslateButtons(t *testing.T) {
	var s inputState
	f := &inputFrame{cursorX: 3, cursorY: 4}
	f.buttonDown[MouseButtonRight] = true
	f.buttonUp[MouseButtonLeft] = true

	events := collect(&s, f)
	if len(events) != 2 {
		t.Fatalf("events = %v", events)
	}
	if e := events[0]; e.Kind != EventPointerUp || e.Button != MouseButtonLeft {
		t.Errorf("event 0 = %v", e)
	}
	if e := events[1]; e.Kind != EventPointerDown || e.Button != MouseButtonRight || e.X != 3 || e.Y != 4 {
		t.Errorf("event 1 = %v", e)
	}
}

func TestTranslateTouchAndScroll(t *testing.T) {
	var s inputState
	f := &inputFrame{
		touchDown: []touchPoint{{1, 2}},
		touchUp:   []touchPoint{{5, 6}},
		wheelY:    -1,
	}
	events := collect(&s, f)
	want := []EventKind{EventPointerDown, EventPointerUp, EventScroll}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event %d = %s, want %s", i, events[i].Kind, k)
		}
	}
	if events[1].X != 5 || events[1].Y != 6 {
		t.Errorf("touch release at (%v, %v)", events[1].X, events[1].Y)
	}
	if events[2].Y != -1 {
		t.Errorf("scroll = %v", events[2].Y)
	}
}

func TestTranslateEmptyFrame(t *testing.T) {
	s := inputState{seenCursor: true}
	if events := collect(&s, &inputFrame{}); len(events) != 0 {
		t.Errorf("idle frame emitted %v", events)
	}
}
