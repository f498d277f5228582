package zeno

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// --- Per-frame input snapshot ---

// inputFrame is everything read from Ebitengine in one Update call. Reading
// and translating are separate so translation can be tested without a
// running game.
type inputFrame struct {
	pressed  []ebiten.Key
	released []ebiten.Key
	chars    []rune
	mods     KeyModifiers

	cursorX, cursorY int
	buttonDown       [3]bool // just pressed this tick, indexed by MouseButton
	buttonUp         [3]bool // just released this tick

	touchDown []touchPoint
	touchUp   []touchPoint

	wheelX, wheelY float64
}

type touchPoint struct {
	x, y int
}

// inputState carries what must survive between frames, plus reusable
// buffers for the Append* calls.
type inputState struct {
	frame   inputFrame
	touches []ebiten.TouchID

	lastX, lastY int
	seenCursor   bool
}

var mouseButtons = [3]ebiten.MouseButton{
	MouseButtonLeft:   ebiten.MouseButtonLeft,
	MouseButtonRight:  ebiten.MouseButtonRight,
	MouseButtonMiddle: ebiten.MouseButtonMiddle,
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// read fills s.frame from Ebitengine. Must be called from Game.Update.
func (s *inputState) read() *inputFrame {
	f := &s.frame
	f.pressed = inpututil.AppendJustPressedKeys(f.pressed[:0])
	f.released = inpututil.AppendJustReleasedKeys(f.released[:0])
	f.chars = ebiten.AppendInputChars(f.chars[:0])
	f.mods = readModifiers()

	f.cursorX, f.cursorY = ebiten.CursorPosition()
	for i, b := range mouseButtons {
		f.buttonDown[i] = inpututil.IsMouseButtonJustPressed(b)
		f.buttonUp[i] = inpututil.IsMouseButtonJustReleased(b)
	}

	f.touchDown = f.touchDown[:0]
	s.touches = inpututil.AppendJustPressedTouchIDs(s.touches[:0])
	for _, id := range s.touches {
		x, y := ebiten.TouchPosition(id)
		f.touchDown = append(f.touchDown, touchPoint{x, y})
	}
	f.touchUp = f.touchUp[:0]
	s.touches = inpututil.AppendJustReleasedTouchIDs(s.touches[:0])
	for _, id := range s.touches {
		x, y := inpututil.TouchPositionInPreviousTick(id)
		f.touchUp = append(f.touchUp, touchPoint{x, y})
	}

	f.wheelX, f.wheelY = ebiten.Wheel()
	return f
}

// translate converts one frame of input into events, in a fixed order:
// keys down, keys up, typed characters, pointer move, buttons, touches,
// scroll.
func (s *inputState) translate(f *inputFrame, emit func(Event)) {
	for _, k := range f.pressed {
		emit(Event{Kind: EventKeyDown, Key: k, Modifiers: f.mods})
	}
	for _, k := range f.released {
		emit(Event{Kind: EventKeyUp, Key: k, Modifiers: f.mods})
	}
	for _, r := range f.chars {
		emit(Event{Kind: EventKeyTyped, Char: r, Modifiers: f.mods})
	}

	x, y := float64(f.cursorX), float64(f.cursorY)
	if !s.seenCursor || f.cursorX != s.lastX || f.cursorY != s.lastY {
		if s.seenCursor {
			emit(Event{Kind: EventPointerMove, X: x, Y: y, Modifiers: f.mods})
		}
		s.seenCursor = true
		s.lastX, s.lastY = f.cursorX, f.cursorY
	}
	for i := range mouseButtons {
		if f.buttonDown[i] {
			emit(Event{Kind: EventPointerDown, X: x, Y: y, Button: MouseButton(i), Modifiers: f.mods})
		}
		if f.buttonUp[i] {
			emit(Event{Kind: EventPointerUp, X: x, Y: y, Button: MouseButton(i), Modifiers: f.mods})
		}
	}

	for _, t := range f.touchDown {
		emit(Event{Kind: EventPointerDown, X: float64(t.x), Y: float64(t.y), Button: MouseButtonLeft, Modifiers: f.mods})
	}
	for _, t := range f.touchUp {
		emit(Event{Kind: EventPointerUp, X: float64(t.x), Y: float64(t.y), Button: MouseButtonLeft, Modifiers: f.mods})
	}

	if f.wheelX != 0 || f.wheelY != 0 {
		emit(Event{Kind: EventScroll, X: f.wheelX, Y: f.wheelY, Modifiers: f.mods})
	}
}
