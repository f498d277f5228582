package remote

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/zeno"
)

func TestWireEventDecode(t *testing.T) {
	tests := []struct {
		name string
		in   WireEvent
		want zeno.Event
	}{
		{"frame", WireEvent{Kind: "new-frame", Delta: 0.5}, zeno.NewFrame(0.5)},
		{"pointer", WireEvent{Kind: "pointer-down", X: 3, Y: 4, Button: 1},
			zeno.Event{Kind: zeno.EventPointerDown, X: 3, Y: 4, Button: zeno.MouseButtonRight}},
		{"key", WireEvent{Kind: "key-down", Key: "Space"},
			zeno.Event{Kind: zeno.EventKeyDown, Key: ebiten.KeySpace}},
		{"char", WireEvent{Kind: "key-typed", Char: "é"},
			zeno.Event{Kind: zeno.EventKeyTyped, Char: 'é'}},
		{"user", WireEvent{User: 2, Name: "spawn"},
			zeno.Event{Kind: zeno.EventUser + 2, Name: "spawn"}},
		{"resize", WireEvent{Kind: "resize", Width: 640, Height: 480},
			zeno.Event{Kind: zeno.EventResize, Width: 640, Height: 480}},
		{"largest user", WireEvent{User: 65279},
			zeno.Event{Kind: zeno.EventKind(65535)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Decode()
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Delta != tt.want.Delta ||
				got.X != tt.want.X || got.Y != tt.want.Y || got.Button != tt.want.Button ||
				got.Key != tt.want.Key || got.Char != tt.want.Char || got.Name != tt.want.Name ||
				got.Width != tt.want.Width || got.Height != tt.want.Height {
				t.Errorf("Decode = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWireEventDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   WireEvent
	}{
		{"unknown kind", WireEvent{Kind: "explode"}},
		{"negative user", WireEvent{User: -1}},
		{"bad key", WireEvent{Kind: "key-down", Key: "NoSuchKey"}},
		{"bad button", WireEvent{Kind: "pointer-down", Button: 7}},
		{"user wraps to new-frame", WireEvent{User: 65280, Delta: 1}},
		{"user wraps to elapsed", WireEvent{User: 65281}},
		{"respond-error", WireEvent{Kind: "respond-error"}},
		{"fx-error", WireEvent{Kind: "fx-error"}},
		{"dispatch-error", WireEvent{Kind: "dispatch-error"}},
		{"render-error", WireEvent{Kind: "render-error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.in.Decode(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncodeEventRoundTrip(t *testing.T) {
	in := []zeno.Event{
		zeno.NewFrame(0.25),
		{Kind: zeno.EventKeyUp, Key: ebiten.KeyArrowLeft},
		{Kind: zeno.EventScroll, X: 0, Y: -1},
		zeno.UserEvent(zeno.EventUser+5, "score", nil),
		{Kind: zeno.EventKind(65535)},
	}
	for _, e := range in {
		w, err := EncodeEvent(e)
		if err != nil {
			t.Fatalf("encode %v: %v", e, err)
		}
		got, err := w.Decode()
		if err != nil {
			t.Fatalf("%v: %v", e, err)
		}
		if got.Kind != e.Kind || got.Delta != e.Delta || got.Key != e.Key || got.Y != e.Y || got.Name != e.Name {
			t.Errorf("round trip %v = %v", e, got)
		}
	}
}

func TestEncodeEventRejects(t *testing.T) {
	tests := []struct {
		name string
		in   zeno.Event
	}{
		{"render-error", zeno.RenderError(errors.New("boom"))},
		{"respond-error", zeno.RespondError(zeno.NewFrame(0), errors.New("boom"))},
		{"unnamed built-in", zeno.Event{Kind: zeno.EventKind(20)}},
		{"last built-in slot", zeno.Event{Kind: zeno.EventUser - 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w, err := EncodeEvent(tt.in); err == nil {
				t.Errorf("EncodeEvent = %+v, want error", w)
			}
		})
	}
}

func TestView(t *testing.T) {
	s := zeno.NewState(map[string]any{"score": 3, "fn": func() {}})
	s = zeno.Defer(s, 1, func(s zeno.State) zeno.State { return s })
	s = s.AddFx(zeno.NewEffect("music", func(zeno.Submitter) error { return nil }))

	v := View(s)
	if v.Elapsed != 0 || v.Fx != 1 {
		t.Errorf("view = %+v", v)
	}
	if len(v.Pending) != 1 || v.Pending[0] != 1 {
		t.Errorf("pending = %v", v.Pending)
	}
	if v.Values["score"] != 3 {
		t.Errorf("score = %v", v.Values["score"])
	}
	if _, ok := v.Values["fn"].(string); !ok {
		t.Errorf("unencodable value should become text, got %T", v.Values["fn"])
	}
	if _, err := json.Marshal(v); err != nil {
		t.Errorf("view must encode: %v", err)
	}
}

func TestSchema(t *testing.T) {
	s := Schema()
	if s.Title == "" {
		t.Error("schema has no title")
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if _, ok := decoded["$schema"]; !ok {
		t.Error("schema missing $schema")
	}
}
