package remote

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
	"github.com/phanxgames/zeno"
)

// Message types.
const (
	TypeHello  = "hello"  // server → client, first message on a connection
	TypeEvent  = "event"  // client → server, Event is dispatched
	TypeSample = "sample" // client → server, answered with TypeState
	TypeState  = "state"  // server → client, State holds the snapshot
	TypePing   = "ping"   // client → server, answered with TypePong
	TypePong   = "pong"   // server → client
	TypeError  = "error"  // server → client, Error describes a rejected message
)

// Message is the single JSON envelope exchanged in both directions.
type Message struct {
	Type    string     `json:"type" jsonschema:"enum=hello,enum=event,enum=sample,enum=state,enum=ping,enum=pong,enum=error"`
	Session string     `json:"session,omitempty"`
	Event   *WireEvent `json:"event,omitempty"`
	State   *StateView `json:"state,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// WireEvent is the JSON form of a zeno.Event. Kind is a built-in kind name
// such as "key-down"; application kinds use User, an offset from
// zeno.EventUser. Key uses Ebitengine key names ("Space", "ArrowLeft").
type WireEvent struct {
	Kind    string  `json:"kind,omitempty"`
	User    int     `json:"user,omitempty" jsonschema:"minimum=0,maximum=65279"`
	Delta   float64 `json:"delta,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Key     string  `json:"key,omitempty"`
	Char    string  `json:"char,omitempty"`
	Button  uint8   `json:"button,omitempty" jsonschema:"maximum=2"`
	Name    string  `json:"name,omitempty"`
	Payload any     `json:"payload,omitempty"`
}

// StateView is the JSON snapshot of a zeno.State. Values that cannot be
// encoded as JSON are sent as their fmt.Sprint text.
type StateView struct {
	Elapsed float64        `json:"elapsed"`
	Pending []float64      `json:"pending,omitempty"`
	Fx      int            `json:"fx"`
	Values  map[string]any `json:"values,omitempty"`
}

// maxUser is the largest User offset that still fits an EventKind.
const maxUser = math.MaxUint16 - int(zeno.EventUser)

// synthesized reports whether k is only ever raised by zeno itself to carry
// a failure. Those kinds are not accepted from the wire.
func synthesized(k zeno.EventKind) bool {
	switch k {
	case zeno.EventRespondError, zeno.EventFxError, zeno.EventDispatchError, zeno.EventRenderError:
		return true
	}
	return false
}

// Decode converts w to a zeno.Event. Failure kinds such as respond-error are
// refused.
func (w WireEvent) Decode() (zeno.Event, error) {
	var e zeno.Event
	switch {
	case w.Kind != "":
		kind, ok := zeno.ParseEventKind(w.Kind)
		if !ok {
			return e, fmt.Errorf("unknown event kind %q", w.Kind)
		}
		if synthesized(kind) {
			return e, fmt.Errorf("event kind %q cannot be sent", w.Kind)
		}
		e.Kind = kind
	case w.User < 0:
		return e, fmt.Errorf("negative user kind %d", w.User)
	case w.User > maxUser:
		return e, fmt.Errorf("user kind %d out of range", w.User)
	default:
		e.Kind = zeno.EventUser + zeno.EventKind(w.User)
	}
	if w.Key != "" {
		if err := e.Key.UnmarshalText([]byte(w.Key)); err != nil {
			return e, fmt.Errorf("key %q: %w", w.Key, err)
		}
	}
	if w.Char != "" {
		r, _ := utf8.DecodeRuneInString(w.Char)
		e.Char = r
	}
	if w.Button > uint8(zeno.MouseButtonMiddle) {
		return e, fmt.Errorf("button %d out of range", w.Button)
	}
	e.Delta = w.Delta
	e.X, e.Y = w.X, w.Y
	e.Width, e.Height = w.Width, w.Height
	e.Button = zeno.MouseButton(w.Button)
	e.Name = w.Name
	e.Payload = w.Payload
	return e, nil
}

// EncodeEvent converts e to its wire form. It fails for the kinds Decode
// refuses: failure kinds and unnamed kinds below zeno.EventUser.
func EncodeEvent(e zeno.Event) (WireEvent, error) {
	if e.Kind < zeno.EventUser {
		if synthesized(e.Kind) {
			return WireEvent{}, fmt.Errorf("event kind %s cannot be sent", e.Kind)
		}
		if _, ok := zeno.ParseEventKind(e.Kind.String()); !ok {
			return WireEvent{}, fmt.Errorf("unnamed event kind %d", uint16(e.Kind))
		}
	}
	w := WireEvent{
		Delta:   e.Delta,
		X:       e.X,
		Y:       e.Y,
		Width:   e.Width,
		Height:  e.Height,
		Button:  uint8(e.Button),
		Name:    e.Name,
		Payload: e.Payload,
	}
	if e.Kind >= zeno.EventUser {
		w.User = int(e.Kind - zeno.EventUser)
	} else {
		w.Kind = e.Kind.String()
	}
	if e.Kind == zeno.EventKeyDown || e.Kind == zeno.EventKeyUp {
		w.Key = e.Key.String()
	}
	if e.Char != 0 {
		w.Char = string(e.Char)
	}
	return w, nil
}

// View snapshots s for the wire.
func View(s zeno.State) *StateView {
	v := &StateView{
		Elapsed: s.Elapsed(),
		Fx:      len(s.FxQueue()),
	}
	if pending := s.Pending(); len(pending) > 0 {
		v.Pending = pending
	}
	if s.Len() > 0 {
		v.Values = make(map[string]any, s.Len())
		for _, k := range s.Keys() {
			val, _ := s.Get(k)
			if _, err := json.Marshal(val); err != nil {
				val = fmt.Sprint(val)
			}
			v.Values[k] = val
		}
	}
	return v
}

// Schema returns the JSON schema of Message.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(Message))
	schema.Title = "zeno remote message"
	schema.Description = "Envelope exchanged over the zeno live-coding websocket"
	return schema
}
