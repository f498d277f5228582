package ecs

import (
	"github.com/phanxgames/zeno"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EventType is the Donburi event type for zeno events. Subscribe to this in
// your ECS systems to receive input, tick and error events.
var EventType = events.NewEventType[zeno.Event]()

type donburiHandler struct {
	world donburi.World
	kinds map[zeno.EventKind]bool
}

// NewDonburiHandler creates a Handler backed by a Donburi world. Events are
// published to EventType and can be consumed with events.Subscribe and
// ProcessEvents. With kinds given, only those kinds are published.
func NewDonburiHandler(world donburi.World, kinds ...zeno.EventKind) zeno.Handler {
	h := &donburiHandler{world: world}
	if len(kinds) > 0 {
		h.kinds = make(map[zeno.EventKind]bool, len(kinds))
		for _, k := range kinds {
			h.kinds[k] = true
		}
	}
	return h
}

func (h *donburiHandler) Handle(e zeno.Event) {
	if h.kinds != nil && !h.kinds[e.Kind] {
		return
	}
	EventType.Publish(h.world, e)
}
