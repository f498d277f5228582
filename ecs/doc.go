// Package ecs provides ECS adapters for zeno's event pipeline.
//
// The primary adapter is [NewDonburiHandler], which publishes every zeno
// event it receives into a [Donburi] world as a typed event. Subscribe to
// [EventType] in your ECS systems to receive them.
//
// Usage:
//
//	h := ecs.NewDonburiHandler(world)
//	game.Dispatcher().Attach(h)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
