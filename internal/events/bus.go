// Package events carries in-process notifications between the config
// watcher, the API and the metrics collectors.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
// Usage: bus.Publish(ConfigReloadedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ConfigReloadedEvent:
		event.Publish(b.dispatcher, e)
	case PluginLoadedEvent:
		event.Publish(b.dispatcher, e)
	case AuthAttemptEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type it accepts and returns an
// unsubscribe function. Unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e PluginLoadedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ConfigReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PluginLoadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AuthAttemptEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

