package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish delivers one or more domain events to their handlers
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus combines publishing with handler registration
type EventBus interface {
	EventPublisher
	// Subscribe registers a handler. Without explicit event types the
	// handler's own EventTypes decide what it receives.
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from all event types
	Unsubscribe(handler EventHandler)
}

// PublishEvents drains an aggregate's pending events to the publisher.
// The aggregate is cleared even when no publisher is wired, so events
// never pile up across operations.
func PublishEvents(ctx context.Context, publisher EventPublisher, aggregate AggregateRoot) {
	events := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	// delivery failures are the bus's concern, not the caller's
	_ = publisher.Publish(ctx, events...)
}
