package realtime

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Actions carried by post change events.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event describes a post change pushed to live subscribers. Post holds the
// full post for create/update and the bare post id for delete.
type Event struct {
	Action string `json:"action"`
	Post   any    `json:"post"`
}

// subscriberBuffer bounds how far a subscriber may lag before it is
// dropped instead of stalling the fan-out.
const subscriberBuffer = 16

// Subscriber is one live connection's view of the event stream.
type Subscriber struct {
	hub    *Hub
	events chan Event
}

// Events yields published events until the subscriber is closed. The
// channel is closed when the subscriber is dropped or the hub shuts down.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Close removes the subscriber from the hub.
func (s *Subscriber) Close() {
	select {
	case s.hub.unregister <- s:
	case <-s.hub.done:
	}
}

// Hub maintains the set of live subscribers and fans published events out
// to all of them. Delivery is best effort: there is no history, no retry,
// and a subscriber connecting after a publish never sees that event.
type Hub struct {
	logger     logrus.FieldLogger
	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan Event
	done       chan struct{}
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		logger:     logger,
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		broadcast:  make(chan Event),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is cancelled. All membership and
// fan-out happens on this single goroutine, so Subscribe and Publish are
// safe to call from any number of request contexts.
func (h *Hub) Run(ctx context.Context) {
	subscribers := make(map[*Subscriber]struct{})
	defer func() {
		close(h.done)
		for sub := range subscribers {
			close(sub.events)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.register:
			subscribers[sub] = struct{}{}
			h.logger.Debugf("subscriber connected, %d live", len(subscribers))
		case sub := <-h.unregister:
			if _, ok := subscribers[sub]; ok {
				delete(subscribers, sub)
				close(sub.events)
			}
		case event := <-h.broadcast:
			for sub := range subscribers {
				select {
				case sub.events <- event:
				default:
					// subscriber stopped draining; drop it rather
					// than block every other delivery
					delete(subscribers, sub)
					close(sub.events)
					h.logger.Warn("dropping slow subscriber")
				}
			}
		}
	}
}

// Subscribe registers a new live connection. Returns nil after shutdown.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		hub:    h,
		events: make(chan Event, subscriberBuffer),
	}
	select {
	case h.register <- sub:
		return sub
	case <-h.done:
		return nil
	}
}

// Publish sends the event to every currently connected subscriber. After
// shutdown it is a no-op.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}
