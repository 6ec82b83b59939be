// Package delivery routes rendered chat to in-process subscribers, one set of
// streams per identity.
package delivery

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/identity"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/snapshot"
)

// EventType tells a subscriber how to present an event.
type EventType string

const (
	EventChat      EventType = "chat"
	EventActionBar EventType = "action_bar"
	EventView      EventType = "view"
)

// Event is one routed delivery.
type Event struct {
	Target   uuid.UUID          `json:"target"`
	Type     EventType          `json:"type"`
	Message  *richtext.Node     `json:"message,omitempty"`
	Snapshot *snapshot.Snapshot `json:"snapshot,omitempty"`
}

// Nearby is a radius-limited delivery.
type Nearby struct {
	Origin  identity.Position
	Radius  float64
	Message richtext.Node
	// Listener, when set, selects out-of-range identities that receive Far.
	Listener func(identity.Identity) bool
	Far      richtext.Node
}

const streamBuffer = 32

// Hub is a pub/sub hub keyed by identity id. The console subscribes under
// uuid.Nil.
type Hub struct {
	tracker *identity.Tracker

	mu      sync.RWMutex
	streams map[uuid.UUID]map[string]chan Event
}

// NewHub creates an empty hub. The tracker supplies the candidates of
// nearby deliveries.
func NewHub(tracker *identity.Tracker) *Hub {
	return &Hub{
		tracker: tracker,
		streams: map[uuid.UUID]map[string]chan Event{},
	}
}

// Subscribe registers a new stream for target and returns a stream ID, a
// read-only channel for events, and a cancel function to unsubscribe.
func (h *Hub) Subscribe(target uuid.UUID) (string, <-chan Event, func()) {
	streamID := uuid.NewString()
	ch := make(chan Event, streamBuffer)

	h.mu.Lock()
	streams, ok := h.streams[target]
	if !ok {
		streams = map[string]chan Event{}
		h.streams[target] = streams
	}
	streams[streamID] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		streams := h.streams[target]
		if streams != nil {
			if current, ok := streams[streamID]; ok {
				delete(streams, streamID)
				close(current)
			}
			if len(streams) == 0 {
				delete(h.streams, target)
			}
		}
		h.mu.Unlock()
	}

	return streamID, ch, cancel
}

// Subscribers returns the number of identities with at least one stream.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams)
}

// publish delivers to every stream of target. Slow receivers are dropped.
// The caller holds at least the read lock.
func (h *Hub) publish(event Event) {
	for _, ch := range h.streams[event.Target] {
		select {
		case ch <- event:
		default:
			// Drop if receiver is slow.
		}
	}
}

func chatEvent(to uuid.UUID, message richtext.Node) Event {
	return Event{Target: to, Type: EventChat, Message: &message}
}

// Send delivers a chat message to one identity.
func (h *Hub) Send(ctx context.Context, to uuid.UUID, message richtext.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.publish(chatEvent(to, message))
	return nil
}

// Broadcast delivers a chat message to every subscriber, the console
// included.
func (h *Hub) Broadcast(ctx context.Context, message richtext.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for target := range h.streams {
		h.publish(chatEvent(target, message))
	}
	return nil
}

// SendNearby delivers n.Message to online identities within n.Radius of
// n.Origin, and n.Far to out-of-range identities accepted by n.Listener.
// It returns the number of identities reached.
func (h *Hub) SendNearby(ctx context.Context, n Nearby) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var near, far []uuid.UUID
	for _, id := range h.tracker.Online() {
		if p, ok := id.(identity.Positioned); ok && n.Origin.Within(p.Position(), n.Radius) {
			near = append(near, id.ID())
			continue
		}
		if n.Listener != nil && n.Listener(id) {
			far = append(far, id.ID())
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, to := range near {
		h.publish(chatEvent(to, n.Message))
	}
	for _, to := range far {
		h.publish(chatEvent(to, n.Far))
	}
	return len(near) + len(far), nil
}

// ActionBar delivers a short status message to one identity.
func (h *Hub) ActionBar(ctx context.Context, to uuid.UUID, message richtext.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.publish(Event{Target: to, Type: EventActionBar, Message: &message})
	return nil
}

// ShowSnapshot opens a read-only view for one identity.
func (h *Hub) ShowSnapshot(ctx context.Context, to uuid.UUID, snap snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	view := snap.Clone()
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.publish(Event{Target: to, Type: EventView, Snapshot: &view})
	return nil
}
