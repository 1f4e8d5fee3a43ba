// Package activity fans ingestion events out to connected clients,
// partitioned by organization. Broadcast is fire-and-forget per subscriber: a
// slow or dead subscriber is dropped without affecting its siblings or the
// ingestion call that produced the event.
package activity

import (
	"sync"
	"time"

	"go.uber.org/fx"
)

const DefaultSubscriberBuffer = 16

// Event is one activity-stream message.
type Event struct {
	Type           string         `json:"type"`
	OrganizationID string         `json:"organization_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// MakeEvent stamps an event with the current time.
func MakeEvent(eventType, organizationID string, payload map[string]any) Event {
	return Event{
		Type:           eventType,
		OrganizationID: organizationID,
		Timestamp:      time.Now().UTC(),
		Payload:        payload,
	}
}

type Hub struct {
	mu               sync.RWMutex
	orgs             map[string]map[uint64]chan Event
	nextID           uint64
	subscriberBuffer int
}

type Subscription struct {
	hub            *Hub
	organizationID string
	id             uint64
	ch             chan Event
	once           sync.Once
}

func NewHub() *Hub {
	return &Hub{
		orgs:             make(map[string]map[uint64]chan Event),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Subscribe registers a listener for one organization's events.
func (h *Hub) Subscribe(organizationID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.orgs[organizationID]
	if subs == nil {
		subs = make(map[uint64]chan Event)
		h.orgs[organizationID] = subs
	}
	h.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	subs[h.nextID] = ch

	return &Subscription{
		hub:            h,
		organizationID: organizationID,
		id:             h.nextID,
		ch:             ch,
	}
}

// Broadcast delivers the event to every subscriber of its organization.
// Subscribers whose buffer is full are removed rather than blocking the
// publisher.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	subs := h.orgs[event.OrganizationID]
	var stale []uint64
	for id, ch := range subs {
		select {
		case ch <- event:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.RUnlock()

	if len(stale) == 0 {
		return
	}
	h.mu.Lock()
	for _, id := range stale {
		if ch, ok := subs[id]; ok {
			delete(subs, id)
			close(ch)
		}
	}
	h.mu.Unlock()
}

// SubscriberCount reports the number of listeners for an organization.
func (h *Hub) SubscriberCount(organizationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orgs[organizationID])
}

// Events is the receive side of the subscription. It is closed when the hub
// drops the subscriber.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		subs := s.hub.orgs[s.organizationID]
		if _, ok := subs[s.id]; ok {
			delete(subs, s.id)
			close(s.ch)
		}
	})
}

var Module = fx.Module("activity",
	fx.Provide(NewHub),
)
