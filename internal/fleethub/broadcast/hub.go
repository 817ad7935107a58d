// Package broadcast fans committed ticks out to subscribers.
package broadcast

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

// DefaultQueueCapacity bounds each subscriber queue.
const DefaultQueueCapacity = 64

// Source provides consistent views of the fleet.
type Source interface {
	Snapshot(f model.Filter) store.View
}

// Config tunes the hub.
type Config struct {
	QueueCapacity int

	// Liveness force-closes subscriptions silent for longer than this. Zero disables it.
	Liveness time.Duration
}

// Hub owns every subscription. Publish is called by the simulation goroutine
// and never blocks on a subscriber; everything else is called by sessions.
type Hub struct {
	cfg    Config
	source Source
	clock  clock.PassiveClock
	log    log.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
	tick uint64
}

func NewHub(cfg Config, source Source, clk clock.PassiveClock) *Hub {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	return &Hub{
		cfg:    cfg,
		source: source,
		clock:  clk,
		log:    log.WithName("hub"),
		subs:   make(map[string]*Subscription),
	}
}

// Attach registers clientID without subscribing it to deltas. Attaching an
// already attached client returns the existing subscription.
func (h *Hub) Attach(clientID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attachLocked(clientID)
}

func (h *Hub) attachLocked(clientID string) *Subscription {
	if sub, ok := h.subs[clientID]; ok {
		return sub
	}
	sub := newSubscription(clientID, h.cfg.QueueCapacity, h.clock.Now())
	h.subs[clientID] = sub
	return sub
}

// Subscribe starts delta delivery for clientID under filter. Whatever was
// queued is replaced by a snapshot of the whole fleet summary and every
// matching vessel; later deltas continue strictly after that snapshot's tick.
func (h *Hub) Subscribe(clientID string, filter model.Filter) (*Subscription, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.attachLocked(clientID)
	snapshot := h.snapshotMessage(filter)

	sub.mu.Lock()
	sub.active = true
	sub.filter = filter
	sub.resetLocked(snapshot)
	sub.mu.Unlock()

	h.log.Debug("Client subscribed", "client", clientID, "filter", filter.String(), "tick", snapshot.Tick, "vessels", len(snapshot.Vessels))
	return sub, nil
}

func (h *Hub) snapshotMessage(filter model.Filter) protocol.Message {
	view := h.source.Snapshot(model.AllVessels())
	summary := view.Summary()

	vessels := view.Vessels
	if filter.Kind != model.FilterAll {
		vessels = vessels[:0:0]
		for i := range view.Vessels {
			if filter.Matches(&view.Vessels[i]) {
				vessels = append(vessels, view.Vessels[i])
			}
		}
	}
	return protocol.Message{
		Type:    protocol.MessageSnapshot,
		Tick:    view.Tick,
		Summary: &summary,
		Vessels: vessels,
	}
}

// Unsubscribe stops delta delivery and clears the queue. The client stays
// attached; a later Subscribe behaves like a fresh connect. Unknown or
// already unsubscribed clients are ignored.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	sub, ok := h.subs[clientID]
	h.mu.Unlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	sub.active = false
	sub.queue = nil
	sub.resyncPending = false
	sub.mu.Unlock()
}

// Resync replaces the client's queue with a fresh snapshot under its current filter.
func (h *Hub) Resync(clientID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[clientID]
	if !ok {
		return fmt.Errorf("client %q not attached", clientID)
	}
	filter, active := sub.Filter()
	if !active {
		return fmt.Errorf("%w: resync before subscribe", model.ErrMalformedClientRequest)
	}

	snapshot := h.snapshotMessage(filter)
	sub.mu.Lock()
	sub.resetLocked(snapshot)
	sub.mu.Unlock()
	return nil
}

// Reply queues a response frame for one client regardless of its filter.
func (h *Hub) Reply(clientID string, m protocol.Message) {
	h.mu.Lock()
	sub, ok := h.subs[clientID]
	h.mu.Unlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	sub.pushLocked(m)
	sub.mu.Unlock()
}

// Ack records the client's last processed tick and counts as liveness.
func (h *Hub) Ack(clientID string, tick uint64) {
	h.mu.Lock()
	sub, ok := h.subs[clientID]
	h.mu.Unlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	if tick > sub.lastAckTick {
		sub.lastAckTick = tick
	}
	sub.mu.Unlock()
	sub.touch(h.clock.Now())
}

// Touch marks the client as alive.
func (h *Hub) Touch(clientID string) {
	h.mu.Lock()
	sub, ok := h.subs[clientID]
	h.mu.Unlock()
	if ok {
		sub.touch(h.clock.Now())
	}
}

// Detach removes the client and closes its subscription. Safe to repeat.
func (h *Hub) Detach(clientID string) {
	h.mu.Lock()
	sub, ok := h.subs[clientID]
	delete(h.subs, clientID)
	h.mu.Unlock()

	if ok {
		sub.close(nil)
	}
}

// Publish hands the changes of one committed tick to every active
// subscription whose filter matches them, then evicts silent clients.
func (h *Hub) Publish(c store.Commit) {
	h.mu.Lock()
	h.tick = c.Tick
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}

	for _, sub := range subs {
		sub.mu.Lock()
		if sub.active && c.Tick > sub.baseTick {
			if delta, ok := deltaFor(sub.filter, c); ok {
				sub.pushLocked(delta)
			}
		}
		sub.mu.Unlock()
	}
	h.mu.Unlock()

	h.sweep(subs)
}

func deltaFor(f model.Filter, c store.Commit) (protocol.Message, bool) {
	var vessels []model.VesselState
	for i := range c.Changed {
		if f.Matches(&c.Changed[i]) {
			vessels = append(vessels, c.Changed[i])
		}
	}
	if len(vessels) == 0 {
		return protocol.Message{}, false
	}
	return protocol.Message{Type: protocol.MessageDelta, Tick: c.Tick, Vessels: vessels}, true
}

func (h *Hub) sweep(subs []*Subscription) {
	if h.cfg.Liveness <= 0 {
		return
	}
	now := h.clock.Now()
	for _, sub := range subs {
		if !sub.silentSince(now, h.cfg.Liveness) {
			continue
		}
		h.mu.Lock()
		if h.subs[sub.ClientID] == sub {
			delete(h.subs, sub.ClientID)
		}
		h.mu.Unlock()

		sub.close(model.ErrSessionLivenessTimeout)
		h.log.Warn("Evicted silent client", "client", sub.ClientID, "liveness", h.cfg.Liveness)
	}
}

// Tick returns the last published tick.
func (h *Hub) Tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tick
}

// Len returns the number of attached clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
