package broadcast

import (
	"sync"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
)

// Subscription is one client's outbound queue. It exists from Attach until
// Detach; Subscribe and Unsubscribe switch delta delivery on and off.
type Subscription struct {
	ClientID string

	capacity int
	notify   chan struct{}
	done     chan struct{}
	once     sync.Once

	mu            sync.Mutex
	active        bool
	filter        model.Filter
	baseTick      uint64
	queue         []protocol.Message
	resyncPending bool
	dropped       int
	lastAckTick   uint64
	lastSeen      time.Time
	reason        error
}

func newSubscription(clientID string, capacity int, now time.Time) *Subscription {
	return &Subscription{
		ClientID: clientID,
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		lastSeen: now,
	}
}

// Ready fires when messages are waiting.
func (s *Subscription) Ready() <-chan struct{} { return s.notify }

// Done is closed once the subscription is detached.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err tells why the subscription was detached by the hub, or nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Drain removes and returns every queued message in delivery order.
func (s *Subscription) Drain() []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.queue
	s.queue = nil
	s.resyncPending = false
	return msgs
}

// Filter returns the active filter and whether deltas are being delivered.
func (s *Subscription) Filter() (model.Filter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter, s.active
}

// LastAckTick is the last tick the client acknowledged.
func (s *Subscription) LastAckTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAckTick
}

// Len is the number of queued messages.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Subscription) touch(now time.Time) {
	s.mu.Lock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
	s.mu.Unlock()
}

func (s *Subscription) silentSince(now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > window
}

// reset replaces everything queued with a fresh snapshot. Caller holds s.mu.
func (s *Subscription) resetLocked(snapshot protocol.Message) {
	s.queue = append(s.queue[:0], snapshot)
	s.baseTick = snapshot.Tick
	s.resyncPending = false
	s.dropped = 0
	s.signal()
}

// pushLocked enqueues m. On overflow the oldest delta is discarded and a
// single resync_required marker stands in for everything lost until the
// client resynchronises. Caller holds s.mu.
func (s *Subscription) pushLocked(m protocol.Message) {
	defer s.signal()

	if len(s.queue) < s.capacity {
		s.queue = append(s.queue, m)
		return
	}

	s.dropOldestDeltaLocked()
	if s.resyncPending {
		s.queue = append(s.queue, m)
		return
	}

	s.resyncPending = true
	if m.Type == protocol.MessageDelta {
		s.dropped++
		metrics.SlowConsumerDrops.Inc()
		s.queue = append(s.queue, protocol.Message{Type: protocol.MessageResyncRequired, Tick: m.Tick, Dropped: s.dropped})
		return
	}
	s.queue = append(s.queue, protocol.Message{Type: protocol.MessageResyncRequired, Tick: m.Tick, Dropped: s.dropped}, m)
}

func (s *Subscription) dropOldestDeltaLocked() {
	for i, q := range s.queue {
		if q.Type == protocol.MessageDelta {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.dropped++
			metrics.SlowConsumerDrops.Inc()
			return
		}
	}
	// Only replies are queued; discard the oldest one, never the marker.
	for i, q := range s.queue {
		if q.Type != protocol.MessageResyncRequired {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) close(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.active = false
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
	})
}
