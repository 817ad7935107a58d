// Package reconcile merges live feed reports into simulated vessel state.
package reconcile

import (
	"fmt"
	"slices"
	"sync"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

// Outcome is the result of merging one live message.
type Outcome int

const (
	Applied Outcome = iota
	Superseded
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Superseded:
		return "superseded"
	default:
		return "rejected"
	}
}

// Writer is the slice of the store a merge needs.
type Writer interface {
	Get(id string) (model.VesselState, bool)
	Put(v model.VesselState) bool
}

// DefaultMaxPending bounds the messages buffered between two ticks.
const DefaultMaxPending = 100_000

// Reconciler buffers live messages between ticks. Offer may be called from
// any goroutine; Merge and Apply belong to the simulation goroutine.
type Reconciler struct {
	log        log.Logger
	maxPending int

	mu      sync.Mutex
	pending []model.LiveMessage
	stats   model.FeedStats
}

func New(maxPending int) *Reconciler {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Reconciler{
		log:        log.WithName("reconciler"),
		maxPending: maxPending,
	}
}

// Offer buffers msg for the next tick. When the buffer is full the oldest
// message is discarded.
func (r *Reconciler) Offer(msg model.LiveMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Received++
	if msg.ObservedAt.After(r.stats.LastMessage) {
		r.stats.LastMessage = msg.ObservedAt
	}
	if len(r.pending) >= r.maxPending {
		r.pending = r.pending[1:]
		r.stats.Dropped++
		metrics.FeedMessages.WithLabelValues("dropped").Inc()
	}
	r.pending = append(r.pending, msg)
}

// Drain takes every buffered message, ordered by observation time.
func (r *Reconciler) Drain() []model.LiveMessage {
	r.mu.Lock()
	msgs := r.pending
	r.pending = nil
	r.mu.Unlock()

	slices.SortStableFunc(msgs, func(a, b model.LiveMessage) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})
	return msgs
}

// Merge applies one message to w. Rejected and superseded messages leave w untouched.
func (r *Reconciler) Merge(w Writer, msg model.LiveMessage) (Outcome, error) {
	if err := msg.Validate(); err != nil {
		return Rejected, err
	}

	cur, ok := w.Get(msg.Identifier)
	if !ok {
		return Rejected, fmt.Errorf("%w: unknown vessel %q", model.ErrFeedMessageRejected, msg.Identifier)
	}
	if !cur.LastUpdated.Before(msg.ObservedAt) {
		return Superseded, fmt.Errorf("%w: %s observed at %s, state from %s",
			model.ErrFeedMessageSuperseded, msg.Identifier, msg.ObservedAt, cur.LastUpdated)
	}

	cur.Position = msg.Position
	cur.Kinematics = msg.Kinematics
	if msg.Destination != "" {
		cur.Destination = msg.Destination
	}
	if msg.ETA != nil {
		eta := *msg.ETA
		cur.ETA = &eta
	}
	if msg.Status != "" {
		cur.Status = msg.Status
	}
	cur.DataSource = model.SourceLive
	cur.LastUpdated = msg.ObservedAt

	w.Put(cur)
	return Applied, nil
}

// Result counts the outcomes of one Apply.
type Result struct {
	Applied    int
	Superseded int
	Rejected   int
}

// Apply drains the buffer and merges every message into w.
func (r *Reconciler) Apply(w Writer) Result {
	var res Result
	for _, msg := range r.Drain() {
		outcome, err := r.Merge(w, msg)
		switch outcome {
		case Applied:
			res.Applied++
		case Superseded:
			res.Superseded++
			r.log.Debug("Live message superseded", "vessel", msg.Identifier, "observedAt", msg.ObservedAt)
		case Rejected:
			res.Rejected++
			r.log.Warn("Live message rejected", "vessel", msg.Identifier, "reason", err.Error())
		}
		metrics.FeedMessages.WithLabelValues(outcome.String()).Inc()
	}

	r.mu.Lock()
	r.stats.Applied += uint64(res.Applied)
	r.stats.Superseded += uint64(res.Superseded)
	r.stats.Rejected += uint64(res.Rejected)
	r.mu.Unlock()

	return res
}

// CountUndecodable records a feed payload that never became a LiveMessage.
func (r *Reconciler) CountUndecodable() {
	r.mu.Lock()
	r.stats.Received++
	r.stats.Rejected++
	r.mu.Unlock()
	metrics.FeedMessages.WithLabelValues("undecodable").Inc()
}

// Stats returns the feed counters since start.
func (r *Reconciler) Stats() model.FeedStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Pending returns the number of buffered messages.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
