// Package engine runs the simulation tick loop.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/reconcile"
	"github.com/autopeer-io/fleetcast/internal/fleethub/sim"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

// DefaultPeriod is the simulation tick period.
const DefaultPeriod = 30 * time.Second

var (
	_ core.FleetReader = (*Engine)(nil)
	_ core.FeedSink    = (*Engine)(nil)
)

// Publisher receives every committed tick. It must not block.
type Publisher interface {
	Publish(c store.Commit)
}

// Sink exports committed ticks outside the process. Offer must not block.
type Sink interface {
	Offer(c store.Commit, summary model.FleetSnapshot)
}

// Engine is the only writer of the vessel store. Ticks never overlap.
type Engine struct {
	period    time.Duration
	clock     clock.WithTicker
	store     *store.Store
	sim       *sim.Simulator
	rec       *reconcile.Reconciler
	publisher Publisher
	sinks     []Sink
	log       log.Logger

	tick    uint64
	lastAt  time.Time
	running atomic.Bool
}

// New wires an engine. The store's current time is taken as the start of
// the first tick interval.
func New(period time.Duration, clk clock.WithTicker, st *store.Store, simulator *sim.Simulator, rec *reconcile.Reconciler, publisher Publisher, sinks ...Sink) *Engine {
	if period <= 0 {
		period = DefaultPeriod
	}
	tick, at := st.Committed()
	return &Engine{
		period:    period,
		clock:     clk,
		store:     st,
		sim:       simulator,
		rec:       rec,
		publisher: publisher,
		sinks:     sinks,
		log:       log.WithName("engine"),
		tick:      tick,
		lastAt:    at,
	}
}

// Report describes one tick.
type Report struct {
	Tick     uint64
	Feed     reconcile.Result
	Advanced int
	Skipped  int
	Changed  int
	Duration time.Duration
}

// Step runs one tick at now: merge buffered live data, advance every vessel
// not protected by fresh live data, commit, publish.
func (e *Engine) Step(now time.Time) Report {
	start := e.clock.Now()

	e.tick++
	elapsed := now.Sub(e.lastAt)
	if elapsed < 0 {
		elapsed = 0
	}

	rep := Report{Tick: e.tick}
	commit := e.store.Update(e.tick, now, func(tx *store.Tx) {
		rep.Feed = e.rec.Apply(tx)
		for _, id := range tx.IDs() {
			v, _ := tx.Get(id)
			if e.sim.Fresh(&v, now) {
				rep.Skipped++
				continue
			}
			tx.Put(e.sim.Advance(v, elapsed, now))
			rep.Advanced++
		}
	})
	e.lastAt = now
	rep.Changed = len(commit.Changed)

	e.publisher.Publish(commit)
	if len(e.sinks) > 0 {
		summary := e.store.Summary()
		for _, s := range e.sinks {
			s.Offer(commit, summary)
		}
	}

	rep.Duration = e.clock.Since(start)
	e.observe(rep)
	return rep
}

func (e *Engine) observe(rep Report) {
	metrics.TickDuration.Observe(rep.Duration.Seconds())
	metrics.DeltaVessels.Observe(float64(rep.Changed))

	summary := e.store.Summary()
	for _, src := range []model.DataSource{model.SourceSimulated, model.SourceLive} {
		metrics.Vessels.WithLabelValues(string(src)).Set(float64(summary.BySource[src]))
	}

	e.log.Debug("Tick committed",
		"tick", rep.Tick,
		"changed", rep.Changed,
		"advanced", rep.Advanced,
		"skipped", rep.Skipped,
		"applied", rep.Feed.Applied,
		"superseded", rep.Feed.Superseded,
		"rejected", rep.Feed.Rejected,
		"duration", rep.Duration,
	)
}

// Run ticks every period until ctx is done. A tick that overruns the period
// is followed immediately by the next one.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine already running")
	}
	defer e.running.Store(false)

	e.log.Info("Simulation started", "period", e.period, "vessels", e.store.Len())

	next := e.clock.Now().Add(e.period)
	for {
		if wait := next.Sub(e.clock.Now()); wait > 0 {
			timer := e.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				e.log.Info("Simulation stopped", "tick", e.tick)
				return nil
			case <-timer.C():
			}
		} else if ctx.Err() != nil {
			e.log.Info("Simulation stopped", "tick", e.tick)
			return nil
		}

		start := e.clock.Now()
		rep := e.Step(start)
		if rep.Duration > e.period {
			metrics.TickOverruns.Inc()
			e.log.Warn("Tick overran period",
				"tick", rep.Tick,
				"duration", rep.Duration,
				"period", e.period,
				"error", model.ErrTickOverrun,
			)
			next = e.clock.Now()
			continue
		}
		next = start.Add(e.period)
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}
