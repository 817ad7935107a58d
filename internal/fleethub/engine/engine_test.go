package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/fleetcast/internal/fleethub/broadcast"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
	"github.com/autopeer-io/fleetcast/internal/fleethub/reconcile"
	"github.com/autopeer-io/fleetcast/internal/fleethub/sim"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
)

const period = 30 * time.Second

var tStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func quietSim() *sim.Simulator {
	cfg := sim.DefaultConfig()
	cfg.Transitions = sim.TransitionTable{}
	cfg.CourseJitter = 0
	cfg.SpeedJitter = 0
	cfg.Freshness = period
	return sim.New(cfg)
}

var hop = &model.Route{
	Name: "hop",
	Waypoints: []model.Waypoint{
		{Name: "A", Lat: 0, Lon: 0},
		{Name: "B", Lat: 0, Lon: 5.0 / 60},
	},
	EligibleTypes: []model.VesselType{model.VesselTypeTanker},
}

// scenarioFleet: V1 a route-following tanker, V2 a bulker with live data
// five seconds old at the first tick, V3 a container ship in port.
func scenarioFleet() []model.VesselState {
	return []model.VesselState{
		{
			Identifier:  "V1",
			VesselType:  model.VesselTypeTanker,
			Position:    hop.Waypoints[0].Position(),
			Kinematics:  model.Kinematics{SpeedOverGround: 10, CourseOverGround: 90},
			Status:      model.StatusAtSea,
			Route:       hop,
			RouteRef:    hop.Name,
			CruiseSpeed: 10,
			DataSource:  model.SourceSimulated,
			LastUpdated: tStart,
		},
		{
			Identifier:  "V2",
			VesselType:  model.VesselTypeBulker,
			Position:    model.Position{Lat: 10, Lon: 10},
			Kinematics:  model.Kinematics{SpeedOverGround: 12, CourseOverGround: 180},
			Status:      model.StatusAtSea,
			DataSource:  model.SourceLive,
			LastUpdated: tStart.Add(period - 5*time.Second),
		},
		{
			Identifier:  "V3",
			VesselType:  model.VesselTypeContainer,
			Position:    model.Position{Lat: 51.9, Lon: 4.5},
			Status:      model.StatusInPort,
			DataSource:  model.SourceSimulated,
			LastUpdated: tStart,
		},
	}
}

type fixture struct {
	engine *Engine
	store  *store.Store
	hub    *broadcast.Hub
	clock  *clocktesting.FakeClock
}

func newFixture(sinks ...Sink) *fixture {
	clk := clocktesting.NewFakeClock(tStart)
	st := store.New(scenarioFleet(), tStart)
	hub := broadcast.NewHub(broadcast.Config{}, st, clk)
	e := New(period, clk, st, quietSim(), reconcile.New(0), hub, sinks...)
	return &fixture{engine: e, store: st, hub: hub, clock: clk}
}

func TestEndToEndTick(t *testing.T) {
	f := newFixture()

	sub, err := f.hub.Subscribe("tankers", model.ByTypes(model.VesselTypeTanker))
	if err != nil {
		t.Fatal(err)
	}
	onboarding := sub.Drain()
	if len(onboarding) != 1 || len(onboarding[0].Vessels) != 1 || onboarding[0].Vessels[0].Identifier != "V1" {
		t.Fatalf("onboarding = %+v, want snapshot with V1 only", onboarding)
	}

	before := f.store.Snapshot(model.AllVessels()).Vessels
	rep := f.engine.Step(tStart.Add(period))

	if rep.Tick != 1 || rep.Advanced != 2 || rep.Skipped != 1 || rep.Changed != 1 {
		t.Errorf("report = %+v", rep)
	}

	v1, _ := f.engine.Vessel("V1")
	want := sim.DistanceNM(10, period.Seconds()) / sim.Distance(hop.Waypoints[0].Position(), hop.Waypoints[1].Position())
	if d := v1.RouteProgress - want; d > 1e-6 || d < -1e-6 {
		t.Errorf("V1 progress = %.8f, want %.8f", v1.RouteProgress, want)
	}

	after := f.store.Snapshot(model.AllVessels()).Vessels
	if !after[1].Equal(before[1]) {
		t.Errorf("fresh live V2 was advanced: %+v", after[1])
	}
	if !after[2].Equal(before[2]) {
		t.Errorf("in-port V3 changed: %+v", after[2])
	}

	msgs := sub.Drain()
	if len(msgs) != 1 || msgs[0].Type != protocol.MessageDelta || msgs[0].Tick != 1 {
		t.Fatalf("delta = %+v", msgs)
	}
	if len(msgs[0].Vessels) != 1 || msgs[0].Vessels[0].Identifier != "V1" {
		t.Errorf("delta vessels = %+v, want V1 only", msgs[0].Vessels)
	}
}

func TestUnknownLiveVesselRejected(t *testing.T) {
	f := newFixture()
	f.engine.Step(tStart.Add(period))

	sub, _ := f.hub.Subscribe("all", model.AllVessels())
	sub.Drain()
	before := f.store.Snapshot(model.AllVessels())

	f.engine.Offer(model.LiveMessage{
		Identifier: "X9",
		Position:   model.Position{Lat: 1, Lon: 1},
		Kinematics: model.Kinematics{SpeedOverGround: 5, CourseOverGround: 10},
		ObservedAt: tStart.Add(period + time.Second),
	})
	rep := f.engine.Step(tStart.Add(period + time.Second))

	if rep.Feed.Rejected != 1 || rep.Feed.Applied != 0 {
		t.Errorf("feed result = %+v", rep.Feed)
	}
	if _, err := f.engine.Vessel("X9"); err == nil {
		t.Error("X9 entered the store")
	}
	after := f.store.Snapshot(model.AllVessels())
	if len(after.Vessels) != len(before.Vessels) {
		t.Errorf("store size changed from %d to %d", len(before.Vessels), len(after.Vessels))
	}
	for _, m := range sub.Drain() {
		for _, v := range m.Vessels {
			if v.Identifier == "X9" {
				t.Error("delta mentions X9")
			}
		}
	}
	if st := f.engine.FeedStats(); st.Rejected != 1 || st.Received != 1 {
		t.Errorf("feed stats = %+v", st)
	}
}

func TestLiveMessageProtectsVesselFromSimulation(t *testing.T) {
	f := newFixture()
	at := tStart.Add(period)

	f.engine.Offer(model.LiveMessage{
		Identifier: "V1",
		Position:   model.Position{Lat: 0.01, Lon: 0.01},
		Kinematics: model.Kinematics{SpeedOverGround: 9, CourseOverGround: 80},
		ObservedAt: at.Add(-time.Second),
	})
	rep := f.engine.Step(at)
	if rep.Feed.Applied != 1 {
		t.Fatalf("feed result = %+v", rep.Feed)
	}

	v1, _ := f.engine.Vessel("V1")
	if v1.DataSource != model.SourceLive || v1.Position != (model.Position{Lat: 0.01, Lon: 0.01}) {
		t.Errorf("V1 after live merge = %+v", v1)
	}

	// Once the live data ages past the freshness window the simulator takes over again.
	f.engine.Step(at.Add(2 * period))
	v1, _ = f.engine.Vessel("V1")
	if v1.DataSource != model.SourceSimulated {
		t.Errorf("stale live vessel not resumed by simulation: %+v", v1)
	}
}

func TestQueries(t *testing.T) {
	f := newFixture()

	if s := f.engine.CurrentSnapshot(); s.Total != 3 || s.BySource[model.SourceLive] != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if got := f.engine.VesselsMatching(model.ByTypes(model.VesselTypeContainer)); len(got) != 1 || got[0].Identifier != "V3" {
		t.Errorf("containers = %+v", got)
	}
	if _, err := f.engine.Vessel("nope"); err == nil {
		t.Error("missing vessel found")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunTicksEveryPeriod(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := f.engine.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	for want := uint64(1); want <= 3; want++ {
		waitFor(t, "timer", f.clock.HasWaiters)
		f.clock.Step(period)
		waitFor(t, "tick", func() bool { return f.store.Tick() == want })
	}
	if !f.engine.Running() {
		t.Error("engine not reported running")
	}
	if err := f.engine.Run(ctx); err == nil {
		t.Error("second Run should fail while the first is active")
	}
}

// slowSink makes the first tick look like it took two periods.
type slowSink struct {
	clock *clocktesting.FakeClock
	once  sync.Once
}

func (s *slowSink) Offer(store.Commit, model.FleetSnapshot) {
	s.once.Do(func() { s.clock.Step(2 * period) })
}

func TestRunOverrunSchedulesNextTickImmediately(t *testing.T) {
	sink := &slowSink{}
	f := newFixture(sink)
	sink.clock = f.clock

	overruns := testutil.ToFloat64(metrics.TickOverruns)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.engine.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	waitFor(t, "timer", f.clock.HasWaiters)
	f.clock.Step(period)

	// No further clock step: tick 2 must follow the overrunning tick 1 at once.
	waitFor(t, "second tick", func() bool { return f.store.Tick() == 2 })

	if got := testutil.ToFloat64(metrics.TickOverruns) - overruns; got != 1 {
		t.Errorf("overruns = %v, want 1", got)
	}
}
