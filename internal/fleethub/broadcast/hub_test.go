package broadcast

import (
	"errors"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, cfg Config) (*Hub, *store.Store, *clocktesting.FakeClock) {
	t.Helper()
	s := store.New([]model.VesselState{
		{Identifier: "V1", VesselType: model.VesselTypeTanker, Status: model.StatusAtSea, DataSource: model.SourceSimulated, LastUpdated: t0},
		{Identifier: "V2", VesselType: model.VesselTypeBulker, Status: model.StatusAtSea, DataSource: model.SourceSimulated, LastUpdated: t0},
		{Identifier: "V3", VesselType: model.VesselTypeTanker, Status: model.StatusInPort, DataSource: model.SourceSimulated, LastUpdated: t0},
	}, t0)
	clk := clocktesting.NewFakeClock(t0)
	return NewHub(cfg, s, clk), s, clk
}

// move commits a tick changing the latitude of ids.
func move(s *store.Store, tick uint64, ids ...string) store.Commit {
	return s.Update(tick, t0.Add(time.Duration(tick)*30*time.Second), func(tx *store.Tx) {
		for _, id := range ids {
			v, _ := tx.Get(id)
			v.Position.Lat = float64(tick)
			tx.Put(v)
		}
	})
}

func ids(vessels []model.VesselState) []string {
	out := make([]string, 0, len(vessels))
	for _, v := range vessels {
		out = append(out, v.Identifier)
	}
	return out
}

func TestSubscribeSendsFilteredSnapshot(t *testing.T) {
	h, _, _ := newFixture(t, Config{})

	sub, err := h.Subscribe("c1", model.ByTypes(model.VesselTypeTanker))
	if err != nil {
		t.Fatal(err)
	}
	msgs := sub.Drain()
	if len(msgs) != 1 || msgs[0].Type != protocol.MessageSnapshot {
		t.Fatalf("got %+v, want one snapshot", msgs)
	}
	if got := ids(msgs[0].Vessels); len(got) != 2 || got[0] != "V1" || got[1] != "V3" {
		t.Errorf("snapshot vessels = %v", got)
	}
	if msgs[0].Summary == nil || msgs[0].Summary.Total != 3 {
		t.Errorf("snapshot summary must cover the whole fleet: %+v", msgs[0].Summary)
	}
}

func TestPublishFiltersDeltas(t *testing.T) {
	h, s, _ := newFixture(t, Config{})

	tankers, _ := h.Subscribe("tankers", model.ByTypes(model.VesselTypeTanker))
	one, _ := h.Subscribe("one", model.ByIdentifier("V2"))
	all, _ := h.Subscribe("all", model.AllVessels())
	tankers.Drain()
	one.Drain()
	all.Drain()

	h.Publish(move(s, 1, "V1", "V2"))

	if got := tankers.Drain(); len(got) != 1 || len(got[0].Vessels) != 1 || got[0].Vessels[0].Identifier != "V1" {
		t.Errorf("tanker subscriber got %+v", got)
	}
	if got := one.Drain(); len(got) != 1 || got[0].Vessels[0].Identifier != "V2" {
		t.Errorf("identifier subscriber got %+v", got)
	}
	if got := all.Drain(); len(got) != 1 || len(got[0].Vessels) != 2 || got[0].Tick != 1 {
		t.Errorf("all subscriber got %+v", got)
	}

	// Only a bulker moves: the tanker subscriber receives nothing.
	h.Publish(move(s, 2, "V2"))
	if got := tankers.Drain(); len(got) != 0 {
		t.Errorf("tanker subscriber got %d messages for a bulker-only tick", len(got))
	}
}

func TestSnapshotAndDeltasDoNotOverlap(t *testing.T) {
	h, s, _ := newFixture(t, Config{})

	c1 := move(s, 1, "V1")
	sub, _ := h.Subscribe("c", model.AllVessels())
	h.Publish(c1)
	h.Publish(move(s, 2, "V1"))

	msgs := sub.Drain()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want snapshot and tick 2", len(msgs))
	}
	if msgs[0].Type != protocol.MessageSnapshot || msgs[0].Tick != 1 {
		t.Errorf("first = %s@%d", msgs[0].Type, msgs[0].Tick)
	}
	if msgs[1].Type != protocol.MessageDelta || msgs[1].Tick != 2 {
		t.Errorf("second = %s@%d", msgs[1].Type, msgs[1].Tick)
	}
}

func TestOverflowQueuesResyncMarker(t *testing.T) {
	h, s, _ := newFixture(t, Config{QueueCapacity: 4})
	sub, _ := h.Subscribe("slow", model.AllVessels())
	sub.Drain()

	for tick := uint64(1); tick <= 5; tick++ {
		h.Publish(move(s, tick, "V1"))
	}

	msgs := sub.Drain()
	if len(msgs) != 4 {
		t.Fatalf("queue length %d, want 4", len(msgs))
	}
	if msgs[0].Tick != 2 {
		t.Errorf("oldest delta not dropped: first tick %d", msgs[0].Tick)
	}
	last := msgs[len(msgs)-1]
	if last.Type != protocol.MessageResyncRequired || last.Dropped != 2 {
		t.Errorf("last = %+v, want resync_required after two drops", last)
	}

	// Overflowing again keeps a single marker queued.
	for tick := uint64(6); tick <= 12; tick++ {
		h.Publish(move(s, tick, "V1"))
	}
	markers := 0
	for _, m := range sub.Drain() {
		if m.Type == protocol.MessageResyncRequired {
			markers++
		}
	}
	if markers != 1 {
		t.Errorf("%d markers queued, want 1", markers)
	}

	if err := h.Resync("slow"); err != nil {
		t.Fatal(err)
	}
	h.Publish(move(s, 13, "V1"))
	msgs = sub.Drain()
	if len(msgs) != 2 || msgs[0].Type != protocol.MessageSnapshot || msgs[0].Tick != 12 || msgs[1].Tick != 13 {
		t.Errorf("after resync got %+v", msgs)
	}
}

func TestUnsubscribeIsIdempotentAndResubscribeIsFresh(t *testing.T) {
	h, s, _ := newFixture(t, Config{})
	sub, _ := h.Subscribe("c", model.AllVessels())

	h.Unsubscribe("c")
	h.Unsubscribe("c")
	h.Unsubscribe("never-attached")

	h.Publish(move(s, 1, "V1"))
	if n := sub.Len(); n != 0 {
		t.Errorf("unsubscribed client has %d queued messages", n)
	}

	again, err := h.Subscribe("c", model.ByIdentifier("V1"))
	if err != nil {
		t.Fatal(err)
	}
	if again != sub {
		t.Error("resubscribe should reuse the attached subscription")
	}
	msgs := again.Drain()
	if len(msgs) != 1 || msgs[0].Type != protocol.MessageSnapshot || len(msgs[0].Vessels) != 1 {
		t.Errorf("resubscribe got %+v, want a fresh snapshot", msgs)
	}
}

func TestSubscribeRejectsInvalidFilter(t *testing.T) {
	h, _, _ := newFixture(t, Config{})
	_, err := h.Subscribe("c", model.ByTypes("yacht"))
	if !errors.Is(err, model.ErrMalformedClientRequest) {
		t.Errorf("err = %v", err)
	}
	if h.Len() != 0 {
		t.Error("invalid subscribe attached the client")
	}
}

func TestLivenessEviction(t *testing.T) {
	h, s, clk := newFixture(t, Config{Liveness: 10 * time.Second})
	quiet, _ := h.Subscribe("quiet", model.AllVessels())
	chatty, _ := h.Subscribe("chatty", model.AllVessels())

	clk.Step(6 * time.Second)
	h.Touch("chatty")
	clk.Step(6 * time.Second)
	h.Ack("chatty", 1)
	h.Publish(move(s, 1, "V1"))

	select {
	case <-quiet.Done():
	default:
		t.Fatal("silent client not evicted")
	}
	if !errors.Is(quiet.Err(), model.ErrSessionLivenessTimeout) {
		t.Errorf("reason = %v", quiet.Err())
	}

	select {
	case <-chatty.Done():
		t.Fatal("active client evicted")
	default:
	}
	if chatty.LastAckTick() != 1 {
		t.Errorf("last ack = %d", chatty.LastAckTick())
	}
	if h.Len() != 1 {
		t.Errorf("attached = %d, want 1", h.Len())
	}
}

func TestDetachClosesOnce(t *testing.T) {
	h, _, _ := newFixture(t, Config{})
	sub := h.Attach("c")

	h.Detach("c")
	h.Detach("c")

	select {
	case <-sub.Done():
	default:
		t.Fatal("detach did not close the subscription")
	}
	if sub.Err() != nil {
		t.Errorf("client initiated detach has reason %v", sub.Err())
	}
}

func TestReplyBypassesFilter(t *testing.T) {
	h, _, _ := newFixture(t, Config{})
	sub := h.Attach("c")

	h.Reply("c", protocol.Message{Type: protocol.MessageSummary})
	select {
	case <-sub.Ready():
	default:
		t.Fatal("reply did not signal")
	}
	if msgs := sub.Drain(); len(msgs) != 1 || msgs[0].Type != protocol.MessageSummary {
		t.Errorf("got %+v", msgs)
	}
}
