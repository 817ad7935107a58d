package app

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/fleetcast/internal/fleethub/broadcast"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/engine"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
	"github.com/autopeer-io/fleetcast/internal/fleethub/reconcile"
	"github.com/autopeer-io/fleetcast/internal/fleethub/routes"
	hubgrpc "github.com/autopeer-io/fleetcast/internal/fleethub/server/grpc"
	hubhttp "github.com/autopeer-io/fleetcast/internal/fleethub/server/http"
	"github.com/autopeer-io/fleetcast/internal/fleethub/session"
	"github.com/autopeer-io/fleetcast/internal/fleethub/sim"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// startHub serves a small seeded fleet over HTTP and websocket.
func startHub(t *testing.T) *httptest.Server {
	t.Helper()

	catalog, err := routes.New(routes.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	clk := clocktesting.NewFakeClock(t0)
	simulator := sim.New(sim.DefaultConfig())
	fleet := sim.SeedFleet(simulator.Rand(), sim.FleetConfig{Size: 6, RouteProbability: 0.5, FirstIMO: 7000000}, catalog, t0)
	st := store.New(fleet, t0)
	hub := broadcast.NewHub(broadcast.Config{}, st, clk)
	eng := engine.New(time.Second, clk, st, simulator, reconcile.New(0), hub)

	ctx, cancel := context.WithCancel(context.Background())
	sessions := session.NewHandler(ctx, hub, eng, session.Config{})
	srv := httptest.NewServer(hubhttp.NewServer(options.NewHttpOptions(), eng, catalog, sessions, func() bool { return true }).Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
		sessions.Wait()
	})
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewFleetctlCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRoutes(t *testing.T) {
	srv := startHub(t)
	out, err := run(t, "--server", srv.URL, "routes")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"NAME", "Asia-Europe (Suez)", "Brazil-China Iron Ore"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSnapshot(t *testing.T) {
	srv := startHub(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"summary only", nil, []string{"VESSELS:", "6"}, []string{"IDENTIFIER"}},
		{"with vessels", []string{"--vessels"}, []string{"IDENTIFIER", "IMO7000000", "IMO7000005"}, nil},
		{"one vessel", []string{"--identifier", "IMO7000002"}, []string{"IMO7000002"}, []string{"IMO7000003"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"--server", srv.URL, "snapshot"}, tt.args...)...)
			if err != nil {
				t.Fatal(err)
			}
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestSnapshotRejectsUnknownType(t *testing.T) {
	if _, err := run(t, "--server", "http://127.0.0.1:1", "snapshot", "--type", "yacht"); err == nil {
		t.Fatal("unknown vessel type accepted")
	}
}

func TestWatchPrintsSnapshot(t *testing.T) {
	srv := startHub(t)
	out, err := run(t, "--server", srv.URL, "watch", "--count", "1", "--identifier", "IMO7000001")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tick 0: snapshot of 1 vessels") || !strings.Contains(out, "IMO7000001") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRender(t *testing.T) {
	v := model.VesselState{Identifier: "IMO7000009", VesselType: model.VesselTypeBulker, DataSource: model.SourceLive}

	tests := []struct {
		name      string
		msg       protocol.Message
		wantOut   string
		wantReply protocol.RequestType
		wantErr   bool
	}{
		{"delta acks", protocol.Message{Type: protocol.MessageDelta, Tick: 4, Vessels: []model.VesselState{v}}, "tick 4: 1 vessels changed", protocol.RequestAck, false},
		{"overflow resyncs", protocol.Message{Type: protocol.MessageResyncRequired, Tick: 9, Dropped: 3}, "3 deltas dropped", protocol.RequestResync, false},
		{"error frame fails", protocol.Message{Type: protocol.MessageError, Code: protocol.CodeMalformedRequest, Error: "bad"}, "", "", true},
		{"summary printed", protocol.Message{Type: protocol.MessageSummary, Tick: 2}, "tick 2: summary", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			reply, err := render(&out, tt.msg, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("render() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", out.String(), tt.wantOut)
			}
			var got protocol.RequestType
			if reply != nil {
				got = reply.Request
			}
			if got != tt.wantReply {
				t.Errorf("reply = %q, want %q", got, tt.wantReply)
			}
			if reply != nil && reply.Request == protocol.RequestAck && reply.Tick != tt.msg.Tick {
				t.Errorf("ack tick = %d, want %d", reply.Tick, tt.msg.Tick)
			}
		})
	}
}

func TestFilterFromFlags(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		types      []string
		want       model.Filter
		wantErr    bool
	}{
		{"all", "", nil, model.AllVessels(), false},
		{"identifier", "IMO7000001", nil, model.ByIdentifier("IMO7000001"), false},
		{"types", "", []string{"tanker", "bulker"}, model.ByTypes(model.VesselTypeTanker, model.VesselTypeBulker), false},
		{"both", "IMO7000001", []string{"tanker"}, model.Filter{}, true},
		{"unknown type", "", []string{"yacht"}, model.Filter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterFromFlags(tt.identifier, tt.types)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.String() != tt.want.String() {
				t.Errorf("filter = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://hub:8080":      "ws://hub:8080/ws",
		"https://hub.example/": "wss://hub.example/ws",
		"http://hub/prefix":    "ws://hub/prefix/ws",
	}
	for in, want := range tests {
		c, err := newAPIClient(in, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.socketURL(); got != want {
			t.Errorf("socketURL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := newAPIClient("ftp://hub", time.Second); err == nil {
		t.Error("ftp scheme accepted")
	}
}

func TestHealth(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	s := hubgrpc.NewServer(options.NewGrpcOptions(), ready.Load)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	out, err := run(t, "--grpc-addr", lis.Addr().String(), "health")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "SERVING") {
		t.Errorf("output = %q, want SERVING", out)
	}
}
