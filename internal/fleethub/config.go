package fleethub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/fleetcast/internal/fleethub/broadcast"
	"github.com/autopeer-io/fleetcast/internal/fleethub/engine"
	"github.com/autopeer-io/fleetcast/internal/fleethub/publisher"
	"github.com/autopeer-io/fleetcast/internal/fleethub/reconcile"
	"github.com/autopeer-io/fleetcast/internal/fleethub/routes"
	"github.com/autopeer-io/fleetcast/internal/fleethub/server"
	"github.com/autopeer-io/fleetcast/internal/fleethub/server/mqtt"
	"github.com/autopeer-io/fleetcast/internal/fleethub/session"
	"github.com/autopeer-io/fleetcast/internal/fleethub/sim"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/pkg/log"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

type Config struct {
	HttpOptions       *options.HttpOptions
	GrpcOptions       *options.GrpcOptions
	MqttOptions       *options.MqttOptions
	RedisOptions      *options.RedisOptions
	S3Options         *options.S3Options
	SimulationOptions *options.SimulationOptions
	BroadcastOptions  *options.BroadcastOptions
	FeedOptions       *options.FeedOptions
	RoutesOptions     *options.RoutesOptions

	// Clock defaults to the wall clock.
	Clock clock.WithTicker
}

func (cfg *Config) simulatorConfig(now time.Time) sim.Config {
	o := cfg.SimulationOptions
	c := sim.DefaultConfig()
	c.Dwell = o.Dwell
	c.Freshness = o.Freshness
	c.CourseJitter = o.CourseJitter
	c.SpeedJitter = o.SpeedJitter
	c.Seed = o.Seed
	if c.Seed == 0 {
		c.Seed = uint64(now.UnixNano())
	}
	return c
}

func (cfg *Config) sessionConfig() session.Config {
	o := cfg.BroadcastOptions
	return session.Config{
		WriteTimeout:   o.WriteTimeout,
		PingInterval:   o.PingInterval,
		PongWait:       o.Liveness,
		MaxMessageSize: o.MaxMessageSize,
	}
}

// NewHubServer loads the route catalog, seeds the fleet and wires every
// component. Nothing runs until HubServer.Run.
func (cfg *Config) NewHubServer(ctx context.Context) (*HubServer, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	// 1. Route catalog
	catalog, err := routes.Load(ctx, cfg.RoutesOptions.Source, cfg.S3Options)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	// 2. Fleet, store and simulation core
	now := clk.Now()
	simCfg := cfg.simulatorConfig(now)
	simulator := sim.New(simCfg)
	fleet := sim.SeedFleet(simulator.Rand(), sim.FleetConfig{
		Size:             cfg.SimulationOptions.FleetSize,
		RouteProbability: cfg.SimulationOptions.RouteProbability,
		FirstIMO:         sim.DefaultFleetConfig().FirstIMO,
	}, catalog, now)
	st := store.New(fleet, now)
	rec := reconcile.New(cfg.FeedOptions.MaxPending)

	// 3. Broadcast hub
	hub := broadcast.NewHub(broadcast.Config{
		QueueCapacity: cfg.BroadcastOptions.QueueCapacity,
		Liveness:      cfg.BroadcastOptions.Liveness,
	}, st, clk)

	// 4. Outbound sinks
	var (
		sinks      []engine.Sink
		publishers []server.Server
		svc        = &server.Services{}
	)
	if cfg.MqttOptions.Enabled() {
		svc.Topics = topic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)
		svc.HubID = mqtt.HubID()
		svc.MQTT, err = InitializeMQTTClient(cfg.MqttOptions, svc.Topics, svc.HubID)
		if err != nil {
			return nil, err
		}
		summary := mqtt.NewSummaryPublisher(svc.MQTT, svc.Topics)
		sinks = append(sinks, summary)
		publishers = append(publishers, summary)
	}
	if cfg.RedisOptions.Enabled() {
		rp := publisher.NewRedis(cfg.RedisOptions)
		sinks = append(sinks, rp)
		publishers = append(publishers, rp)
	}

	// 5. Engine
	eng := engine.New(cfg.SimulationOptions.Period, clk, st, simulator, rec, hub, sinks...)

	// 6. Servers
	sessionCtx, stopSessions := context.WithCancel(context.Background())
	sessions := session.NewHandler(sessionCtx, hub, eng, cfg.sessionConfig())

	svc.Fleet = eng
	svc.Feed = eng
	svc.Catalog = catalog
	svc.Sessions = sessions
	svc.Ready = eng.Running

	serverConfig := &server.Config{
		HttpOptions: cfg.HttpOptions,
		GrpcOptions: cfg.GrpcOptions,
		MqttOptions: cfg.MqttOptions,
	}
	srvManager := server.NewManager(serverConfig, svc)
	srvManager.Add(publishers...)

	log.Info("Fleet hub configured",
		"routes", catalog.Len(),
		"vessels", st.Len(),
		"seed", simCfg.Seed,
		"period", cfg.SimulationOptions.Period,
		"routeSource", routeSourceName(cfg.RoutesOptions.Source),
		"mqtt", cfg.MqttOptions.Enabled(),
		"redis", cfg.RedisOptions.Enabled(),
	)

	return &HubServer{
		engine:        eng,
		hub:           hub,
		sessions:      sessions,
		stopSessions:  stopSessions,
		serverManager: srvManager,
	}, nil
}

func routeSourceName(source string) string {
	switch {
	case source == "":
		return "builtin"
	case strings.HasPrefix(source, "s3://"):
		return "s3"
	default:
		return "file"
	}
}
