package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/fleetcast/internal/fleethub/server/grpc"
	"github.com/autopeer-io/fleetcast/internal/fleethub/server/http"
	"github.com/autopeer-io/fleetcast/internal/fleethub/server/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

// Server defines the common interface for every long-running component
// (protocol servers and outbound publishers).
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of all servers.
type Manager struct {
	servers []Server
}

// NewManager creates the protocol servers enabled by cfg.
func NewManager(cfg *Config, svc *Services) *Manager {
	var servers []Server

	// 1. Live feed ingest
	if cfg.MqttOptions.Enabled() && svc.MQTT != nil {
		servers = append(servers, mqtt.NewServer(svc.MQTT, svc.Topics, svc.Feed, cfg.MqttOptions, svc.HubID))
	}

	// 2. gRPC health
	if cfg.GrpcOptions.Enabled {
		servers = append(servers, grpc.NewServer(cfg.GrpcOptions, svc.Ready))
	}

	// 3. Query API, websocket sessions, probes and metrics
	servers = append(servers, http.NewServer(cfg.HttpOptions, svc.Fleet, svc.Catalog, svc.Sessions, svc.Ready))

	return &Manager{
		servers: servers,
	}
}

// Add registers additional components started alongside the servers.
func (m *Manager) Add(servers ...Server) {
	m.servers = append(m.servers, servers...)
}

// Start launches all servers in parallel and waits for termination. The
// first failure stops the rest.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
