// Package fleethub assembles the simulation engine, the broadcast hub and
// the servers into one process.
package fleethub

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/fleetcast/internal/fleethub/broadcast"
	"github.com/autopeer-io/fleetcast/internal/fleethub/engine"
	"github.com/autopeer-io/fleetcast/internal/fleethub/server"
	"github.com/autopeer-io/fleetcast/internal/fleethub/session"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

// HubServer is the main application struct for the fleet hub.
type HubServer struct {
	engine        *engine.Engine
	hub           *broadcast.Hub
	sessions      *session.Handler
	stopSessions  context.CancelFunc
	serverManager *server.Manager
}

// Run ticks the simulation and serves clients until ctx is done or a server
// fails. Connected clients are closed with a going-away frame before Run
// returns.
func (s *HubServer) Run(ctx context.Context) error {
	log.Info("Starting fleet hub...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.engine.Run(gctx)
	})
	g.Go(func() error {
		return s.serverManager.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.stopSessions()
		return nil
	})

	err := g.Wait()
	s.sessions.Wait()

	log.Info("Fleet hub stopped", "tick", s.engine.CurrentSnapshot().Tick, "clients", s.hub.Len())
	return err
}
