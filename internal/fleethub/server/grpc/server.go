package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	mw "github.com/autopeer-io/fleetcast/internal/pkg/middleware/grpc"
	"github.com/autopeer-io/fleetcast/pkg/log"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

// ServiceName is the health service key reporting simulation readiness.
const ServiceName = "fleetcast.v1.FleetHub"

const defaultPollInterval = time.Second

// Server exposes the standard gRPC health service. Both the empty service
// name and ServiceName follow the readiness probe.
type Server struct {
	server  *grpc.Server
	health  *health.Server
	options *options.GrpcOptions
	ready   func() bool
	log     log.Logger

	pollInterval time.Duration
}

func NewServer(opts *options.GrpcOptions, ready func() bool) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(mw.UnaryServerLoggingInterceptor, mw.UnaryServerTimeoutInterceptor),
		grpc.ChainStreamInterceptor(mw.StreamServerLoggingInterceptor),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{
		server:       srv,
		health:       hs,
		options:      opts,
		ready:        ready,
		log:          log.WithName("grpc"),
		pollInterval: defaultPollInterval,
	}
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc addr %s: %w", s.options.Addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.log.Info("Starting gRPC server", "addr", lis.Addr().String())
	s.updateHealth()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.updateHealth()
		case <-ctx.Done():
			s.log.Info("Stopping gRPC server")
			s.health.Shutdown()
			s.stop()
			return nil
		}
	}
}

func (s *Server) updateHealth() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.ready == nil || s.ready() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// stop waits for in-flight calls up to the shutdown timeout. Watch streams
// never end on their own, so the server is stopped hard after that.
func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(s.options.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.server.Stop()
	}
}
