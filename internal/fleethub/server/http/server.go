package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/routes"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	"github.com/autopeer-io/fleetcast/pkg/log"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

// Server serves the query API, the websocket endpoint, probes and metrics.
type Server struct {
	server  *http.Server
	options *options.HttpOptions
	log     log.Logger
}

// NewServer wires the routes. sessions handles /ws upgrades; ready backs /readyz.
func NewServer(opts *options.HttpOptions, fleet core.FleetReader, catalog *routes.Catalog, sessions http.Handler, ready func() bool) *Server {
	h := &handlers{fleet: fleet, catalog: catalog, ready: ready}

	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/ws", sessions)

	api := r.PathPrefix("/api/v1").Subrouter()
	if opts.EnableGzip {
		api.Use(func(next http.Handler) http.Handler {
			return gzhttp.GzipHandler(next)
		})
	}
	api.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/vessels", h.vessels).Methods(http.MethodGet)
	api.HandleFunc("/vessels/{id}", h.vessel).Methods(http.MethodGet)
	api.HandleFunc("/routes", h.routes).Methods(http.MethodGet)
	api.HandleFunc("/feed", h.feed).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
		},
		options: opts,
		log:     log.WithName("http"),
	}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on http addr %s: %w", s.options.Addr, err)
	}
	s.log.Info("Starting HTTP server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		s.log.Info("Stopping HTTP server")
		return s.server.Shutdown(shutdownCtx)
	}
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// logRequests tags each request with an id, taken from X-Request-ID when
// the client sent one.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)

		log.FromContext(ctx).WithName("http").Debug("Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
