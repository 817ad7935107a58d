package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	hubgrpc "github.com/autopeer-io/fleetcast/internal/fleethub/server/grpc"
	mw "github.com/autopeer-io/fleetcast/internal/pkg/middleware/grpc"
)

func newHealthCommand(opts *rootOptions) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the hub's gRPC health service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := grpc.NewClient(opts.GrpcAddr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithUnaryInterceptor(mw.UnaryTimeoutInterceptor),
			)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
			if err != nil {
				return fmt.Errorf("health check %s: %w", opts.GrpcAddr, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.GetStatus().String())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("hub is %s", resp.GetStatus())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", hubgrpc.ServiceName, "Service to check. Empty checks the whole server.")
	return cmd
}
