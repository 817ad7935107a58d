// Package app implements fleetctl, a command line client for a fleetcast hub.
package app

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetcast/pkg/log"
)

type rootOptions struct {
	Server   string
	GrpcAddr string
	Timeout  time.Duration
	Log      *log.Options
}

func NewFleetctlCommand() *cobra.Command {
	opts := &rootOptions{
		Server:   "http://127.0.0.1:8080",
		GrpcAddr: "127.0.0.1:8091",
		Timeout:  10 * time.Second,
		Log:      log.NewOptions(),
	}
	opts.Log.Level = "warn"
	opts.Log.OutputPaths = []string{"stderr"}

	cmd := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Inspect and watch a fleetcast hub",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.Init(opts.Log)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.Server, "server", "s", opts.Server, "Base URL of the hub HTTP endpoint.")
	fs.StringVar(&opts.GrpcAddr, "grpc-addr", opts.GrpcAddr, "Address of the hub gRPC endpoint.")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Timeout of a single request.")
	opts.Log.AddFlags(fs)

	cmd.AddCommand(
		newRoutesCommand(opts),
		newSnapshotCommand(opts),
		newWatchCommand(opts),
		newHealthCommand(opts),
		newReportCommand(opts),
	)
	return cmd
}
