package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GrpcOptions)(nil)

// GrpcOptions configure the gRPC listener that serves the health service.
type GrpcOptions struct {
	// Enabled turns the gRPC listener on.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds GracefulStop before the server is stopped hard.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

func NewGrpcOptions() *GrpcOptions {
	return &GrpcOptions{
		Enabled:         true,
		Network:         "tcp",
		Addr:            "0.0.0.0:8091",
		ShutdownTimeout: 5 * time.Second,
	}
}

func (o *GrpcOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (o *GrpcOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, join(prefixes, "grpc.enabled"), o.Enabled, "Serve the gRPC health service.")
	fs.StringVar(&o.Network, join(prefixes, "grpc.network"), o.Network, "Specify the network for the gRPC server.")
	fs.StringVar(&o.Addr, join(prefixes, "grpc.addr"), o.Addr, "Specify the gRPC server bind address and port.")
	fs.DurationVar(&o.ShutdownTimeout, join(prefixes, "grpc.shutdown-timeout"), o.ShutdownTimeout, "Time allowed for in-flight RPCs on shutdown.")
}
