package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configure the HTTP listener serving the query API, the
// websocket endpoint, probes and metrics.
type HttpOptions struct {
	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// ReadHeaderTimeout guards against slow clients during the handshake.
	ReadHeaderTimeout time.Duration `json:"read-header-timeout" mapstructure:"read-header-timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`

	// EnableGzip compresses query API responses.
	EnableGzip bool `json:"enable-gzip" mapstructure:"enable-gzip"`
}

func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Network:           "tcp",
		Addr:              "0.0.0.0:8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		EnableGzip:        true,
	}
}

func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("--http.shutdown-timeout must be positive"))
	}
	return errs
}

func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, join(prefixes, "http.network"), o.Network, "Specify the network for the HTTP server.")
	fs.StringVar(&o.Addr, join(prefixes, "http.addr"), o.Addr, "Specify the HTTP server bind address and port.")
	fs.DurationVar(&o.ReadHeaderTimeout, join(prefixes, "http.read-header-timeout"), o.ReadHeaderTimeout, "Maximum time to read request headers.")
	fs.DurationVar(&o.ShutdownTimeout, join(prefixes, "http.shutdown-timeout"), o.ShutdownTimeout, "Time allowed for graceful shutdown.")
	fs.BoolVar(&o.EnableGzip, join(prefixes, "http.enable-gzip"), o.EnableGzip, "Gzip query API responses when the client accepts it.")
}
