package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*BroadcastOptions)(nil)

// BroadcastOptions tune subscriber queues and the websocket transport.
type BroadcastOptions struct {
	// QueueCapacity bounds the frames waiting for one client.
	QueueCapacity int `json:"queue-capacity" mapstructure:"queue-capacity"`

	// Liveness closes clients that sent nothing for this long. Zero disables it.
	Liveness time.Duration `json:"liveness" mapstructure:"liveness"`

	WriteTimeout   time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
	PingInterval   time.Duration `json:"ping-interval" mapstructure:"ping-interval"`
	MaxMessageSize int64         `json:"max-message-size" mapstructure:"max-message-size"`
}

func NewBroadcastOptions() *BroadcastOptions {
	return &BroadcastOptions{
		QueueCapacity:  64,
		Liveness:       90 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   20 * time.Second,
		MaxMessageSize: 4096,
	}
}

func (o *BroadcastOptions) Validate() []error {
	var errs []error
	if o.QueueCapacity < 2 {
		errs = append(errs, errors.New("--broadcast.queue-capacity must be at least 2"))
	}
	if o.Liveness < 0 {
		errs = append(errs, errors.New("--broadcast.liveness must not be negative"))
	}
	if o.Liveness > 0 && o.Liveness <= o.PingInterval {
		errs = append(errs, errors.New("--broadcast.liveness must exceed --broadcast.ping-interval"))
	}
	if o.WriteTimeout <= 0 || o.PingInterval <= 0 {
		errs = append(errs, errors.New("--broadcast.write-timeout and --broadcast.ping-interval must be positive"))
	}
	if o.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("--broadcast.max-message-size must be positive"))
	}
	return errs
}

func (o *BroadcastOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.QueueCapacity, join(prefixes, "broadcast.queue-capacity"), o.QueueCapacity, "Maximum frames queued for one client before it must resync.")
	fs.DurationVar(&o.Liveness, join(prefixes, "broadcast.liveness"), o.Liveness, "Close clients silent for longer than this. Zero disables the check.")
	fs.DurationVar(&o.WriteTimeout, join(prefixes, "broadcast.write-timeout"), o.WriteTimeout, "Deadline for writing one websocket frame.")
	fs.DurationVar(&o.PingInterval, join(prefixes, "broadcast.ping-interval"), o.PingInterval, "Interval between websocket pings.")
	fs.Int64Var(&o.MaxMessageSize, join(prefixes, "broadcast.max-message-size"), o.MaxMessageSize, "Largest client request accepted, in bytes.")
}
