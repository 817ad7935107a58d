package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RedisOptions)(nil)

// RedisOptions configure the snapshot publisher. An empty Addr disables it.
type RedisOptions struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`

	// KeyPrefix namespaces the snapshot key and the tick channel.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// TTL expires the stored snapshot when the hub stops publishing.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
}

func NewRedisOptions() *RedisOptions {
	return &RedisOptions{
		KeyPrefix:    "fleetcast",
		TTL:          5 * time.Minute,
		WriteTimeout: 2 * time.Second,
	}
}

// Enabled reports whether a redis address was configured.
func (o *RedisOptions) Enabled() bool {
	return o != nil && o.Addr != ""
}

func (o *RedisOptions) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	if o.DB < 0 {
		errs = append(errs, errors.New("--redis.db must not be negative"))
	}
	if o.KeyPrefix == "" {
		errs = append(errs, errors.New("--redis.key-prefix must not be empty"))
	}
	return errs
}

func (o *RedisOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, join(prefixes, "redis.addr"), o.Addr, "Redis address for snapshot publishing. Empty disables publishing.")
	fs.StringVar(&o.Password, join(prefixes, "redis.password"), o.Password, "Redis password.")
	fs.IntVar(&o.DB, join(prefixes, "redis.db"), o.DB, "Redis database number.")
	fs.StringVar(&o.KeyPrefix, join(prefixes, "redis.key-prefix"), o.KeyPrefix, "Prefix for the snapshot key and tick channel.")
	fs.DurationVar(&o.TTL, join(prefixes, "redis.ttl"), o.TTL, "Expiry of the stored snapshot.")
	fs.DurationVar(&o.WriteTimeout, join(prefixes, "redis.write-timeout"), o.WriteTimeout, "Timeout for one publish round trip.")
}
