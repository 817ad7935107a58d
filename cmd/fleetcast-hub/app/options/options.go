package options

import (
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/fleetcast/internal/fleethub"
	"github.com/autopeer-io/fleetcast/pkg/app"
	"github.com/autopeer-io/fleetcast/pkg/log"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

type HubOptions struct {
	HttpOptions       *options.HttpOptions       `json:"http" mapstructure:"http"`
	GrpcOptions       *options.GrpcOptions       `json:"grpc" mapstructure:"grpc"`
	MqttOptions       *options.MqttOptions       `json:"mqtt" mapstructure:"mqtt"`
	RedisOptions      *options.RedisOptions      `json:"redis" mapstructure:"redis"`
	S3Options         *options.S3Options         `json:"s3" mapstructure:"s3"`
	SimulationOptions *options.SimulationOptions `json:"simulation" mapstructure:"simulation"`
	BroadcastOptions  *options.BroadcastOptions  `json:"broadcast" mapstructure:"broadcast"`
	FeedOptions       *options.FeedOptions       `json:"feed" mapstructure:"feed"`
	RoutesOptions     *options.RoutesOptions     `json:"routes" mapstructure:"routes"`
	Log               *log.Options               `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*HubOptions)(nil)
	_ app.LoggerOptions       = (*HubOptions)(nil)
)

func NewHubOptions() *HubOptions {
	o := &HubOptions{
		HttpOptions:       options.NewHttpOptions(),
		GrpcOptions:       options.NewGrpcOptions(),
		MqttOptions:       options.NewMqttOptions(),
		RedisOptions:      options.NewRedisOptions(),
		S3Options:         options.NewS3Options(),
		SimulationOptions: options.NewSimulationOptions(),
		BroadcastOptions:  options.NewBroadcastOptions(),
		FeedOptions:       options.NewFeedOptions(),
		RoutesOptions:     options.NewRoutesOptions(),
		Log:               log.NewOptions(),
	}

	return o
}

func (o *HubOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.SimulationOptions.AddFlags(fss.FlagSet("simulation"))
	o.BroadcastOptions.AddFlags(fss.FlagSet("broadcast"))
	o.FeedOptions.AddFlags(fss.FlagSet("feed"))
	o.RoutesOptions.AddFlags(fss.FlagSet("routes"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *HubOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "fleetcast-hub"
	}
	return nil
}

func (o *HubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.SimulationOptions.Validate()...)
	errs = append(errs, o.BroadcastOptions.Validate()...)
	errs = append(errs, o.FeedOptions.Validate()...)
	errs = append(errs, o.RoutesOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	if strings.HasPrefix(o.RoutesOptions.Source, "s3://") {
		errs = append(errs, o.S3Options.Validate()...)
	}
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *HubOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *HubOptions) Config() (*fleethub.Config, error) {
	return &fleethub.Config{
		HttpOptions:       o.HttpOptions,
		GrpcOptions:       o.GrpcOptions,
		MqttOptions:       o.MqttOptions,
		RedisOptions:      o.RedisOptions,
		S3Options:         o.S3Options,
		SimulationOptions: o.SimulationOptions,
		BroadcastOptions:  o.BroadcastOptions,
		FeedOptions:       o.FeedOptions,
		RoutesOptions:     o.RoutesOptions,
	}, nil
}
