package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*RoutesOptions)(nil)

// RoutesOptions select the route catalog.
type RoutesOptions struct {
	// Source is empty for the built-in routes, a YAML file path, or s3://bucket/key.
	Source string `json:"source" mapstructure:"source"`
}

func NewRoutesOptions() *RoutesOptions {
	return &RoutesOptions{}
}

func (o *RoutesOptions) Validate() []error {
	return nil
}

func (o *RoutesOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Source, join(prefixes, "routes.source"), o.Source, "Route catalog: empty for built-in routes, a YAML file, or s3://bucket/key.")
}
