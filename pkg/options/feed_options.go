package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FeedOptions)(nil)

// FeedOptions bound the live feed buffer between ticks.
type FeedOptions struct {
	MaxPending int `json:"max-pending" mapstructure:"max-pending"`
}

func NewFeedOptions() *FeedOptions {
	return &FeedOptions{MaxPending: 100_000}
}

func (o *FeedOptions) Validate() []error {
	if o.MaxPending <= 0 {
		return []error{errors.New("--feed.max-pending must be positive")}
	}
	return nil
}

func (o *FeedOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.MaxPending, join(prefixes, "feed.max-pending"), o.MaxPending, "Live messages buffered between ticks. The oldest are dropped beyond this.")
}
