package app

import (
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/fleetcast/pkg/log"
)

// NamedFlagSetOptions is implemented by a command's aggregated options.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets, grouped by concern for --help.
	Flags() cliflag.NamedFlagSets

	// Complete fills derived fields after flags, env and config are merged.
	Complete() error

	// Validate reports every invalid field at once.
	Validate() error
}

// LoggerOptions is implemented by options that configure the process logger.
type LoggerOptions interface {
	LogOptions() *log.Options
}
