// Package app builds cobra commands whose options are merged from flags,
// environment variables and an optional config file.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/fleetcast/pkg/log"
)

// App is the main structure of a cli application.
type App struct {
	basename    string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	extractors  map[string]func(context.Context) string
	cmd         *cobra.Command
}

// Option configures an App.
type Option func(*App)

// RunFunc is invoked once the options are merged and validated.
type RunFunc func() error

func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithValidArgs sets a custom positional argument validator.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithDefaultValidArgs rejects every positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithLoggerContextExtractor attaches values found in request contexts to
// log entries, see log.FromContext.
func WithLoggerContextExtractor(extractors map[string]func(context.Context) string) Option {
	return func(a *App) {
		a.extractors = extractors
	}
}

// NewApp creates a new application instance based on the given parameters.
func NewApp(basename string, shortDesc string, opts ...Option) *App {
	a := &App{
		basename:  basename,
		shortDesc: shortDesc,
		runFunc:   func() error { return nil },
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
		RunE:          a.runCommand,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	addConfigFlag(fss.FlagSet("global"), a.basename)
	globalflag.AddGlobalFlags(fss.FlagSet("global"), cmd.Name())
	for _, f := range fss.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, fss, cols)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}

	if a.options != nil {
		if err := v.Unmarshal(a.options); err != nil {
			return fmt.Errorf("failed to decode configuration: %w", err)
		}
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
		if lo, ok := a.options.(LoggerOptions); ok {
			log.Init(lo.LogOptions())
			defer log.Sync()
		}
	}
	log.SetContextExtractors(a.extractors)

	log.Info("Starting "+a.basename, "config", v.ConfigFileUsed())
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		value := f.Value.String()
		if isSecret(f.Name) && value != "" {
			value = "******"
		}
		log.Debug("Flag", "name", f.Name, "value", value)
	})
	watchConfig(v)

	return a.runFunc()
}

func isSecret(flag string) bool {
	return strings.Contains(flag, "password") || strings.Contains(flag, "secret")
}
