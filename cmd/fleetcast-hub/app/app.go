package app

import (
	"context"
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/fleetcast/cmd/fleetcast-hub/app/options"
	"github.com/autopeer-io/fleetcast/internal/fleethub/server/http"
	"github.com/autopeer-io/fleetcast/pkg/app"
)

const (
	commandName = "fleetcast-hub"
	commandDesc = `The fleetcast hub simulates a fleet of merchant vessels, merges live
position reports received over MQTT and streams the fleet to websocket
clients as a snapshot followed by per-tick deltas.`
)

func NewApp() *app.App {
	opts := options.NewHubOptions()
	application := app.NewApp(
		commandName,
		"Launch a fleetcast hub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithLoggerContextExtractor(map[string]func(context.Context) string{
			"requestID": http.RequestID,
		}),
	)
	return application
}

func run(opts *options.HubOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewHubServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create hub server: %w", err)
		}

		return server.Run(ctx)
	}
}
