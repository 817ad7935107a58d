package main

import (
	"os"

	"k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/fleetcast/cmd/fleetctl/app"
)

func main() {
	ctx := server.SetupSignalContext()
	if err := app.NewFleetctlCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
