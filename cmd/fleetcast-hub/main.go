package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/fleetcast/cmd/fleetcast-hub/app"
)

func main() {
	app.NewApp().Run()
}
