package server

import (
	"net/http"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/routes"
	pkgmqtt "github.com/autopeer-io/fleetcast/pkg/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

type Config struct {
	HttpOptions *options.HttpOptions
	GrpcOptions *options.GrpcOptions
	MqttOptions *options.MqttOptions
}

// Services are the hub components exposed by the servers.
type Services struct {
	Fleet    core.FleetReader
	Feed     core.FeedSink
	Catalog  *routes.Catalog
	Sessions http.Handler
	Ready    func() bool

	// MQTT is nil when feed ingest is disabled.
	MQTT   pkgmqtt.Client
	Topics *topic.TopicBuilder
	HubID  string
}
