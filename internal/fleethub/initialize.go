package fleethub

import (
	"github.com/autopeer-io/fleetcast/internal/fleethub/server/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/log"
	pkgmqtt "github.com/autopeer-io/fleetcast/pkg/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

func InitializeMQTTClient(opts *options.MqttOptions, builder *topic.TopicBuilder, hubID string) (pkgmqtt.Client, error) {
	mqttclient, err := pkgmqtt.NewClient(mqtt.ClientConfig(opts, builder, hubID))
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return mqttclient, nil
}
