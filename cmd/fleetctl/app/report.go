package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	pkgmqtt "github.com/autopeer-io/fleetcast/pkg/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

type reportOptions struct {
	Mqtt *options.MqttOptions

	Identifier  string
	Lat, Lon    float64
	Speed       float64
	Course      float64
	Status      string
	Destination string
}

func newReportCommand(root *rootOptions) *cobra.Command {
	opts := &reportOptions{Mqtt: options.NewMqttOptions()}
	opts.Mqtt.Broker = "mqtt://127.0.0.1:1883"

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Publish one live position report to the feed broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := opts.message(time.Now().UTC())
			if err != nil {
				return err
			}
			if errs := opts.Mqtt.Validate(); len(errs) > 0 {
				return errors.Join(errs...)
			}

			cfg := opts.Mqtt.ToClientConfig()
			if cfg.ClientID == "" {
				cfg.ClientID = "fleetctl-" + uuid.NewString()
			}
			client, err := pkgmqtt.NewClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), root.Timeout)
			defer cancel()
			t, err := publishReport(ctx, client, topic.NewTopicBuilder(opts.Mqtt.TopicRoot), opts.Mqtt.QoS, msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", msg.Identifier, t)
			return nil
		},
	}

	fs := cmd.Flags()
	opts.Mqtt.AddFlags(fs)
	fs.StringVar(&opts.Identifier, "identifier", opts.Identifier, "Vessel identifier, e.g. IMO7000001.")
	fs.Float64Var(&opts.Lat, "lat", opts.Lat, "Latitude in degrees.")
	fs.Float64Var(&opts.Lon, "lon", opts.Lon, "Longitude in degrees.")
	fs.Float64Var(&opts.Speed, "speed", opts.Speed, "Speed over ground in knots.")
	fs.Float64Var(&opts.Course, "course", opts.Course, "Course over ground in degrees true.")
	fs.StringVar(&opts.Status, "status", opts.Status, "Navigational status, e.g. at_sea or dry_dock.")
	fs.StringVar(&opts.Destination, "destination", opts.Destination, "Reported destination.")
	return cmd
}

func (o *reportOptions) message(now time.Time) (model.LiveMessage, error) {
	msg := model.LiveMessage{
		Identifier:  o.Identifier,
		Position:    model.Position{Lat: o.Lat, Lon: o.Lon},
		Kinematics:  model.Kinematics{SpeedOverGround: o.Speed, CourseOverGround: o.Course},
		Status:      model.Status(o.Status),
		Destination: o.Destination,
		ObservedAt:  now,
	}
	if err := msg.Validate(); err != nil {
		return model.LiveMessage{}, err
	}
	return msg, nil
}

// publishReport connects, publishes msg on the vessel's position topic and
// disconnects. It returns the topic used.
func publishReport(ctx context.Context, client pkgmqtt.Client, builder *topic.TopicBuilder, qos int, msg model.LiveMessage) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	if err := client.Start(ctx); err != nil {
		return "", err
	}
	defer client.Disconnect(context.WithoutCancel(ctx))

	if err := client.AwaitConnection(ctx); err != nil {
		return "", fmt.Errorf("connect to broker: %w", err)
	}
	t := builder.Position(msg.Identifier)
	if err := client.Publish(ctx, t, qos, false, payload); err != nil {
		return "", fmt.Errorf("publish %s: %w", t, err)
	}
	return t, nil
}
