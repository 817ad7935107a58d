package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/pkg/log"
	pkgmqtt "github.com/autopeer-io/fleetcast/pkg/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

// hubStatus is the retained presence record under {root}/hub/status/{hubID}.
type hubStatus struct {
	Hub    string `json:"hub"`
	Online bool   `json:"online"`
}

func statusPayload(hubID string, online bool) []byte {
	b, _ := json.Marshal(hubStatus{Hub: hubID, Online: online})
	return b
}

// ClientConfig derives the broker connection for hubID. The broker
// publishes an offline status as the will if the hub vanishes.
func ClientConfig(opts *options.MqttOptions, builder *topic.TopicBuilder, hubID string) *pkgmqtt.ClientConfig {
	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = "fleetcast-" + hubID
	}
	cfg.WillTopic = builder.HubStatus(hubID)
	cfg.WillPayload = statusPayload(hubID, false)
	cfg.WillQoS = 1
	cfg.WillRetain = true
	return cfg
}

// HubID names this process on the broker.
func HubID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("pid-%d", os.Getpid())
	}
	return host
}

// Server ingests the live position feed.
type Server struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	feed   core.FeedSink
	opts   *options.MqttOptions
	hubID  string
	log    log.Logger
}

func NewServer(client pkgmqtt.Client, builder *topic.TopicBuilder, feed core.FeedSink, opts *options.MqttOptions, hubID string) *Server {
	return &Server{
		client: client,
		topics: builder,
		feed:   feed,
		opts:   opts,
		hubID:  hubID,
		log:    log.WithName("feed"),
	}
}

// Start connects, announces the hub and subscribes to the feed. It returns
// once ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.client.Publish(shutdownCtx, s.topics.HubStatus(s.hubID), 1, true, statusPayload(s.hubID, false)); err != nil {
			s.log.Warn("Failed to publish offline status", "error", err.Error())
		}
		s.client.Disconnect(shutdownCtx)
	}()

	s.log.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if err := s.client.Publish(ctx, s.topics.HubStatus(s.hubID), 1, true, statusPayload(s.hubID, true)); err != nil {
		s.log.Warn("Failed to publish online status", "error", err.Error())
	}

	if err := s.initSubscriptions(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (s *Server) initSubscriptions(ctx context.Context) error {
	subscriptions := map[string]HandlerFunc{
		s.topics.PositionWildcard(): JSONAdapter(s.handlePosition),
	}

	for filter, handler := range subscriptions {
		fullTopic := topic.Shared(s.opts.ShareGroup, filter)
		if err := s.client.Subscribe(ctx, fullTopic, s.opts.QoS, func(c context.Context, t string, p []byte) {
			if err := handler(c, t, p); err != nil {
				if errors.Is(err, errUndecodable) {
					s.feed.CountUndecodable()
				}
				s.log.Warn("Dropped feed message", "topic", t, "error", err.Error())
			}
		}); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", fullTopic, err)
		}
	}
	return nil
}

// handlePosition takes the vessel identifier from the topic when the payload
// omits it.
func (s *Server) handlePosition(_ context.Context, t string, msg *model.LiveMessage) error {
	id, ok := s.topics.VesselID(t)
	if !ok {
		return fmt.Errorf("%w: topic %q carries no vessel id", errUndecodable, t)
	}
	if msg.Identifier == "" {
		msg.Identifier = id
	}
	if msg.Identifier != id {
		return fmt.Errorf("%w: payload identifier %q on topic of %q", errUndecodable, msg.Identifier, id)
	}
	s.feed.Offer(*msg)
	return nil
}
