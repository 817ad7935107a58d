package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	"github.com/autopeer-io/fleetcast/pkg/log"
	pkgmqtt "github.com/autopeer-io/fleetcast/pkg/mqtt"
	"github.com/autopeer-io/fleetcast/pkg/mqtt/topic"
)

// SummaryPublisher keeps a retained fleet summary on {root}/fleet/summary.
// Only the newest summary is sent when the broker falls behind.
type SummaryPublisher struct {
	client  pkgmqtt.Client
	topic   string
	pending chan model.FleetSnapshot
	log     log.Logger
}

func NewSummaryPublisher(client pkgmqtt.Client, builder *topic.TopicBuilder) *SummaryPublisher {
	return &SummaryPublisher{
		client:  client,
		topic:   builder.Summary(),
		pending: make(chan model.FleetSnapshot, 1),
		log:     log.WithName("summary"),
	}
}

// Offer never blocks. It is called from the simulation goroutine only.
func (p *SummaryPublisher) Offer(_ store.Commit, summary model.FleetSnapshot) {
	select {
	case <-p.pending:
	default:
	}
	select {
	case p.pending <- summary:
	default:
	}
}

func (p *SummaryPublisher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case summary := <-p.pending:
			p.publish(ctx, summary)
		}
	}
}

func (p *SummaryPublisher) publish(ctx context.Context, summary model.FleetSnapshot) {
	payload, err := json.Marshal(summary)
	if err != nil {
		p.log.Error(err, "Failed to encode summary", "tick", summary.Tick)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, p.topic, 1, true, payload); err != nil {
		metrics.PublishErrors.WithLabelValues("mqtt").Inc()
		p.log.Warn("Failed to publish summary", "tick", summary.Tick, "error", err.Error())
	}
}
