// Package publisher mirrors committed ticks into external stores.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/store"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	"github.com/autopeer-io/fleetcast/pkg/log"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

// Redis keeps dashboards in sync without a websocket:
//
//	{prefix}:summary  latest FleetSnapshot as JSON
//	{prefix}:vessels  hash of vessel identifier to VesselState JSON
//	{prefix}:ticks    channel announcing each write
//
// Ticks that arrive while a write is in flight are folded into the next one.
type Redis struct {
	client *redis.Client
	opts   *options.RedisOptions
	log    log.Logger
	wake   chan struct{}

	mu      sync.Mutex
	summary *model.FleetSnapshot
	at      time.Time
	changed map[string]model.VesselState
}

// TickNotice is published on {prefix}:ticks.
type TickNotice struct {
	Tick    uint64    `json:"tick"`
	At      time.Time `json:"at"`
	Changed []string  `json:"changed"`
}

func NewRedis(opts *options.RedisOptions) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			WriteTimeout: opts.WriteTimeout,
		}),
		opts:    opts,
		log:     log.WithName("redis").WithValues("addr", opts.Addr),
		wake:    make(chan struct{}, 1),
		changed: make(map[string]model.VesselState),
	}
}

func (p *Redis) key(name string) string {
	return p.opts.KeyPrefix + ":" + name
}

// Offer never blocks.
func (p *Redis) Offer(c store.Commit, summary model.FleetSnapshot) {
	p.mu.Lock()
	p.summary = &summary
	p.at = c.At
	for _, v := range c.Changed {
		p.changed[v.Identifier] = v
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Redis) Start(ctx context.Context) error {
	defer p.client.Close()

	if err := p.client.Ping(ctx).Err(); err != nil {
		p.log.Warn("Redis not reachable yet", "error", err.Error())
	} else {
		p.log.Info("Publishing fleet snapshots to redis", "prefix", p.opts.KeyPrefix)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.wake:
			if err := p.flush(ctx); err != nil {
				metrics.PublishErrors.WithLabelValues("redis").Inc()
				p.log.Warn("Failed to publish snapshot", "error", err.Error())
			}
		}
	}
}

// take swaps out everything offered since the last write.
func (p *Redis) take() (*model.FleetSnapshot, time.Time, map[string]model.VesselState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary, at, changed := p.summary, p.at, p.changed
	p.summary = nil
	p.changed = make(map[string]model.VesselState, len(changed))
	return summary, at, changed
}

// requeue restores a failed batch unless newer data replaced it.
func (p *Redis) requeue(summary *model.FleetSnapshot, at time.Time, changed map[string]model.VesselState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.summary == nil {
		p.summary, p.at = summary, at
	}
	for id, v := range changed {
		if _, newer := p.changed[id]; !newer {
			p.changed[id] = v
		}
	}
}

func (p *Redis) flush(ctx context.Context) error {
	summary, at, changed := p.take()
	if summary == nil {
		return nil
	}

	if err := p.write(ctx, summary, at, changed); err != nil {
		p.requeue(summary, at, changed)
		return err
	}
	return nil
}

func (p *Redis) write(ctx context.Context, summary *model.FleetSnapshot, at time.Time, changed map[string]model.VesselState) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.WriteTimeout)
	defer cancel()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	ids := make([]string, 0, len(changed))
	values := make([]any, 0, 2*len(changed))
	for id, v := range changed {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode vessel %s: %w", id, err)
		}
		ids = append(ids, id)
		values = append(values, id, b)
	}
	slices.Sort(ids)

	notice, err := json.Marshal(TickNotice{Tick: summary.Tick, At: at, Changed: ids})
	if err != nil {
		return fmt.Errorf("encode tick notice: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.key("summary"), summaryJSON, p.opts.TTL)
	if len(values) > 0 {
		pipe.HSet(ctx, p.key("vessels"), values...)
		if p.opts.TTL > 0 {
			pipe.Expire(ctx, p.key("vessels"), p.opts.TTL)
		}
	}
	pipe.Publish(ctx, p.key("ticks"), notice)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
