package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every fleetcast collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// TickDuration observes the wall time of each simulation tick.
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetcast_tick_duration_seconds",
			Help:    "Wall time spent merging, advancing and publishing one tick.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
	)

	// TickOverruns counts ticks that took longer than the tick period.
	TickOverruns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcast_tick_overruns_total",
			Help: "Ticks whose processing exceeded the tick period.",
		},
	)

	// FeedMessages counts live messages by merge outcome.
	FeedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcast_feed_messages_total",
			Help: "Live feed messages by outcome (applied, superseded, rejected, dropped, undecodable).",
		},
		[]string{"outcome"},
	)

	// Vessels tracks the fleet by data source.
	Vessels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetcast_vessels",
			Help: "Vessels in the store by data source.",
		},
		[]string{"source"},
	)

	// DeltaVessels observes how many vessels changed per tick.
	DeltaVessels = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetcast_delta_vessels",
			Help:    "Vessels changed per tick.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// ActiveSessions is the number of open client sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetcast_sessions_active",
			Help: "Client sessions currently open.",
		},
	)

	// SessionsClosed counts closed sessions by reason.
	SessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcast_sessions_closed_total",
			Help: "Closed client sessions by reason.",
		},
		[]string{"reason"},
	)

	// SlowConsumerDrops counts deltas discarded from full subscriber queues.
	SlowConsumerDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetcast_slow_consumer_drops_total",
			Help: "Deltas dropped because a subscriber queue was full.",
		},
	)

	// MessagesSent counts frames written to clients by type.
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcast_messages_sent_total",
			Help: "Messages written to clients by type.",
		},
		[]string{"type"},
	)

	// PublishErrors counts failed snapshot exports by sink.
	PublishErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetcast_publish_errors_total",
			Help: "Failed snapshot exports by sink.",
		},
		[]string{"sink"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TickDuration,
		TickOverruns,
		FeedMessages,
		Vessels,
		DeltaVessels,
		ActiveSessions,
		SessionsClosed,
		SlowConsumerDrops,
		MessagesSent,
		PublishErrors,
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
