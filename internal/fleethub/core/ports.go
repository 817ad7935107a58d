package core

import (
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// FleetReader is the read side of the fleet, served to HTTP and socket clients.
type FleetReader interface {
	// CurrentSnapshot summarises the fleet as of the last committed tick.
	CurrentSnapshot() model.FleetSnapshot

	// VesselsMatching copies every vessel accepted by f.
	VesselsMatching(f model.Filter) []model.VesselState

	// Vessel returns one vessel or model.ErrVesselNotFound.
	Vessel(id string) (model.VesselState, error)

	FeedStats() model.FeedStats
}

// FeedSink accepts live feed traffic from any goroutine.
type FeedSink interface {
	Offer(msg model.LiveMessage)

	// CountUndecodable records a payload that could not be decoded.
	CountUndecodable()
}
