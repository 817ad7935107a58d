package engine

import (
	"fmt"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

func (e *Engine) CurrentSnapshot() model.FleetSnapshot {
	return e.store.Summary()
}

func (e *Engine) VesselsMatching(f model.Filter) []model.VesselState {
	return e.store.Snapshot(f).Vessels
}

func (e *Engine) Vessel(id string) (model.VesselState, error) {
	v, ok := e.store.Get(id)
	if !ok {
		return model.VesselState{}, fmt.Errorf("%w: %s", model.ErrVesselNotFound, id)
	}
	return v, nil
}

func (e *Engine) FeedStats() model.FeedStats {
	return e.rec.Stats()
}

// Offer buffers a live message for the next tick.
func (e *Engine) Offer(msg model.LiveMessage) {
	e.rec.Offer(msg)
}

func (e *Engine) CountUndecodable() {
	e.rec.CountUndecodable()
}
