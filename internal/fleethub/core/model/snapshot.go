package model

import "time"

// FleetSnapshot summarises the fleet as of one committed tick.
type FleetSnapshot struct {
	Tick     uint64             `json:"tick"`
	TakenAt  time.Time          `json:"takenAt"`
	Total    int                `json:"total"`
	ByStatus map[Status]int     `json:"byStatus"`
	ByType   map[VesselType]int `json:"byType"`
	BySource map[DataSource]int `json:"bySource"`
}

// Summarize counts vessels by status, type and data source.
func Summarize(tick uint64, at time.Time, vessels []VesselState) FleetSnapshot {
	s := FleetSnapshot{
		Tick:     tick,
		TakenAt:  at,
		Total:    len(vessels),
		ByStatus: make(map[Status]int, len(Statuses)),
		ByType:   make(map[VesselType]int, len(VesselTypes)),
		BySource: make(map[DataSource]int, 2),
	}
	for i := range vessels {
		s.ByStatus[vessels[i].Status]++
		s.ByType[vessels[i].VesselType]++
		s.BySource[vessels[i].DataSource]++
	}
	return s
}
