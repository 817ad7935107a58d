package model

import (
	"fmt"
	"time"
)

// VesselType classifies a vessel. It drives route eligibility and speed limits.
type VesselType string

const (
	VesselTypeTanker       VesselType = "tanker"
	VesselTypeBulker       VesselType = "bulker"
	VesselTypeContainer    VesselType = "container"
	VesselTypeGeneralCargo VesselType = "general_cargo"
)

// VesselTypes lists every known type in a stable order.
var VesselTypes = []VesselType{
	VesselTypeTanker,
	VesselTypeBulker,
	VesselTypeContainer,
	VesselTypeGeneralCargo,
}

// speedRange holds the cruise band and the hard ceiling in knots.
type speedRange struct {
	minCruise, maxCruise, max float64
}

var speedRanges = map[VesselType]speedRange{
	VesselTypeTanker:       {minCruise: 11, maxCruise: 15, max: 16},
	VesselTypeBulker:       {minCruise: 10, maxCruise: 14, max: 15},
	VesselTypeContainer:    {minCruise: 16, maxCruise: 23, max: 25},
	VesselTypeGeneralCargo: {minCruise: 12, maxCruise: 17, max: 18},
}

func (t VesselType) Valid() bool {
	_, ok := speedRanges[t]
	return ok
}

// MaxSpeed is the speed over ground, in knots, the simulator never exceeds.
func (t VesselType) MaxSpeed() float64 {
	return speedRanges[t].max
}

// CruiseBand returns the [min, max] cruise speed in knots.
func (t VesselType) CruiseBand() (float64, float64) {
	r := speedRanges[t]
	return r.minCruise, r.maxCruise
}

// ParseVesselType accepts the wire spelling of a type.
func ParseVesselType(s string) (VesselType, error) {
	t := VesselType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown vessel type %q", s)
	}
	return t, nil
}

// Status is the operational state of a vessel.
type Status string

const (
	StatusAtSea       Status = "at_sea"
	StatusInPort      Status = "in_port"
	StatusAnchored    Status = "anchored"
	StatusDryDock     Status = "dry_dock"
	StatusUnderRepair Status = "under_repair"
)

var Statuses = []Status{StatusAtSea, StatusInPort, StatusAnchored, StatusDryDock, StatusUnderRepair}

func (s Status) Valid() bool {
	switch s {
	case StatusAtSea, StatusInPort, StatusAnchored, StatusDryDock, StatusUnderRepair:
		return true
	}
	return false
}

// Stationary reports whether a vessel in this status holds its position.
func (s Status) Stationary() bool {
	return s != StatusAtSea
}

// DataSource tells whether the latest state came from the simulator or the live feed.
type DataSource string

const (
	SourceSimulated DataSource = "simulated"
	SourceLive      DataSource = "live"
)

// Position is a WGS84 coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether lat is in [-90, 90] and lon in [-180, 180].
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Kinematics is speed in knots and course in degrees true.
type Kinematics struct {
	SpeedOverGround  float64 `json:"speedOverGround"`
	CourseOverGround float64 `json:"courseOverGround"`
}

// Valid reports whether speed is non-negative and course is in [0, 360).
func (k Kinematics) Valid() bool {
	return k.SpeedOverGround >= 0 && k.CourseOverGround >= 0 && k.CourseOverGround < 360
}

// Voyage is the simulator's bookkeeping for a route-following vessel.
type Voyage struct {
	// Reversed is true when the route is sailed from its last waypoint to its first.
	Reversed bool

	// Leg is the index, in sailing order, of the waypoint the current leg starts from.
	Leg int

	// DwellUntil is set while the vessel sits at the end of the route.
	DwellUntil time.Time
}

// VesselState is the authoritative record for one vessel.
type VesselState struct {
	Identifier string     `json:"identifier"`
	Name       string     `json:"name,omitempty"`
	VesselType VesselType `json:"vesselType"`

	Position   Position   `json:"position"`
	Kinematics Kinematics `json:"kinematics"`
	Status     Status     `json:"status"`

	Destination string     `json:"destination,omitempty"`
	ETA         *time.Time `json:"eta,omitempty"`

	// Route is shared with the catalog and must never be mutated.
	Route         *Route  `json:"-"`
	RouteRef      string  `json:"routeRef,omitempty"`
	RouteProgress float64 `json:"routeProgress,omitempty"`
	Voyage        Voyage  `json:"-"`

	// CruiseSpeed is the speed restored when the vessel gets under way.
	CruiseSpeed float64 `json:"-"`

	DataSource  DataSource `json:"dataSource"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// OnRoute reports whether the vessel follows an assigned route.
func (v *VesselState) OnRoute() bool {
	return v.Route != nil
}

// Equal compares every field that matters to subscribers and the simulator.
func (v VesselState) Equal(o VesselState) bool {
	if v.ETA == nil || o.ETA == nil {
		if v.ETA != o.ETA {
			return false
		}
	} else if !v.ETA.Equal(*o.ETA) {
		return false
	}
	return v.Identifier == o.Identifier &&
		v.Name == o.Name &&
		v.VesselType == o.VesselType &&
		v.Position == o.Position &&
		v.Kinematics == o.Kinematics &&
		v.Status == o.Status &&
		v.Destination == o.Destination &&
		v.Route == o.Route &&
		v.RouteProgress == o.RouteProgress &&
		v.Voyage.Reversed == o.Voyage.Reversed &&
		v.Voyage.Leg == o.Voyage.Leg &&
		v.Voyage.DwellUntil.Equal(o.Voyage.DwellUntil) &&
		v.CruiseSpeed == o.CruiseSpeed &&
		v.DataSource == o.DataSource &&
		v.LastUpdated.Equal(o.LastUpdated)
}

// Clone returns a copy that shares only the immutable route.
func (v VesselState) Clone() VesselState {
	if v.ETA != nil {
		eta := *v.ETA
		v.ETA = &eta
	}
	return v
}
