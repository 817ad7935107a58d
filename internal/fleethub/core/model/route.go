package model

import "slices"

// Waypoint is a named point on a route.
type Waypoint struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

func (w Waypoint) Position() Position {
	return Position{Lat: w.Lat, Lon: w.Lon}
}

// Route is an immutable ordered list of waypoints and the vessel types allowed on it.
type Route struct {
	Name          string       `json:"name" yaml:"name"`
	Waypoints     []Waypoint   `json:"waypoints" yaml:"waypoints"`
	EligibleTypes []VesselType `json:"eligibleTypes" yaml:"eligibleTypes"`
}

// Eligible reports whether vessels of type t may be assigned this route.
func (r *Route) Eligible(t VesselType) bool {
	return slices.Contains(r.EligibleTypes, t)
}

// Waypoint returns the i-th waypoint in sailing order.
func (r *Route) Waypoint(i int, reversed bool) Waypoint {
	if reversed {
		return r.Waypoints[len(r.Waypoints)-1-i]
	}
	return r.Waypoints[i]
}

// Legs is the number of segments between consecutive waypoints.
func (r *Route) Legs() int {
	return len(r.Waypoints) - 1
}
