// Package sim advances vessel states through simulated time.
package sim

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// Config tunes the movement model.
type Config struct {
	// Dwell is how long a vessel stays in port at the end of its route.
	Dwell time.Duration

	// CourseJitter bounds the per-tick course change of randomly moving vessels, in degrees.
	CourseJitter float64

	// SpeedJitter bounds a speed change in knots, applied with SpeedJitterProbability.
	SpeedJitter            float64
	SpeedJitterProbability float64

	// Freshness protects live data from being overwritten by simulation.
	Freshness time.Duration

	Transitions TransitionTable

	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		Dwell:                  6 * time.Hour,
		CourseJitter:           10,
		SpeedJitter:            2,
		SpeedJitterProbability: 0.1,
		Freshness:              30 * time.Second,
		Transitions:            DefaultTransitions(),
		Seed:                   1,
	}
}

// Simulator applies the movement model. It is not safe for concurrent use;
// the engine drives it from a single goroutine.
type Simulator struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) *Simulator {
	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Rand exposes the seeded source so fleet seeding shares one deterministic stream.
func (s *Simulator) Rand() *rand.Rand {
	return s.rng
}

// Fresh reports whether v carries live data young enough to be left alone.
func (s *Simulator) Fresh(v *model.VesselState, now time.Time) bool {
	return v.DataSource == model.SourceLive && now.Sub(v.LastUpdated) < s.cfg.Freshness
}

// Advance returns v moved forward by elapsed. When nothing observable
// changes, v is returned as is, so unchanged vessels produce no delta.
func (s *Simulator) Advance(v model.VesselState, elapsed time.Duration, now time.Time) model.VesselState {
	next := v.Clone()

	if next.OnRoute() {
		s.advanceOnRoute(&next, elapsed, now)
	} else {
		s.advanceRandom(&next, elapsed)
	}

	next.LastUpdated, next.DataSource = v.LastUpdated, v.DataSource
	if next.Equal(v) {
		return v
	}
	next.DataSource = model.SourceSimulated
	next.LastUpdated = now
	return next
}

// transition draws a new status and fixes up speed when the vessel stops or gets under way.
func (s *Simulator) transition(v *model.VesselState) {
	from := v.Status
	to := s.cfg.Transitions.Next(s.rng, from)
	if to == from {
		return
	}
	v.Status = to
	if to.Stationary() {
		v.Kinematics.SpeedOverGround = 0
		return
	}
	v.Kinematics.SpeedOverGround = s.cruise(v)
}

// cruise is the speed a vessel sails at when under way, capped by its type.
func (s *Simulator) cruise(v *model.VesselState) float64 {
	speed := v.CruiseSpeed
	if speed <= 0 {
		lo, hi := v.VesselType.CruiseBand()
		speed = (lo + hi) / 2
	}
	return math.Min(speed, v.VesselType.MaxSpeed())
}

func (s *Simulator) underWaySpeed(v *model.VesselState) float64 {
	speed := v.Kinematics.SpeedOverGround
	if speed <= 0 {
		speed = s.cruise(v)
	}
	return math.Min(speed, v.VesselType.MaxSpeed())
}

func (s *Simulator) advanceOnRoute(v *model.VesselState, elapsed time.Duration, now time.Time) {
	route := v.Route

	if !v.Voyage.DwellUntil.IsZero() {
		if now.Before(v.Voyage.DwellUntil) {
			return
		}
		s.depart(v)
	} else if v.Voyage.Leg >= route.Legs() {
		s.arrive(v, now)
		return
	} else {
		s.transition(v)
	}
	if v.Status.Stationary() {
		v.Kinematics.SpeedOverGround = 0
		return
	}

	speed := s.underWaySpeed(v)
	v.Kinematics.SpeedOverGround = speed
	remaining := DistanceNM(speed, elapsed.Seconds())

	for remaining > 0 {
		target := route.Waypoint(v.Voyage.Leg+1, v.Voyage.Reversed).Position()
		toTarget := Distance(v.Position, target)

		if remaining < toTarget {
			course := Bearing(v.Position, target)
			v.Position = Destination(v.Position, course, remaining)
			v.Kinematics.CourseOverGround = course
			break
		}

		// Reaching the waypoint consumes part of the budget; the rest carries
		// into the next leg.
		remaining -= toTarget
		v.Position = target
		v.Voyage.Leg++
		if v.Voyage.Leg >= route.Legs() {
			s.arrive(v, now)
			return
		}
		v.Kinematics.CourseOverGround = Bearing(v.Position, route.Waypoint(v.Voyage.Leg+1, v.Voyage.Reversed).Position())
	}

	v.RouteProgress = math.Max(v.RouteProgress, Progress(v))
	v.ETA = s.eta(v, now)
}

// arrive parks the vessel at the final waypoint.
func (s *Simulator) arrive(v *model.VesselState, now time.Time) {
	v.Voyage.Leg = v.Route.Legs()
	v.RouteProgress = 1
	v.Status = model.StatusInPort
	v.Kinematics.SpeedOverGround = 0
	v.Voyage.DwellUntil = now.Add(s.cfg.Dwell)
	v.ETA = nil
}

// depart turns the route around after the dwell period.
func (s *Simulator) depart(v *model.VesselState) {
	v.Voyage = model.Voyage{Reversed: !v.Voyage.Reversed}
	v.RouteProgress = 0
	v.Status = model.StatusAtSea
	v.Kinematics.SpeedOverGround = s.cruise(v)
	v.Destination = v.Route.Waypoint(v.Route.Legs(), v.Voyage.Reversed).Name
	v.Kinematics.CourseOverGround = Bearing(v.Position, v.Route.Waypoint(1, v.Voyage.Reversed).Position())
}

// Progress is completed legs plus the covered fraction of the current leg,
// over the number of legs.
func Progress(v *model.VesselState) float64 {
	r := v.Route
	legs := r.Legs()
	if legs <= 0 {
		return 0
	}
	if v.Voyage.Leg >= legs {
		return 1
	}

	from := r.Waypoint(v.Voyage.Leg, v.Voyage.Reversed).Position()
	to := r.Waypoint(v.Voyage.Leg+1, v.Voyage.Reversed).Position()
	frac := 1.0
	if legLen := Distance(from, to); legLen > 0 {
		frac = 1 - Distance(v.Position, to)/legLen
	}
	frac = math.Max(0, math.Min(1, frac))
	return math.Min(1, (float64(v.Voyage.Leg)+frac)/float64(legs))
}

// RemainingDistance is the sailing distance to the end of the route in nautical miles.
func RemainingDistance(v *model.VesselState) float64 {
	r := v.Route
	if r == nil || v.Voyage.Leg >= r.Legs() {
		return 0
	}
	d := Distance(v.Position, r.Waypoint(v.Voyage.Leg+1, v.Voyage.Reversed).Position())
	for i := v.Voyage.Leg + 1; i < r.Legs(); i++ {
		d += Distance(r.Waypoint(i, v.Voyage.Reversed).Position(), r.Waypoint(i+1, v.Voyage.Reversed).Position())
	}
	return d
}

func (s *Simulator) eta(v *model.VesselState, now time.Time) *time.Time {
	speed := v.Kinematics.SpeedOverGround
	if speed <= 0 {
		return nil
	}
	hours := RemainingDistance(v) / speed
	eta := now.Add(time.Duration(hours * float64(time.Hour))).Truncate(time.Second)
	return &eta
}

func (s *Simulator) advanceRandom(v *model.VesselState, elapsed time.Duration) {
	s.transition(v)
	if v.Status.Stationary() {
		v.Kinematics.SpeedOverGround = 0
		return
	}

	speed := s.underWaySpeed(v)
	if s.cfg.SpeedJitter > 0 && s.rng.Float64() < s.cfg.SpeedJitterProbability {
		speed += (s.rng.Float64()*2 - 1) * s.cfg.SpeedJitter
		speed = math.Max(1, math.Min(speed, v.VesselType.MaxSpeed()))
	}

	course := v.Kinematics.CourseOverGround
	if s.cfg.CourseJitter > 0 {
		course += (s.rng.Float64()*2 - 1) * s.cfg.CourseJitter
	}
	course = normalizeCourse(course)

	v.Position, v.Kinematics.CourseOverGround = step(v.Position, course, DistanceNM(speed, elapsed.Seconds()))
	v.Kinematics.SpeedOverGround = speed
}
