package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SimulationOptions)(nil)

// SimulationOptions size the simulated fleet and tune its movement model.
type SimulationOptions struct {
	// Period is the tick interval.
	Period time.Duration `json:"period" mapstructure:"period"`

	FleetSize int `json:"fleet-size" mapstructure:"fleet-size"`

	// RouteProbability is the chance a vessel with eligible routes follows one.
	RouteProbability float64 `json:"route-probability" mapstructure:"route-probability"`

	// Dwell is the time spent in port at the end of a route.
	Dwell time.Duration `json:"dwell" mapstructure:"dwell"`

	// Freshness protects live positions from simulation.
	Freshness time.Duration `json:"freshness" mapstructure:"freshness"`

	CourseJitter float64 `json:"course-jitter" mapstructure:"course-jitter"`
	SpeedJitter  float64 `json:"speed-jitter" mapstructure:"speed-jitter"`

	// Seed makes a run reproducible. Zero picks one from the clock.
	Seed uint64 `json:"seed" mapstructure:"seed"`
}

func NewSimulationOptions() *SimulationOptions {
	return &SimulationOptions{
		Period:           30 * time.Second,
		FleetSize:        200,
		RouteProbability: 0.7,
		Dwell:            6 * time.Hour,
		Freshness:        30 * time.Second,
		CourseJitter:     10,
		SpeedJitter:      2,
	}
}

func (o *SimulationOptions) Validate() []error {
	var errs []error
	if o.Period <= 0 {
		errs = append(errs, errors.New("--simulation.period must be positive"))
	}
	if o.FleetSize < 0 {
		errs = append(errs, errors.New("--simulation.fleet-size must not be negative"))
	}
	if o.RouteProbability < 0 || o.RouteProbability > 1 {
		errs = append(errs, errors.New("--simulation.route-probability must be within [0, 1]"))
	}
	if o.Dwell < 0 || o.Freshness < 0 {
		errs = append(errs, errors.New("--simulation.dwell and --simulation.freshness must not be negative"))
	}
	if o.CourseJitter < 0 || o.CourseJitter > 180 {
		errs = append(errs, errors.New("--simulation.course-jitter must be within [0, 180]"))
	}
	if o.SpeedJitter < 0 {
		errs = append(errs, errors.New("--simulation.speed-jitter must not be negative"))
	}
	return errs
}

func (o *SimulationOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Period, join(prefixes, "simulation.period"), o.Period, "Interval between simulation ticks.")
	fs.IntVar(&o.FleetSize, join(prefixes, "simulation.fleet-size"), o.FleetSize, "Number of vessels seeded at startup.")
	fs.Float64Var(&o.RouteProbability, join(prefixes, "simulation.route-probability"), o.RouteProbability, "Chance that a seeded vessel follows a route.")
	fs.DurationVar(&o.Dwell, join(prefixes, "simulation.dwell"), o.Dwell, "Time a vessel stays in port at the end of its route.")
	fs.DurationVar(&o.Freshness, join(prefixes, "simulation.freshness"), o.Freshness, "How long a live position keeps a vessel out of simulation.")
	fs.Float64Var(&o.CourseJitter, join(prefixes, "simulation.course-jitter"), o.CourseJitter, "Maximum course change per tick of vessels without a route, in degrees.")
	fs.Float64Var(&o.SpeedJitter, join(prefixes, "simulation.speed-jitter"), o.SpeedJitter, "Maximum speed change of vessels without a route, in knots.")
	fs.Uint64Var(&o.Seed, join(prefixes, "simulation.seed"), o.Seed, "Random seed. Zero seeds from the clock.")
}
