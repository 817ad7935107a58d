package sim

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/routes"
)

// FleetConfig sizes the simulated fleet.
type FleetConfig struct {
	Size int

	// RouteProbability is the chance a vessel with eligible routes follows one.
	RouteProbability float64

	// FirstIMO numbers the fleet IMO<FirstIMO>, IMO<FirstIMO+1>, ...
	FirstIMO int
}

func DefaultFleetConfig() FleetConfig {
	return FleetConfig{
		Size:             200,
		RouteProbability: 0.7,
		FirstIMO:         7000000,
	}
}

var (
	nameAdjectives = []string{"Atlantic", "Pacific", "Northern", "Golden", "Silver", "Ocean", "Global", "Eastern", "Coral", "Polar"}
	nameNouns      = []string{"Star", "Pioneer", "Spirit", "Voyager", "Trader", "Horizon", "Breeze", "Carrier", "Express", "Fortune"}
)

// initialStatus weights the status of a freshly seeded vessel.
var initialStatus = []struct {
	status model.Status
	weight float64
}{
	{model.StatusAtSea, 0.75},
	{model.StatusInPort, 0.12},
	{model.StatusAnchored, 0.08},
	{model.StatusDryDock, 0.03},
	{model.StatusUnderRepair, 0.02},
}

// SeedFleet creates the initial fleet. The result depends only on rng's
// state, cfg and the catalog.
func SeedFleet(rng *rand.Rand, cfg FleetConfig, catalog *routes.Catalog, now time.Time) []model.VesselState {
	fleet := make([]model.VesselState, 0, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		vt := model.VesselTypes[rng.IntN(len(model.VesselTypes))]
		lo, hi := vt.CruiseBand()

		v := model.VesselState{
			Identifier:  fmt.Sprintf("IMO%d", cfg.FirstIMO+i),
			Name:        fmt.Sprintf("MV %s %s", nameAdjectives[rng.IntN(len(nameAdjectives))], nameNouns[rng.IntN(len(nameNouns))]),
			VesselType:  vt,
			Status:      pickStatus(rng),
			CruiseSpeed: lo + rng.Float64()*(hi-lo),
			DataSource:  model.SourceSimulated,
			LastUpdated: now,
		}

		candidates := catalog.RoutesFor(vt)
		if len(candidates) > 0 && rng.Float64() < cfg.RouteProbability {
			placeOnRoute(rng, &v, candidates[rng.IntN(len(candidates))])
		} else {
			v.Position = model.Position{
				Lat: rng.Float64()*120 - 60,
				Lon: rng.Float64()*360 - 180,
			}
			v.Kinematics.CourseOverGround = normalizeCourse(rng.Float64() * 360)
		}

		if !v.Status.Stationary() {
			v.Kinematics.SpeedOverGround = v.CruiseSpeed
		}
		if v.OnRoute() && v.Kinematics.SpeedOverGround > 0 {
			eta := now.Add(time.Duration(RemainingDistance(&v) / v.Kinematics.SpeedOverGround * float64(time.Hour))).Truncate(time.Second)
			v.ETA = &eta
		}
		fleet = append(fleet, v)
	}
	return fleet
}

func pickStatus(rng *rand.Rand) model.Status {
	r := rng.Float64()
	acc := 0.0
	for _, s := range initialStatus {
		acc += s.weight
		if r < acc {
			return s.status
		}
	}
	return model.StatusAtSea
}

// placeOnRoute puts v somewhere along a random leg of r, sailing either way.
func placeOnRoute(rng *rand.Rand, v *model.VesselState, r *model.Route) {
	reversed := rng.IntN(2) == 1
	leg := rng.IntN(r.Legs())
	from := r.Waypoint(leg, reversed).Position()
	to := r.Waypoint(leg+1, reversed).Position()

	v.Route = r
	v.RouteRef = r.Name
	v.Voyage = model.Voyage{Reversed: reversed, Leg: leg}
	v.Position = Intermediate(from, to, rng.Float64())
	v.Kinematics.CourseOverGround = Bearing(v.Position, to)
	v.Destination = r.Waypoint(r.Legs(), reversed).Name
	v.RouteProgress = Progress(v)
}
