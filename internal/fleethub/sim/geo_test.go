package sim

import (
	"math"
	"testing"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestDistance(t *testing.T) {
	rotterdam := model.Position{Lat: 51.9225, Lon: 4.4792}
	newYork := model.Position{Lat: 40.6892, Lon: -74.0445}

	if d := Distance(rotterdam, newYork); !near(d, 3163.01, 0.1) {
		t.Errorf("Rotterdam-New York = %.2f nm", d)
	}
	if d := Distance(model.Position{}, model.Position{Lon: 1}); !near(d, 60.04, 0.01) {
		t.Errorf("one degree at the equator = %.3f nm", d)
	}
	if d := Distance(newYork, newYork); d != 0 {
		t.Errorf("zero distance = %v", d)
	}
}

func TestBearing(t *testing.T) {
	origin := model.Position{}
	tests := []struct {
		to   model.Position
		want float64
	}{
		{model.Position{Lat: 1}, 0},
		{model.Position{Lon: 1}, 90},
		{model.Position{Lat: -1}, 180},
		{model.Position{Lon: -1}, 270},
	}
	for _, tt := range tests {
		if got := Bearing(origin, tt.to); !near(got, tt.want, 1e-9) {
			t.Errorf("Bearing to %+v = %v, want %v", tt.to, got, tt.want)
		}
	}
}

func TestDestinationReachesTarget(t *testing.T) {
	from := model.Position{Lat: 22.3526, Lon: 114.1417}
	to := model.Position{Lat: 33.7701, Lon: -118.1937}

	got := Destination(from, Bearing(from, to), Distance(from, to))
	if !near(got.Lat, to.Lat, 1e-6) || !near(got.Lon, to.Lon, 1e-6) {
		t.Errorf("Destination = %+v, want %+v", got, to)
	}
}

func TestIntermediateAcrossAntimeridian(t *testing.T) {
	a := model.Position{Lat: 35, Lon: 170}
	b := model.Position{Lat: 35, Lon: -170}

	mid := Intermediate(a, b, 0.5)
	if !mid.Valid() {
		t.Fatalf("midpoint out of range: %+v", mid)
	}
	if math.Abs(mid.Lon) < 179 {
		t.Errorf("midpoint should sit near the antimeridian, got %+v", mid)
	}
	if d := Distance(a, mid) + Distance(mid, b); !near(d, Distance(a, b), 1e-6) {
		t.Errorf("split distance %.6f != %.6f", d, Distance(a, b))
	}
}

func TestStepReflects(t *testing.T) {
	tests := []struct {
		name       string
		from       model.Position
		course     float64
		wantCourse float64
	}{
		{"north pole", model.Position{Lat: 89.99, Lon: 0}, 0, 180},
		{"south pole", model.Position{Lat: -89.99, Lon: 0}, 180, 0},
		{"east edge", model.Position{Lat: 0, Lon: 179.99}, 90, 270},
		{"west edge", model.Position{Lat: 0, Lon: -179.99}, 270, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, c := step(tt.from, tt.course, 25)
			if !p.Valid() {
				t.Fatalf("position out of range: %+v", p)
			}
			if !near(c, tt.wantCourse, 1e-9) {
				t.Errorf("course = %v, want %v", c, tt.wantCourse)
			}
			if math.Abs(p.Lon-tt.from.Lon) > 1 {
				t.Errorf("longitude jumped from %v to %v", tt.from.Lon, p.Lon)
			}
		})
	}
}

func TestDistanceNM(t *testing.T) {
	if got := DistanceNM(10, 30); !near(got, 10.0*30/3600, 1e-12) {
		t.Errorf("DistanceNM = %v", got)
	}
}
