package sim

import (
	"math"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// EarthRadiusNM is the mean earth radius in nautical miles.
const EarthRadiusNM = 3440.065

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(rad float64) float64 { return rad * 180 / math.Pi }

// normalizeCourse maps any angle onto [0, 360).
func normalizeCourse(c float64) float64 {
	c = math.Mod(c, 360)
	if c < 0 {
		c += 360
	}
	if c >= 360 {
		c = 0
	}
	return c
}

// normalizeLon maps a longitude onto [-180, 180]. Used only for great circle
// results, where crossing the antimeridian is continuous.
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon < -180 {
		lon += 360
	}
	return lon
}

// Distance is the haversine distance between a and b in nautical miles.
func Distance(a, b model.Position) float64 {
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLat := lat2 - lat1
	dLon := rad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusNM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing is the initial great circle course from a to b in degrees true.
func Bearing(a, b model.Position) float64 {
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLon := rad(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return normalizeCourse(deg(math.Atan2(y, x)))
}

// Destination travels distNM from p along the great circle with initial course bearing.
func Destination(p model.Position, bearing, distNM float64) model.Position {
	lat1, lon1 := rad(p.Lat), rad(p.Lon)
	brg := rad(bearing)
	ang := distNM / EarthRadiusNM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(ang)*math.Cos(lat1),
		math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2),
	)
	return model.Position{Lat: clampLat(deg(lat2)), Lon: normalizeLon(deg(lon2))}
}

// Intermediate returns the point a fraction f of the way from a to b.
func Intermediate(a, b model.Position, f float64) model.Position {
	d := Distance(a, b)
	if d == 0 {
		return a
	}
	return Destination(a, Bearing(a, b), d*f)
}

// DistanceNM converts a speed in knots over elapsed seconds into nautical miles.
func DistanceNM(knots, seconds float64) float64 {
	return knots * seconds / 3600
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// reflect folds a position that left the valid range back inside it and
// mirrors the course the same way, so movement bounces off the bounds.
func reflect(p model.Position, course float64) (model.Position, float64) {
	for i := 0; i < 4 && !p.Valid(); i++ {
		switch {
		case p.Lat > 90:
			p.Lat = 180 - p.Lat
			course = 180 - course
		case p.Lat < -90:
			p.Lat = -180 - p.Lat
			course = 180 - course
		case p.Lon > 180:
			p.Lon = 360 - p.Lon
			course = 360 - course
		case p.Lon < -180:
			p.Lon = -360 - p.Lon
			course = 360 - course
		}
	}
	p.Lat = clampLat(p.Lat)
	p.Lon = math.Max(-180, math.Min(180, p.Lon))
	return p, normalizeCourse(course)
}

// step moves distNM along course using a local flat approximation, then
// reflects at the bounds. Random movement uses it instead of Destination so a
// vessel never jumps across the antimeridian or over a pole.
func step(p model.Position, course, distNM float64) (model.Position, float64) {
	c := rad(course)
	coslat := math.Max(math.Cos(rad(p.Lat)), 0.01)

	next := model.Position{
		Lat: p.Lat + distNM*math.Cos(c)/60,
		Lon: p.Lon + distNM*math.Sin(c)/(60*coslat),
	}
	return reflect(next, course)
}
