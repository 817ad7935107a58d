package routes

import "github.com/autopeer-io/fleetcast/internal/fleethub/core/model"

var (
	singapore   = model.Waypoint{Name: "Singapore", Lat: 1.2966, Lon: 103.7764}
	suezCanal   = model.Waypoint{Name: "Suez Canal", Lat: 30.0444, Lon: 31.2357}
	rotterdam   = model.Waypoint{Name: "Rotterdam", Lat: 51.9225, Lon: 4.4792}
	hongKong    = model.Waypoint{Name: "Hong Kong", Lat: 22.3526, Lon: 114.1417}
	tokyo       = model.Waypoint{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503}
	losAngeles  = model.Waypoint{Name: "Los Angeles", Lat: 33.7701, Lon: -118.1937}
	newYork     = model.Waypoint{Name: "New York", Lat: 40.6892, Lon: -74.0445}
	miami       = model.Waypoint{Name: "Miami", Lat: 25.7617, Lon: -80.1918}
	bahrain     = model.Waypoint{Name: "Bahrain", Lat: 26.2050, Lon: 50.0920}
	abuDhabi    = model.Waypoint{Name: "Abu Dhabi", Lat: 24.4539, Lon: 54.3773}
	marseille   = model.Waypoint{Name: "Marseille", Lat: 43.2965, Lon: 5.3698}
	vitoria     = model.Waypoint{Name: "Vitoria", Lat: -20.2976, Lon: -40.2958}
	santos      = model.Waypoint{Name: "Santos", Lat: -23.9608, Lon: -46.3969}
	qingdao     = model.Waypoint{Name: "Qingdao", Lat: 36.0986, Lon: 120.3719}
	babElMandeb = model.Waypoint{Name: "Bab el-Mandeb", Lat: 12.7820, Lon: 45.0370}
)

// Defaults is the built-in catalog used when no route source is configured.
func Defaults() []model.Route {
	return []model.Route{
		{
			Name:          "Asia-Europe (Suez)",
			Waypoints:     []model.Waypoint{singapore, babElMandeb, suezCanal, rotterdam},
			EligibleTypes: []model.VesselType{model.VesselTypeContainer, model.VesselTypeGeneralCargo},
		},
		{
			Name:          "Trans-Pacific",
			Waypoints:     []model.Waypoint{hongKong, tokyo, losAngeles},
			EligibleTypes: []model.VesselType{model.VesselTypeContainer, model.VesselTypeBulker},
		},
		{
			Name:          "Trans-Atlantic",
			Waypoints:     []model.Waypoint{rotterdam, newYork, miami},
			EligibleTypes: []model.VesselType{model.VesselTypeContainer, model.VesselTypeGeneralCargo},
		},
		{
			Name:          "Middle East Oil Route",
			Waypoints:     []model.Waypoint{bahrain, abuDhabi, suezCanal, marseille},
			EligibleTypes: []model.VesselType{model.VesselTypeTanker},
		},
		{
			Name:          "Brazil-China Iron Ore",
			Waypoints:     []model.Waypoint{vitoria, santos, singapore, qingdao},
			EligibleTypes: []model.VesselType{model.VesselTypeBulker},
		},
	}
}
