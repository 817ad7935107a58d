package app

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

func printRoutes(w io.Writer, routes []model.Route) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("NAME", "FROM", "TO", "WAYPOINTS", "TYPES")
	for _, r := range routes {
		from, to := "-", "-"
		if n := len(r.Waypoints); n > 0 {
			from, to = r.Waypoints[0].Name, r.Waypoints[n-1].Name
		}
		types := make([]string, len(r.EligibleTypes))
		for i, t := range r.EligibleTypes {
			types[i] = string(t)
		}
		table.AddRow(r.Name, from, to, len(r.Waypoints), strings.Join(types, ","))
	}
	fmt.Fprintln(w, table)
}

func printSummary(w io.Writer, s model.FleetSnapshot) {
	table := uitable.New()
	table.AddRow("TICK:", s.Tick)
	table.AddRow("TAKEN AT:", s.TakenAt.Format("2006-01-02T15:04:05Z07:00"))
	table.AddRow("VESSELS:", s.Total)
	for _, st := range model.Statuses {
		table.AddRow("  "+string(st)+":", s.ByStatus[st])
	}
	for _, vt := range model.VesselTypes {
		table.AddRow("  "+string(vt)+":", s.ByType[vt])
	}
	table.AddRow("LIVE:", s.BySource[model.SourceLive])
	fmt.Fprintln(w, table)
}

func printVessels(w io.Writer, vessels []model.VesselState) {
	vessels = slices.Clone(vessels)
	slices.SortFunc(vessels, func(a, b model.VesselState) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})

	table := uitable.New()
	table.MaxColWidth = 32
	table.AddRow("IDENTIFIER", "NAME", "TYPE", "STATUS", "LAT", "LON", "SOG", "COG", "DESTINATION", "SOURCE")
	for _, v := range vessels {
		table.AddRow(
			v.Identifier,
			v.Name,
			v.VesselType,
			v.Status,
			fmt.Sprintf("%.4f", v.Position.Lat),
			fmt.Sprintf("%.4f", v.Position.Lon),
			fmt.Sprintf("%.1f", v.Kinematics.SpeedOverGround),
			fmt.Sprintf("%.0f", v.Kinematics.CourseOverGround),
			orDash(v.Destination),
			v.DataSource,
		)
	}
	fmt.Fprintln(w, table)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
