package models

import (
	"planner.randoplan.org/internal/geo"
)

// Station is a named point on the map usable as a trip endpoint or waypoint.
// Stations are immutable reference data owned by the catalog.
//
// LineIDs is the authoritative edge list between stations and routes: station
// A and route R are connected iff R's id appears in A's LineIDs.
type Station struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	City     string     `json:"city"`
	LineIDs  []string   `json:"lineIds"`
	Location geo.LatLng `json:"location"`
}

// ServedBy reports whether the given route id appears in the station's line list.
func (s *Station) ServedBy(routeID string) bool {
	for _, id := range s.LineIDs {
		if id == routeID {
			return true
		}
	}
	return false
}
