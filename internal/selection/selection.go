// Package selection resolves which hiking routes can connect two chosen
// stations and builds itinerary legs from the chosen candidate.
package selection

import (
	"sort"

	"github.com/google/uuid"
	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/models"
)

// CandidateRoutes returns the routes from the catalog that serve both the
// from and to stations, sorted ascending by estimated length. The sort is
// stable, so ties keep catalog order. The first candidate is the default
// suggestion.
//
// An empty result means no direct route exists between the two stations.
// That is a normal, user-facing empty state, not an error.
func CandidateRoutes(from, to models.Station, catalog []models.Route) []models.Route {
	var candidates []models.Route
	for _, route := range catalog {
		if from.ServedBy(route.ID) && to.ServedBy(route.ID) {
			candidates = append(candidates, route)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return models.RouteDistance(&candidates[i]) < models.RouteDistance(&candidates[j])
	})

	return candidates
}

// BuildHikingLeg constructs a hiking leg between two stations over the chosen
// route, with a fresh unique id and derived distance and time estimates. The
// time estimate uses the route's ascent/descent when its detailed properties
// are available.
func BuildHikingLeg(from, to models.Station, route models.Route) models.Leg {
	distance := models.RouteDistance(&route)

	var ascent, descent *float64
	var difficulty string
	if route.Properties != nil {
		ascent = route.Properties.AscentM
		descent = route.Properties.DescentM
		difficulty = string(route.Properties.Difficulty)
	}
	estimated := geo.EstimateHikingTime(distance, ascent, descent)

	routeCopy := route
	return models.Leg{
		ID:            "hiking-" + uuid.NewString(),
		Type:          models.LegTypeHiking,
		From:          from,
		To:            to,
		Distance:      &distance,
		EstimatedTime: &estimated,
		Route:         &routeCopy,
		Difficulty:    difficulty,
	}
}

// BuildRestLeg constructs a rest leg: a dwell at a single station, so from,
// to and location all name that station. Rest legs cover no distance.
func BuildRestLeg(station models.Station, notes string, durationMin int) models.Leg {
	leg := models.Leg{
		ID:       "rest-" + uuid.NewString(),
		Type:     models.LegTypeRest,
		From:     station,
		To:       station,
		Location: &station,
		Notes:    notes,
	}
	if durationMin > 0 {
		leg.EstimatedTime = &durationMin
	}
	return leg
}
