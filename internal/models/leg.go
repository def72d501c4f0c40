package models

import (
	"planner.randoplan.org/internal/geo"
)

// LegType discriminates the two kinds of itinerary legs.
type LegType string

const (
	LegTypeHiking LegType = "HIKING"
	LegTypeRest   LegType = "REST"
)

// Leg is one travel segment of an itinerary: either a hiking traversal of a
// route between two stations, or a rest stop at a single station.
//
// Leg is a tagged union: Type is the discriminant and callers must branch on
// it before touching variant fields. HIKING legs populate Route, Difficulty
// and optionally EditedCoordinates; REST legs populate Location and Notes,
// with From, To and Location all naming the same station.
type Leg struct {
	ID            string   `json:"id"`
	Type          LegType  `json:"type"`
	From          Station  `json:"from"`
	To            Station  `json:"to"`
	Distance      *float64 `json:"distance,omitempty"`      // kilometers
	EstimatedTime *int     `json:"estimatedTime,omitempty"` // minutes

	// HIKING only
	Route             *Route       `json:"route,omitempty"`
	Difficulty        string       `json:"difficulty,omitempty"`
	EditedCoordinates []geo.LatLng `json:"editedCoordinates,omitempty"`

	// REST only
	Location *Station `json:"location,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Path returns the coordinates to use for display and distance purposes on a
// HIKING leg: the user-edited override when present, else the route's stored
// geometry, else nil. REST legs have no path.
func (l *Leg) Path() []geo.LatLng {
	if l.Type != LegTypeHiking {
		return nil
	}
	if len(l.EditedCoordinates) > 0 {
		return l.EditedCoordinates
	}
	if l.Route != nil && l.Route.Geometry != nil {
		return l.Route.Geometry.Coordinates
	}
	return nil
}
