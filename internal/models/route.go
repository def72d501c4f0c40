package models

import (
	"planner.randoplan.org/internal/geo"
)

// DifficultyLevel grades a hiking route.
type DifficultyLevel string

const (
	DifficultyEasy          DifficultyLevel = "EASY"
	DifficultyModerate      DifficultyLevel = "MODERATE"
	DifficultyDifficult     DifficultyLevel = "DIFFICULT"
	DifficultyVeryDifficult DifficultyLevel = "VERY_DIFFICULT"
)

// SurfaceType describes the dominant surface of a hiking route.
type SurfaceType string

const (
	SurfacePaved  SurfaceType = "PAVED"
	SurfaceGravel SurfaceType = "GRAVEL"
	SurfaceDirt   SurfaceType = "DIRT"
	SurfaceRocky  SurfaceType = "ROCKY"
	SurfaceMixed  SurfaceType = "MIXED"
)

// RouteProperties carries the descriptive attributes of a fully detailed
// route. All fields are optional; pointer fields distinguish "unknown" from
// a genuine zero.
type RouteProperties struct {
	Name          string          `json:"name,omitempty"`
	Description   string          `json:"description,omitempty"`
	Difficulty    DifficultyLevel `json:"difficulty,omitempty"`
	Surface       SurfaceType     `json:"surface,omitempty"`
	DistanceKm    *float64        `json:"distance,omitempty"`
	EstimatedTime *int            `json:"estimatedTime,omitempty"`
	AscentM       *float64        `json:"ascent,omitempty"`
	DescentM      *float64        `json:"descent,omitempty"`
	MaxElevationM *float64        `json:"maxElevation,omitempty"`
	MinElevationM *float64        `json:"minElevation,omitempty"`
	Source        string          `json:"source,omitempty"`
	Website       string          `json:"website,omitempty"`
	LastUpdated   string          `json:"lastUpdated,omitempty"`
}

// RoutePoint is a named point of interest along a route's geometry.
type RoutePoint struct {
	Location    geo.LatLng `json:"location"`
	ElevationM  *float64   `json:"elevation,omitempty"`
	Name        string     `json:"name,omitempty"`
	Type        string     `json:"type,omitempty"` // waypoint, poi or junction
	Description string     `json:"description,omitempty"`
}

// RouteGeometry is the detailed path of a route. Coordinates are stored in
// travel order.
type RouteGeometry struct {
	Coordinates []geo.LatLng `json:"coordinates"`
	Points      []RoutePoint `json:"points,omitempty"`
}

// Route is a named hiking trail segment. The light form carries only a
// bounding box and endpoint names; the full form additionally has detailed
// properties and geometry. Routes are immutable reference data owned by the
// catalog.
type Route struct {
	ID         string           `json:"id"`
	Name       string           `json:"name,omitempty"`
	From       string           `json:"from,omitempty"`
	To         string           `json:"to,omitempty"`
	BBox       geo.BoundingBox  `json:"bbox"`
	Properties *RouteProperties `json:"properties,omitempty"`
	Geometry   *RouteGeometry   `json:"geometry,omitempty"`
}

// DisplayName returns a human-readable name for the route: the explicit name
// when set, otherwise "from - to" when both endpoints are known, otherwise
// whichever endpoint is known, otherwise an empty string.
func (r *Route) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.From != "" && r.To != "" {
		return r.From + " - " + r.To
	}
	if r.From != "" {
		return r.From
	}
	return r.To
}

// RouteDistance returns the length of a route in kilometers. When detailed
// geometry with at least two coordinates is available it follows the path;
// otherwise it falls back to the bounding-box diagonal estimate. It always
// returns a finite, non-negative number.
func RouteDistance(r *Route) float64 {
	if r.Geometry != nil && len(r.Geometry.Coordinates) >= 2 {
		return geo.PathDistance(r.Geometry.Coordinates)
	}
	return geo.EstimateDistanceFromBoundingBox(r.BBox)
}
