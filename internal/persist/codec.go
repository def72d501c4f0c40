// Package persist stores the itinerary locally as a flat, JSON-compatible
// document and restores it on startup. Every geographic coordinate object is
// flattened to a [lat, lng] pair (bounding boxes to [minLat, minLng, maxLat,
// maxLng]) on the way out and rebuilt field by field on the way in.
package persist

import (
	"fmt"

	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/models"
)

// SchemaVersion is written into every persisted document. Documents carrying
// any other version (including none) are treated as "no saved itinerary"
// rather than guessed at.
const SchemaVersion = 1

type persistedStation struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	City     string     `json:"city"`
	LineIDs  []string   `json:"lineIds"`
	Location [2]float64 `json:"location"` // [lat, lng]
}

type persistedPoint struct {
	Location    [2]float64 `json:"location"`
	ElevationM  *float64   `json:"elevation,omitempty"`
	Name        string     `json:"name,omitempty"`
	Type        string     `json:"type,omitempty"`
	Description string     `json:"description,omitempty"`
}

type persistedGeometry struct {
	Coordinates [][2]float64     `json:"coordinates"`
	Points      []persistedPoint `json:"points,omitempty"`
}

type persistedRoute struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name,omitempty"`
	From       string                  `json:"from,omitempty"`
	To         string                  `json:"to,omitempty"`
	BBox       [4]float64              `json:"bbox"` // [minLat, minLng, maxLat, maxLng]
	Properties *models.RouteProperties `json:"properties,omitempty"`
	Geometry   *persistedGeometry      `json:"geometry,omitempty"`
}

type persistedLeg struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	From          persistedStation `json:"from"`
	To            persistedStation `json:"to"`
	Distance      *float64         `json:"distance,omitempty"`
	EstimatedTime *int             `json:"estimatedTime,omitempty"`

	Route             *persistedRoute   `json:"route,omitempty"`
	Difficulty        string            `json:"difficulty,omitempty"`
	EditedCoordinates [][2]float64      `json:"editedCoordinates,omitempty"`
	Location          *persistedStation `json:"location,omitempty"`
	Notes             string            `json:"notes,omitempty"`
}

// Document is the persisted form of an itinerary.
type Document struct {
	Version       int                `json:"version"`
	Start         *persistedStation  `json:"start,omitempty"`
	End           *persistedStation  `json:"end,omitempty"`
	Steps         []persistedStation `json:"steps"`
	Legs          []persistedLeg     `json:"legs"`
	TotalDistance *float64           `json:"totalDistance,omitempty"`
	TotalTime     *int               `json:"totalTime,omitempty"`
}

// Serialize flattens an itinerary into its persisted document form. Tag
// discriminants are preserved verbatim; non-geographic fields pass through
// untouched.
func Serialize(it models.Itinerary) Document {
	doc := Document{
		Version:       SchemaVersion,
		Start:         flattenStationPtr(it.Start),
		End:           flattenStationPtr(it.End),
		Steps:         make([]persistedStation, 0, len(it.Steps)),
		Legs:          make([]persistedLeg, 0, len(it.Legs)),
		TotalDistance: it.TotalDistance,
		TotalTime:     it.TotalTime,
	}

	for _, step := range it.Steps {
		doc.Steps = append(doc.Steps, flattenStation(step))
	}
	for _, leg := range it.Legs {
		doc.Legs = append(doc.Legs, flattenLeg(leg))
	}
	return doc
}

// Deserialize rebuilds an itinerary from its persisted document, recreating
// coordinate and bounding-box objects per leg type. It rejects unknown
// schema versions and malformed legs with a descriptive error; the store
// turns any such error into a "no saved itinerary" outcome.
func Deserialize(doc Document) (models.Itinerary, error) {
	if doc.Version != SchemaVersion {
		return models.Itinerary{}, fmt.Errorf("unsupported itinerary schema version %d (want %d)", doc.Version, SchemaVersion)
	}

	it := models.Itinerary{
		Start:         expandStationPtr(doc.Start),
		End:           expandStationPtr(doc.End),
		Steps:         make([]models.Station, 0, len(doc.Steps)),
		Legs:          make([]models.Leg, 0, len(doc.Legs)),
		TotalDistance: doc.TotalDistance,
		TotalTime:     doc.TotalTime,
	}

	for _, step := range doc.Steps {
		it.Steps = append(it.Steps, expandStation(step))
	}
	for i, leg := range doc.Legs {
		expanded, err := expandLeg(leg)
		if err != nil {
			return models.Itinerary{}, fmt.Errorf("leg %d: %w", i+1, err)
		}
		it.Legs = append(it.Legs, expanded)
	}
	return it, nil
}

func flattenStation(s models.Station) persistedStation {
	lineIDs := s.LineIDs
	if lineIDs == nil {
		lineIDs = []string{}
	}
	return persistedStation{
		ID:       s.ID,
		Label:    s.Label,
		City:     s.City,
		LineIDs:  lineIDs,
		Location: [2]float64{s.Location.Lat, s.Location.Lng},
	}
}

func flattenStationPtr(s *models.Station) *persistedStation {
	if s == nil {
		return nil
	}
	flat := flattenStation(*s)
	return &flat
}

func expandStation(s persistedStation) models.Station {
	return models.Station{
		ID:       s.ID,
		Label:    s.Label,
		City:     s.City,
		LineIDs:  s.LineIDs,
		Location: geo.LatLng{Lat: s.Location[0], Lng: s.Location[1]},
	}
}

func expandStationPtr(s *persistedStation) *models.Station {
	if s == nil {
		return nil
	}
	expanded := expandStation(*s)
	return &expanded
}

func flattenLeg(leg models.Leg) persistedLeg {
	out := persistedLeg{
		ID:            leg.ID,
		Type:          string(leg.Type),
		From:          flattenStation(leg.From),
		To:            flattenStation(leg.To),
		Distance:      leg.Distance,
		EstimatedTime: leg.EstimatedTime,
		Difficulty:    leg.Difficulty,
		Notes:         leg.Notes,
	}

	switch leg.Type {
	case models.LegTypeHiking:
		if leg.Route != nil {
			route := flattenRoute(*leg.Route)
			out.Route = &route
		}
		for _, coord := range leg.EditedCoordinates {
			out.EditedCoordinates = append(out.EditedCoordinates, [2]float64{coord.Lat, coord.Lng})
		}
	case models.LegTypeRest:
		out.Location = flattenStationPtr(leg.Location)
	}
	return out
}

func expandLeg(leg persistedLeg) (models.Leg, error) {
	out := models.Leg{
		ID:            leg.ID,
		Type:          models.LegType(leg.Type),
		From:          expandStation(leg.From),
		To:            expandStation(leg.To),
		Distance:      leg.Distance,
		EstimatedTime: leg.EstimatedTime,
		Difficulty:    leg.Difficulty,
		Notes:         leg.Notes,
	}

	switch out.Type {
	case models.LegTypeHiking:
		if leg.Route == nil {
			return models.Leg{}, fmt.Errorf("hiking leg %s has no route", leg.ID)
		}
		route := expandRoute(*leg.Route)
		out.Route = &route
		for _, pair := range leg.EditedCoordinates {
			out.EditedCoordinates = append(out.EditedCoordinates, geo.LatLng{Lat: pair[0], Lng: pair[1]})
		}
	case models.LegTypeRest:
		if leg.Location == nil {
			return models.Leg{}, fmt.Errorf("rest leg %s has no location", leg.ID)
		}
		out.Location = expandStationPtr(leg.Location)
	default:
		return models.Leg{}, fmt.Errorf("unknown leg type %q", leg.Type)
	}
	return out, nil
}

func flattenRoute(r models.Route) persistedRoute {
	out := persistedRoute{
		ID:   r.ID,
		Name: r.Name,
		From: r.From,
		To:   r.To,
		BBox: [4]float64{r.BBox.MinLat, r.BBox.MinLng, r.BBox.MaxLat, r.BBox.MaxLng},

		Properties: r.Properties,
	}
	if r.Geometry != nil {
		g := persistedGeometry{}
		for _, coord := range r.Geometry.Coordinates {
			g.Coordinates = append(g.Coordinates, [2]float64{coord.Lat, coord.Lng})
		}
		for _, p := range r.Geometry.Points {
			g.Points = append(g.Points, persistedPoint{
				Location:    [2]float64{p.Location.Lat, p.Location.Lng},
				ElevationM:  p.ElevationM,
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
			})
		}
		out.Geometry = &g
	}
	return out
}

func expandRoute(r persistedRoute) models.Route {
	out := models.Route{
		ID:   r.ID,
		Name: r.Name,
		From: r.From,
		To:   r.To,
		BBox: geo.BoundingBox{
			MinLat: r.BBox[0],
			MinLng: r.BBox[1],
			MaxLat: r.BBox[2],
			MaxLng: r.BBox[3],
		},
		Properties: r.Properties,
	}
	if r.Geometry != nil {
		g := models.RouteGeometry{}
		for _, pair := range r.Geometry.Coordinates {
			g.Coordinates = append(g.Coordinates, geo.LatLng{Lat: pair[0], Lng: pair[1]})
		}
		for _, p := range r.Geometry.Points {
			g.Points = append(g.Points, models.RoutePoint{
				Location:    geo.LatLng{Lat: p.Location[0], Lng: p.Location[1]},
				ElevationM:  p.ElevationM,
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
			})
		}
		out.Geometry = &g
	}
	return out
}
