package catalog

import (
	"fmt"

	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/models"
)

// stationRecord is the wire form of a station in the catalog data files:
// location is a 2-element [lat, lng] array.
type stationRecord struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	City     string    `json:"city"`
	LineIDs  []string  `json:"lineIds"`
	Location []float64 `json:"location"`
}

// routeRecord is the wire form of a route. The bbox follows the GeoJSON
// convention of the source data files: [minLng, minLat, maxLng, maxLat],
// longitude first. Geometry coordinates, when present, are [lng, lat] pairs.
type routeRecord struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	From       string                  `json:"from"`
	To         string                  `json:"to"`
	BBox       []float64               `json:"bbox"`
	Properties *models.RouteProperties `json:"properties"`
	Geometry   *geometryRecord         `json:"geometry"`
}

type geometryRecord struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// transformStation validates and converts one raw station record. Records
// missing required fields or carrying unusable coordinates are rejected with
// a descriptive error; the loader decides what to do with the rejection.
func transformStation(rec stationRecord) (models.Station, error) {
	if rec.ID == "" || rec.Label == "" || rec.City == "" {
		return models.Station{}, fmt.Errorf("station record missing required fields (id=%q label=%q city=%q)", rec.ID, rec.Label, rec.City)
	}
	if len(rec.Location) != 2 {
		return models.Station{}, fmt.Errorf("station %s: location must be a [lat, lng] pair, got %d elements", rec.ID, len(rec.Location))
	}
	if !geo.IsValidLatLng(rec.Location[0], rec.Location[1]) {
		return models.Station{}, fmt.Errorf("station %s: invalid location (%v, %v)", rec.ID, rec.Location[0], rec.Location[1])
	}

	lineIDs := rec.LineIDs
	if lineIDs == nil {
		lineIDs = []string{}
	}

	return models.Station{
		ID:       rec.ID,
		Label:    rec.Label,
		City:     rec.City,
		LineIDs:  lineIDs,
		Location: geo.LatLng{Lat: rec.Location[0], Lng: rec.Location[1]},
	}, nil
}

// transformRoute validates and converts one raw route record, reordering the
// lng-first wire bbox into the lat-first form used in memory.
func transformRoute(rec routeRecord) (models.Route, error) {
	if rec.ID == "" {
		return models.Route{}, fmt.Errorf("route record missing id")
	}
	if len(rec.BBox) != 4 {
		return models.Route{}, fmt.Errorf("route %s: bbox must have 4 elements, got %d", rec.ID, len(rec.BBox))
	}

	route := models.Route{
		ID:   rec.ID,
		Name: rec.Name,
		From: rec.From,
		To:   rec.To,
		BBox: geo.BoundingBox{
			MinLng: rec.BBox[0],
			MinLat: rec.BBox[1],
			MaxLng: rec.BBox[2],
			MaxLat: rec.BBox[3],
		},
		Properties: rec.Properties,
	}

	if rec.Geometry != nil && len(rec.Geometry.Coordinates) > 0 {
		coords, err := transformCoordinates(rec.Geometry.Coordinates)
		if err != nil {
			return models.Route{}, fmt.Errorf("route %s: %w", rec.ID, err)
		}
		route.Geometry = &models.RouteGeometry{Coordinates: coords}
	}

	return route, nil
}

// transformCoordinates converts wire [lng, lat] pairs to LatLng values.
func transformCoordinates(pairs [][]float64) ([]geo.LatLng, error) {
	coords := make([]geo.LatLng, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) < 2 {
			return nil, fmt.Errorf("coordinate %d must be a [lng, lat] pair, got %d elements", i, len(pair))
		}
		coords = append(coords, geo.LatLng{Lat: pair[1], Lng: pair[0]})
	}
	return coords, nil
}
