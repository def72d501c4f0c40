package catalog

import (
	"strings"
	"testing"
)

func TestTransformStation(t *testing.T) {
	valid := stationRecord{
		ID:       "s1",
		Label:    "Aussois",
		City:     "Aussois",
		LineIDs:  []string{"r1"},
		Location: []float64{45.227, 6.741},
	}

	t.Run("ValidRecord", func(t *testing.T) {
		station, err := transformStation(valid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if station.ID != "s1" || station.Location.Lat != 45.227 || station.Location.Lng != 6.741 {
			t.Errorf("unexpected station: %+v", station)
		}
	})

	t.Run("NilLineIDsBecomeEmptySlice", func(t *testing.T) {
		rec := valid
		rec.LineIDs = nil
		station, err := transformStation(rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if station.LineIDs == nil || len(station.LineIDs) != 0 {
			t.Errorf("expected empty line id slice, got %v", station.LineIDs)
		}
	})

	rejections := []struct {
		name   string
		mutate func(*stationRecord)
	}{
		{"MissingID", func(r *stationRecord) { r.ID = "" }},
		{"MissingLabel", func(r *stationRecord) { r.Label = "" }},
		{"MissingCity", func(r *stationRecord) { r.City = "" }},
		{"ShortLocation", func(r *stationRecord) { r.Location = []float64{45.227} }},
		{"NullIslandLocation", func(r *stationRecord) { r.Location = []float64{0, 0} }},
		{"OutOfRangeLatitude", func(r *stationRecord) { r.Location = []float64{95, 6.741} }},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			if _, err := transformStation(rec); err == nil {
				t.Error("expected the record to be rejected")
			}
		})
	}
}

func TestTransformRoute(t *testing.T) {
	t.Run("ReordersLngFirstBBox", func(t *testing.T) {
		route, err := transformRoute(routeRecord{
			ID:   "r1",
			Name: "GR5",
			BBox: []float64{6.70, 45.78, 6.82, 45.90},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if route.BBox.MinLng != 6.70 || route.BBox.MinLat != 45.78 || route.BBox.MaxLng != 6.82 || route.BBox.MaxLat != 45.90 {
			t.Errorf("bbox not reordered correctly: %+v", route.BBox)
		}
	})

	t.Run("GeometryCoordinatesAreLngFirst", func(t *testing.T) {
		route, err := transformRoute(routeRecord{
			ID:   "r1",
			BBox: []float64{6.70, 45.78, 6.82, 45.90},
			Geometry: &geometryRecord{
				Type:        "LineString",
				Coordinates: [][]float64{{6.7986, 45.8906}, {6.7267, 45.8225}},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if route.Geometry == nil || len(route.Geometry.Coordinates) != 2 {
			t.Fatalf("expected 2 geometry coordinates, got %+v", route.Geometry)
		}
		first := route.Geometry.Coordinates[0]
		if first.Lat != 45.8906 || first.Lng != 6.7986 {
			t.Errorf("expected lat/lng swap, got %+v", first)
		}
	})

	t.Run("MissingID", func(t *testing.T) {
		if _, err := transformRoute(routeRecord{BBox: []float64{6.70, 45.78, 6.82, 45.90}}); err == nil {
			t.Error("expected rejection for missing id")
		}
	})

	t.Run("ShortBBox", func(t *testing.T) {
		_, err := transformRoute(routeRecord{ID: "r1", BBox: []float64{6.70, 45.78}})
		if err == nil {
			t.Fatal("expected rejection for short bbox")
		}
		if !strings.Contains(err.Error(), "bbox") {
			t.Errorf("expected bbox in error, got %q", err.Error())
		}
	})

	t.Run("MalformedGeometryPair", func(t *testing.T) {
		_, err := transformRoute(routeRecord{
			ID:       "r1",
			BBox:     []float64{6.70, 45.78, 6.82, 45.90},
			Geometry: &geometryRecord{Coordinates: [][]float64{{6.7986}}},
		})
		if err == nil {
			t.Error("expected rejection for a one-element coordinate")
		}
	})
}
