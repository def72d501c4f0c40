package app

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"planner.randoplan.org/internal/config"
	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/models"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.NewConfig(
		4000,
		"testing",
		"",
		config.Sources{
			Stations: "/stations.json",
			Routes: []config.RouteSource{
				{Tag: "small", Path: "/routes-small.json"},
			},
		},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(cfg, logger, &http.Client{}, nil, "test")
}

func testStation(id, label string, lineIDs ...string) models.Station {
	return models.Station{
		ID:       id,
		Label:    label,
		City:     "Modane",
		LineIDs:  lineIDs,
		Location: geo.LatLng{Lat: 45.2, Lng: 6.66},
	}
}

func configSourcesWith(routePath string) config.Sources {
	return config.Sources{
		Stations: "/stations.json",
		Routes: []config.RouteSource{
			{Tag: "small", Path: routePath},
		},
	}
}

func configSourcesWithGeometry(geometryPath string) config.Sources {
	sources := configSourcesWith("/routes-small.json")
	sources.Geometry = geometryPath
	return sources
}

func testRoute(id string, spanDeg float64) models.Route {
	return models.Route{
		ID:   id,
		Name: "Route " + id,
		BBox: geo.BoundingBox{MinLat: 45, MinLng: 6, MaxLat: 45 + spanDeg, MaxLng: 6},
	}
}
