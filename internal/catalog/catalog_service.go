package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/metrics"
	"planner.randoplan.org/internal/models"
	"planner.randoplan.org/internal/report"
)

// Service loads and caches the read-only reference catalogs: stations, hiking
// routes (one cache entry per source tag) and detailed route geometry. The
// rest of the application only ever consumes the stores as immutable lookup
// tables.
type Service struct {
	Stations *StationStore
	Routes   *RouteStore
	Geometry *GeometryStore
	Logger   *slog.Logger
	Client   *http.Client

	maxRetries int

	// generation guards route loads: a reload bumps the tag's generation, and
	// a fetch that finishes under a stale generation is discarded so a late
	// response can never overwrite fresher data.
	mu         sync.Mutex
	generation map[string]uint64
}

func NewService(stations *StationStore, routes *RouteStore, geometry *GeometryStore, logger *slog.Logger, client *http.Client) *Service {
	return &Service{
		Stations:   stations,
		Routes:     routes,
		Geometry:   geometry,
		Logger:     logger,
		Client:     client,
		maxRetries: 3,
		generation: make(map[string]uint64),
	}
}

// LoadStations fetches and transforms the station catalog. Malformed records
// are dropped with a logged, reported error; the remainder of the load
// continues. A fetch or parse failure leaves the store empty-with-error and
// is retryable.
func (s *Service) LoadStations(ctx context.Context, source string) error {
	start := time.Now()

	data, err := fetchDocument(ctx, s.Client, source, s.maxRetries)
	if err != nil {
		return s.failStationLoad(source, err)
	}

	var records []stationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return s.failStationLoad(source, fmt.Errorf("failed to unmarshal station data: %w", err))
	}

	stations := make([]models.Station, 0, len(records))
	for _, rec := range records {
		station, err := transformStation(rec)
		if err != nil {
			metrics.CatalogRecordsDropped.WithLabelValues("stations", source).Inc()
			report.ReportError(err, sentry.LevelWarning)
			s.Logger.Warn("Dropping malformed station record", "source", source, "error", err)
			continue
		}
		stations = append(stations, station)
	}

	s.Stations.Set(stations)
	metrics.CatalogLoadStatus.WithLabelValues("stations", source).Set(1)
	metrics.CatalogRecordsLoaded.WithLabelValues("stations", source).Set(float64(len(stations)))
	metrics.CatalogLoadDuration.WithLabelValues("stations", source).Observe(time.Since(start).Seconds())
	s.Logger.Info("Loaded station catalog", "source", source, "stations", len(stations))
	return nil
}

func (s *Service) failStationLoad(source string, err error) error {
	s.Stations.SetError(err)
	metrics.CatalogLoadStatus.WithLabelValues("stations", source).Set(0)
	report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
		Tags:  map[string]string{"catalog_source": source},
		Level: sentry.LevelError,
	})
	s.Logger.Error("Failed to load station catalog", "source", source, "error", err)
	return err
}

// LoadRoutes returns the route list for a source tag, fetching and caching it
// on first use. Subsequent calls for the same tag are served from the cache
// until ReloadRoutes or Routes.Clear invalidates it. Loads for the same tag
// are idempotent.
func (s *Service) LoadRoutes(ctx context.Context, tag, source string) ([]models.Route, error) {
	if routes, ok := s.Routes.Get(tag); ok {
		return routes, nil
	}
	return s.fetchRoutes(ctx, tag, source)
}

// ReloadRoutes discards the cached routes for a tag and re-fetches them.
// There is no merge: the new data replaces the old wholesale.
func (s *Service) ReloadRoutes(ctx context.Context, tag, source string) ([]models.Route, error) {
	s.Routes.Clear(tag)
	return s.fetchRoutes(ctx, tag, source)
}

func (s *Service) fetchRoutes(ctx context.Context, tag, source string) ([]models.Route, error) {
	gen := s.bumpGeneration(tag)
	start := time.Now()

	data, err := fetchDocument(ctx, s.Client, source, s.maxRetries)
	if err != nil {
		return nil, s.failRouteLoad(tag, source, err)
	}

	var records []routeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, s.failRouteLoad(tag, source, fmt.Errorf("failed to unmarshal route data: %w", err))
	}

	routes := make([]models.Route, 0, len(records))
	for _, rec := range records {
		route, err := transformRoute(rec)
		if err != nil {
			metrics.CatalogRecordsDropped.WithLabelValues("routes", tag).Inc()
			report.ReportError(err, sentry.LevelWarning)
			s.Logger.Warn("Dropping malformed route record", "tag", tag, "error", err)
			continue
		}
		routes = append(routes, route)
	}

	if !s.storeIfCurrent(tag, gen, routes) {
		// A newer load for this tag started while we were fetching; its
		// result wins, ours is dropped.
		s.Logger.Info("Discarding stale route load", "tag", tag, "source", source)
		return routes, nil
	}

	metrics.CatalogLoadStatus.WithLabelValues("routes", tag).Set(1)
	metrics.CatalogRecordsLoaded.WithLabelValues("routes", tag).Set(float64(len(routes)))
	metrics.CatalogLoadDuration.WithLabelValues("routes", tag).Observe(time.Since(start).Seconds())
	s.Logger.Info("Loaded route catalog", "tag", tag, "source", source, "routes", len(routes))
	return routes, nil
}

func (s *Service) failRouteLoad(tag, source string, err error) error {
	s.Routes.SetError(tag, err)
	metrics.CatalogLoadStatus.WithLabelValues("routes", tag).Set(0)
	report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
		Tags:  map[string]string{"catalog_tag": tag, "catalog_source": source},
		Level: sentry.LevelError,
	})
	s.Logger.Error("Failed to load route catalog", "tag", tag, "source", source, "error", err)
	return err
}

func (s *Service) bumpGeneration(tag string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation[tag]++
	return s.generation[tag]
}

// storeIfCurrent publishes fetched routes only while the fetch's generation is
// still the newest one for its tag. The generation check and the store write
// happen under the same lock, so a superseded fetch can never land its data
// after the superseding one.
func (s *Service) storeIfCurrent(tag string, gen uint64, routes []models.Route) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation[tag] != gen {
		return false
	}
	s.Routes.Set(tag, routes)
	return true
}

// AttachGeometry fills in stored detailed paths for routes that carry none, so
// distance ranking and display can follow the real trail instead of the
// bounding-box estimate. Routes without stored geometry pass through unchanged.
func (s *Service) AttachGeometry(routes []models.Route) []models.Route {
	for i := range routes {
		if routes[i].Geometry != nil && len(routes[i].Geometry.Coordinates) > 0 {
			continue
		}
		if path, ok := s.Geometry.Get(routes[i].ID); ok {
			routes[i].Geometry = &models.RouteGeometry{Coordinates: path}
		}
	}
	return routes
}

// geometryFeature is the wire form of one route geometry in the geometry
// database: a GeoJSON-style feature whose MultiLineString coordinates are
// [lng, lat] pairs grouped into line segments.
type geometryFeature struct {
	ID       string `json:"id"`
	Geometry struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

type geometryDocument struct {
	Features []geometryFeature `json:"features"`
}

// LoadGeometry fetches detailed paths for the requested route ids and stores
// them. Ids with no geometry in the source are simply absent from the result,
// never an error.
func (s *Service) LoadGeometry(ctx context.Context, source string, routeIDs map[string]struct{}) (map[string][]geo.LatLng, error) {
	data, err := fetchDocument(ctx, s.Client, source, s.maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  map[string]string{"catalog_source": source},
			Level: sentry.LevelError,
		})
		s.Logger.Error("Failed to load route geometry", "source", source, "error", err)
		return nil, err
	}

	var doc geometryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		err = fmt.Errorf("failed to unmarshal geometry data: %w", err)
		report.ReportError(err)
		s.Logger.Error("Failed to parse route geometry", "source", source, "error", err)
		return nil, err
	}

	paths := make(map[string][]geo.LatLng)
	for _, feature := range doc.Features {
		if _, wanted := routeIDs[feature.ID]; !wanted {
			continue
		}
		var path []geo.LatLng
		for _, line := range feature.Geometry.Coordinates {
			coords, err := transformCoordinates(line)
			if err != nil {
				s.Logger.Warn("Skipping malformed geometry line", "route_id", feature.ID, "error", err)
				continue
			}
			path = append(path, coords...)
		}
		if len(path) > 0 {
			paths[feature.ID] = path
		}
	}

	s.Geometry.SetAll(paths)
	s.Logger.Info("Loaded route geometry", "source", source, "requested", len(routeIDs), "resolved", len(paths))
	return paths, nil
}
