package catalog

import (
	"sync"

	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/models"
)

// StationStore is a thread-safe in-memory store for the station catalog.
// Stations are loaded once per session and treated as immutable afterwards.
type StationStore struct {
	mu       sync.RWMutex
	stations []models.Station
	byID     map[string]models.Station
	loaded   bool
	lastErr  error
}

func NewStationStore() *StationStore {
	return &StationStore{}
}

// Set replaces the station list wholesale. Reloads discard and replace, they
// never merge.
func (s *StationStore) Set(stations []models.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = append([]models.Station(nil), stations...)
	s.byID = make(map[string]models.Station, len(stations))
	for _, station := range stations {
		s.byID[station.ID] = station
	}
	s.loaded = true
	s.lastErr = nil
}

// SetError records a failed load. The store stays empty-with-error rather
// than failing hard; the caller may retry.
func (s *StationStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// All returns a copy of the station list.
func (s *StationStore) All() []models.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Station(nil), s.stations...)
}

// ByID returns the station with the given id, if present.
func (s *StationStore) ByID(id string) (models.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	station, ok := s.byID[id]
	return station, ok
}

// Status reports whether a load has succeeded and the last load error, if any.
func (s *StationStore) Status() (loaded bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded, s.lastErr
}

// RouteStore is a thread-safe cache of route lists keyed by source tag
// (for example "small" or "full"). It is an explicit cache object owned by
// the catalog service: consumers of the catalog interface must not assume any
// particular caching exists beneath it.
type RouteStore struct {
	mu      sync.RWMutex
	data    map[string][]models.Route
	lastErr map[string]error
}

func NewRouteStore() *RouteStore {
	return &RouteStore{
		data:    make(map[string][]models.Route),
		lastErr: make(map[string]error),
	}
}

// Set stores the route list for a source tag, replacing any previous value.
func (s *RouteStore) Set(tag string, routes []models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[tag] = append([]models.Route(nil), routes...)
	delete(s.lastErr, tag)
}

// SetError records a failed load for a source tag.
func (s *RouteStore) SetError(tag string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr[tag] = err
}

// Get returns the cached routes for a source tag.
func (s *RouteStore) Get(tag string) ([]models.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	routes, ok := s.data[tag]
	if !ok {
		return nil, false
	}
	return append([]models.Route(nil), routes...), true
}

// LastError returns the most recent load error for a source tag, if any.
func (s *RouteStore) LastError(tag string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr[tag]
}

// Clear invalidates cached route data. With no arguments every tag is
// dropped; otherwise only the named tags are.
func (s *RouteStore) Clear(tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tags) == 0 {
		s.data = make(map[string][]models.Route)
		s.lastErr = make(map[string]error)
		return
	}
	for _, tag := range tags {
		delete(s.data, tag)
		delete(s.lastErr, tag)
	}
}

// GeometryStore is a thread-safe store of detailed route paths keyed by
// route id.
type GeometryStore struct {
	mu    sync.RWMutex
	paths map[string][]geo.LatLng
}

func NewGeometryStore() *GeometryStore {
	return &GeometryStore{paths: make(map[string][]geo.LatLng)}
}

// SetAll merges the given paths into the store.
func (s *GeometryStore) SetAll(paths map[string][]geo.LatLng) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, path := range paths {
		s.paths[id] = append([]geo.LatLng(nil), path...)
	}
}

// Get returns the stored path for a route id, if present.
func (s *GeometryStore) Get(routeID string) ([]geo.LatLng, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.paths[routeID]
	if !ok {
		return nil, false
	}
	return append([]geo.LatLng(nil), path...), true
}

// Clear drops all stored paths.
func (s *GeometryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = make(map[string][]geo.LatLng)
}
