package config

import (
	"sync"
)

// RouteSource names one loadable route database. The tag is the cache key
// ("small", "full", or a chunk identifier); the path is a local file path or
// an HTTP(S) URL.
type RouteSource struct {
	Tag  string `json:"tag"`
	Path string `json:"path"`
}

// Sources lists every external data source the planner consumes: the station
// catalog, one or more route databases, and an optional geometry database.
type Sources struct {
	Stations string        `json:"stations"`
	Routes   []RouteSource `json:"routes"`
	Geometry string        `json:"geometry,omitempty"`
}

// Config holds all the configuration settings for the application.
type Config struct {
	Port        int
	Env         string
	StoragePath string // SQLite database holding the persisted itinerary

	mu      sync.RWMutex
	sources Sources
}

// NewConfig creates a new instance of a Config struct.
func NewConfig(port int, env, storagePath string, sources Sources) *Config {
	return &Config{
		Port:        port,
		Env:         env,
		StoragePath: storagePath,
		sources:     sources,
	}
}

// UpdateSources safely replaces the data source list.
func (cfg *Config) UpdateSources(sources Sources) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.sources = sources
}

// GetSources safely returns a copy of the data source list.
func (cfg *Config) GetSources() Sources {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	out := cfg.sources
	out.Routes = append([]RouteSource(nil), cfg.sources.Routes...)
	return out
}

// RouteSourcePath returns the path registered for a route source tag.
func (cfg *Config) RouteSourcePath(tag string) (string, bool) {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	for _, src := range cfg.sources.Routes {
		if src.Tag == tag {
			return src.Path, true
		}
	}
	return "", false
}
