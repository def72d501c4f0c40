package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCatalogService(client *http.Client) *Service {
	return NewService(NewStationStore(), NewRouteStore(), NewGeometryStore(), newTestLogger(), client)
}

func TestLoadStations(t *testing.T) {
	t.Run("DropsMalformedRecordsAndKeepsTheRest", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"id": "s1", "label": "Aussois", "city": "Aussois", "lineIds": ["r1"], "location": [45.227, 6.741]},
				{"id": "", "label": "Broken", "city": "Nowhere", "location": [45.0, 6.0]},
				{"id": "s3", "label": "Bessans", "city": "Bessans", "lineIds": ["r1", "r2"], "location": [45.320, 7.006]}
			]`))
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		if err := svc.LoadStations(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}

		stations := svc.Stations.All()
		if len(stations) != 2 {
			t.Fatalf("expected 2 stations after dropping the malformed one, got %d", len(stations))
		}
		if _, ok := svc.Stations.ByID("s3"); !ok {
			t.Error("expected s3 to survive the load")
		}
		loaded, lastErr := svc.Stations.Status()
		if !loaded || lastErr != nil {
			t.Errorf("expected loaded status with no error, got loaded=%v err=%v", loaded, lastErr)
		}
	})

	t.Run("FetchFailureLeavesStoreRetryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		if err := svc.LoadStations(context.Background(), server.URL); err == nil {
			t.Fatal("expected a load error for a 404 source")
		}

		loaded, lastErr := svc.Stations.Status()
		if loaded {
			t.Error("expected store to stay not-loaded after a failed fetch")
		}
		if lastErr == nil {
			t.Error("expected the load error to be recorded")
		}
	})

	t.Run("UnparsableBody", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		if err := svc.LoadStations(context.Background(), server.URL); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestLoadRoutes(t *testing.T) {
	routesJSON := `[
		{"id": "r1", "name": "GR5", "bbox": [6.70, 45.78, 6.82, 45.90]},
		{"id": "r2", "from": "Aussois", "to": "Bessans", "bbox": [6.74, 45.22, 7.01, 45.32]}
	]`

	t.Run("SecondLoadIsServedFromCache", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(routesJSON))
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		ctx := context.Background()

		first, err := svc.LoadRoutes(ctx, "small", server.URL)
		if err != nil {
			t.Fatalf("first load failed: %v", err)
		}
		if len(first) != 2 {
			t.Fatalf("expected 2 routes, got %d", len(first))
		}

		second, err := svc.LoadRoutes(ctx, "small", server.URL)
		if err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if len(second) != 2 {
			t.Fatalf("expected 2 cached routes, got %d", len(second))
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("expected exactly 1 upstream fetch, got %d", got)
		}
	})

	t.Run("ReloadRefetches", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(routesJSON))
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		ctx := context.Background()

		if _, err := svc.LoadRoutes(ctx, "small", server.URL); err != nil {
			t.Fatalf("initial load failed: %v", err)
		}
		if _, err := svc.ReloadRoutes(ctx, "small", server.URL); err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if got := hits.Load(); got != 2 {
			t.Errorf("expected 2 upstream fetches after reload, got %d", got)
		}
	})

	t.Run("TagsAreIndependent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(routesJSON))
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		ctx := context.Background()

		if _, err := svc.LoadRoutes(ctx, "small", server.URL); err != nil {
			t.Fatalf("small load failed: %v", err)
		}
		if _, ok := svc.Routes.Get("full"); ok {
			t.Error("expected the full tag to stay unloaded")
		}
	})

	t.Run("SupersededFetchCannotOverwriteFresherData", func(t *testing.T) {
		firstArrived := make(chan struct{})
		release := make(chan struct{})
		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				// Hold the first fetch open until a newer load has finished.
				close(firstArrived)
				<-release
				w.Write([]byte(`[{"id": "outdated", "bbox": [6.0, 45.0, 6.1, 45.1]}]`))
				return
			}
			w.Write([]byte(`[{"id": "fresh", "bbox": [6.0, 45.0, 6.1, 45.1]}]`))
		}))
		defer server.Close()

		svc := newTestCatalogService(server.Client())
		ctx := context.Background()

		done := make(chan struct{})
		go func() {
			defer close(done)
			svc.LoadRoutes(ctx, "small", server.URL)
		}()

		<-firstArrived
		reloaded, err := svc.ReloadRoutes(ctx, "small", server.URL)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if len(reloaded) != 1 || reloaded[0].ID != "fresh" {
			t.Fatalf("expected the reload to return the fresh route, got %+v", reloaded)
		}

		close(release)
		<-done

		routes, ok := svc.Routes.Get("small")
		if !ok || len(routes) != 1 || routes[0].ID != "fresh" {
			t.Errorf("expected the fresher load to survive the slow fetch, got %+v", routes)
		}
	})

	t.Run("FailureRecordsPerTagError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		server.Close() // fail at the transport level, no retries against a live server

		svc := newTestCatalogService(&http.Client{})
		if _, err := svc.LoadRoutes(context.Background(), "small", server.URL); err == nil {
			t.Fatal("expected a load error")
		}
		if svc.Routes.LastError("small") == nil {
			t.Error("expected the error recorded under the small tag")
		}
	})
}

func TestLoadGeometry(t *testing.T) {
	geometryJSON := `{
		"features": [
			{"id": "r1", "geometry": {"type": "MultiLineString", "coordinates": [
				[[6.7986, 45.8906], [6.7610, 45.8563]],
				[[6.7610, 45.8563], [6.7267, 45.8225]]
			]}},
			{"id": "r9", "geometry": {"type": "MultiLineString", "coordinates": [
				[[7.0, 45.0], [7.1, 45.1]]
			]}}
		]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geometryJSON))
	}))
	defer server.Close()

	svc := newTestCatalogService(server.Client())
	wanted := map[string]struct{}{"r1": {}, "r2": {}}

	paths, err := svc.LoadGeometry(context.Background(), server.URL, wanted)
	if err != nil {
		t.Fatalf("geometry load failed: %v", err)
	}

	path, ok := paths["r1"]
	if !ok {
		t.Fatal("expected geometry for r1")
	}
	if len(path) != 4 {
		t.Errorf("expected line segments flattened into 4 points, got %d", len(path))
	}
	if path[0].Lat != 45.8906 || path[0].Lng != 6.7986 {
		t.Errorf("expected lng-first wire pairs converted, got %+v", path[0])
	}

	if _, ok := paths["r2"]; ok {
		t.Error("expected no geometry for r2, which is absent from the source")
	}
	if _, ok := paths["r9"]; ok {
		t.Error("expected unrequested route r9 to be filtered out")
	}

	if stored, ok := svc.Geometry.Get("r1"); !ok || len(stored) != 4 {
		t.Errorf("expected r1 geometry in the store, got ok=%v len=%d", ok, len(stored))
	}
}

func TestAttachGeometry(t *testing.T) {
	svc := newTestCatalogService(&http.Client{})
	svc.Geometry.SetAll(map[string][]geo.LatLng{
		"stored": {{Lat: 45.2, Lng: 6.66}, {Lat: 45.25, Lng: 6.7}},
	})

	existing := &models.RouteGeometry{Coordinates: []geo.LatLng{{Lat: 44, Lng: 6}}}
	routes := svc.AttachGeometry([]models.Route{
		{ID: "stored"},
		{ID: "carries-own", Geometry: existing},
		{ID: "unknown"},
	})

	if routes[0].Geometry == nil || len(routes[0].Geometry.Coordinates) != 2 {
		t.Errorf("expected stored geometry attached, got %+v", routes[0].Geometry)
	}
	if routes[1].Geometry != existing {
		t.Error("expected a route's own geometry to be left alone")
	}
	if routes[2].Geometry != nil {
		t.Errorf("expected no geometry for an unknown route, got %+v", routes[2].Geometry)
	}
}

func TestFetchDocumentLocalFile(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		if _, err := fetchDocument(context.Background(), &http.Client{}, "/nonexistent/stations.json", 1); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
