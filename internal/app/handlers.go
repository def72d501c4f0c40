package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/itinerary"
	"planner.randoplan.org/internal/models"
	"planner.randoplan.org/internal/selection"
)

// HealthStatus is the JSON body of /v1/healthcheck. The application is
// considered ready once the station catalog has loaded; route databases load
// lazily and do not gate readiness.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Stations    int    `json:"stations"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	stations := app.CatalogService.Stations.All()
	loaded, _ := app.CatalogService.Stations.Status()

	status := HealthStatus{
		Status:      "available",
		Environment: app.Config.Env,
		Version:     app.Version,
		Stations:    len(stations),
		Ready:       loaded,
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.Ready {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(status)
}

// itineraryResponse pairs the itinerary snapshot with its validation result.
// Validation is reported, not enforced: an invalid itinerary is still
// returned in full and stays editable.
type itineraryResponse struct {
	Itinerary  models.Itinerary     `json:"itinerary"`
	Validation itinerary.Validation `json:"validation"`
}

func (app *Application) writeItinerary(w http.ResponseWriter) {
	snapshot, validation := app.ItineraryService.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(itineraryResponse{Itinerary: snapshot, Validation: validation})
}

func (app *Application) getItineraryHandler(w http.ResponseWriter, r *http.Request) {
	app.writeItinerary(w)
}

// decodeStation reads a station from the request body. Stations arriving
// through the API must at minimum carry an id and a label; anything less is a
// malformed request, not a validation finding.
func decodeStation(r *http.Request) (models.Station, error) {
	var station models.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		return models.Station{}, fmt.Errorf("invalid station body: %w", err)
	}
	if station.ID == "" || station.Label == "" {
		return models.Station{}, fmt.Errorf("station requires id and label")
	}
	return station, nil
}

func (app *Application) setStartHandler(w http.ResponseWriter, r *http.Request) {
	station, err := decodeStation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	app.ItineraryService.SetStart(&station)
	app.writeItinerary(w)
}

func (app *Application) clearStartHandler(w http.ResponseWriter, r *http.Request) {
	app.ItineraryService.SetStart(nil)
	app.writeItinerary(w)
}

func (app *Application) setEndHandler(w http.ResponseWriter, r *http.Request) {
	station, err := decodeStation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	app.ItineraryService.SetEnd(&station)
	app.writeItinerary(w)
}

func (app *Application) clearEndHandler(w http.ResponseWriter, r *http.Request) {
	app.ItineraryService.SetEnd(nil)
	app.writeItinerary(w)
}

func (app *Application) addStepHandler(w http.ResponseWriter, r *http.Request) {
	station, err := decodeStation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	app.ItineraryService.AddStep(station)
	app.writeItinerary(w)
}

func (app *Application) removeStepHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	app.ItineraryService.RemoveStep(params.ByName("id"))
	app.writeItinerary(w)
}

func (app *Application) addLegHandler(w http.ResponseWriter, r *http.Request) {
	var leg models.Leg
	if err := json.NewDecoder(r.Body).Decode(&leg); err != nil {
		http.Error(w, fmt.Sprintf("invalid leg body: %v", err), http.StatusBadRequest)
		return
	}
	if leg.ID == "" {
		http.Error(w, "leg requires an id", http.StatusBadRequest)
		return
	}
	if leg.Type != models.LegTypeHiking && leg.Type != models.LegTypeRest {
		http.Error(w, fmt.Sprintf("unknown leg type %q", leg.Type), http.StatusBadRequest)
		return
	}
	app.ItineraryService.AddLeg(leg)
	app.writeItinerary(w)
}

func (app *Application) removeLegHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	app.ItineraryService.RemoveLeg(params.ByName("id"))
	app.writeItinerary(w)
}

func (app *Application) updateLegHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	var leg models.Leg
	if err := json.NewDecoder(r.Body).Decode(&leg); err != nil {
		http.Error(w, fmt.Sprintf("invalid leg body: %v", err), http.StatusBadRequest)
		return
	}
	if leg.ID != "" && leg.ID != params.ByName("id") {
		http.Error(w, "leg id in body does not match URL", http.StatusBadRequest)
		return
	}
	leg.ID = params.ByName("id")
	app.ItineraryService.UpdateLeg(leg)
	app.writeItinerary(w)
}

// candidatesResponse lists the routes able to connect two stations, shortest
// first, together with a ready-made leg for the top candidate. An empty
// candidate list is a normal outcome, not an error.
type candidatesResponse struct {
	Candidates []models.Route `json:"candidates"`
	Suggested  *models.Leg    `json:"suggested,omitempty"`
}

func (app *Application) routeCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fromID := query.Get("from")
	toID := query.Get("to")
	if fromID == "" || toID == "" {
		http.Error(w, "from and to station ids are required", http.StatusBadRequest)
		return
	}

	from, ok := app.CatalogService.Stations.ByID(fromID)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown station %q", fromID), http.StatusNotFound)
		return
	}
	to, ok := app.CatalogService.Stations.ByID(toID)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown station %q", toID), http.StatusNotFound)
		return
	}

	tag := query.Get("source")
	if tag == "" {
		tag = "small"
	}
	source, ok := app.Config.RouteSourcePath(tag)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown route source %q", tag), http.StatusNotFound)
		return
	}

	routes, err := app.CatalogService.LoadRoutes(r.Context(), tag, source)
	if err != nil {
		http.Error(w, "route catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	routes = app.CatalogService.AttachGeometry(routes)

	candidates := selection.CandidateRoutes(from, to, routes)
	resp := candidatesResponse{Candidates: candidates}
	if resp.Candidates == nil {
		resp.Candidates = []models.Route{}
	}
	if len(candidates) > 0 {
		leg := selection.BuildHikingLeg(from, to, candidates[0])
		resp.Suggested = &leg
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// routeGeometryResponse is the detailed path of one route, in travel order.
type routeGeometryResponse struct {
	ID          string       `json:"id"`
	Coordinates []geo.LatLng `json:"coordinates"`
}

// routeGeometryHandler serves the detailed path for one route. On a store miss
// it loads the route's geometry on demand from the configured geometry
// database; a route the database doesn't know stays a 404, not an error.
func (app *Application) routeGeometryHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	routeID := params.ByName("id")

	path, ok := app.CatalogService.Geometry.Get(routeID)
	if !ok {
		source := app.Config.GetSources().Geometry
		if source == "" {
			http.Error(w, "no geometry database configured", http.StatusNotFound)
			return
		}
		if _, err := app.CatalogService.LoadGeometry(r.Context(), source, map[string]struct{}{routeID: {}}); err != nil {
			http.Error(w, "geometry database unavailable", http.StatusServiceUnavailable)
			return
		}
		if path, ok = app.CatalogService.Geometry.Get(routeID); !ok {
			http.Error(w, fmt.Sprintf("no geometry for route %q", routeID), http.StatusNotFound)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(routeGeometryResponse{ID: routeID, Coordinates: path})
}

func (app *Application) reloadCatalogHandler(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("source")
	if tag == "" {
		http.Error(w, "source tag is required", http.StatusBadRequest)
		return
	}
	source, ok := app.Config.RouteSourcePath(tag)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown route source %q", tag), http.StatusNotFound)
		return
	}

	routes, err := app.CatalogService.ReloadRoutes(r.Context(), tag, source)
	if err != nil {
		http.Error(w, "route catalog reload failed", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"routes": len(routes)})
}
