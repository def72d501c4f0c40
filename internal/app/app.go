package app

import (
	"log/slog"
	"net/http"

	"planner.randoplan.org/internal/catalog"
	"planner.randoplan.org/internal/config"
	"planner.randoplan.org/internal/itinerary"
	"planner.randoplan.org/internal/models"
	"planner.randoplan.org/internal/persist"
)

// Application wires the planner's services together and carries them into the
// HTTP handlers: configuration, the reference catalogs, the itinerary
// aggregate and the persistence store.
type Application struct {
	Config           *config.Config
	CatalogService   *catalog.Service
	ItineraryService *itinerary.Service
	Store            *persist.Store
	Logger           *slog.Logger
	Version          string
}

// New creates and wires all dependencies for the Application. The store may
// be nil (the itinerary then lives only in memory), which keeps tests free of
// filesystem state.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, store *persist.Store, version string) *Application {
	stationStore := catalog.NewStationStore()
	routeStore := catalog.NewRouteStore()
	geometryStore := catalog.NewGeometryStore()

	catalogService := catalog.NewService(stationStore, routeStore, geometryStore, logger, client)

	var persister itinerary.Persister
	if store != nil {
		persister = store
	}
	itineraryService := itinerary.NewService(logger, persister)

	return &Application{
		Config:           cfg,
		CatalogService:   catalogService,
		ItineraryService: itineraryService,
		Store:            store,
		Logger:           logger,
		Version:          version,
	}
}

// RestoreItinerary loads the persisted itinerary, if any, into the aggregate.
// Restoration is best-effort: a missing or unreadable document leaves the
// itinerary empty and the application running.
func (app *Application) RestoreItinerary() {
	if app.Store == nil {
		return
	}
	it, ok := app.Store.Load()
	if !ok {
		app.Logger.Info("No saved itinerary found, starting empty")
		return
	}
	app.ItineraryService.Restore(it)
	app.Logger.Info("Restored saved itinerary", "legs", len(it.Legs), "steps", len(it.Steps))
}

// ItineraryRouteIDs collects the route ids referenced by the itinerary's
// hiking legs, in the set form the geometry loader consumes. Rest legs and
// legs without a route contribute nothing.
func (app *Application) ItineraryRouteIDs() map[string]struct{} {
	it, _ := app.ItineraryService.Snapshot()
	ids := make(map[string]struct{})
	for _, leg := range it.Legs {
		if leg.Type == models.LegTypeHiking && leg.Route != nil {
			ids[leg.Route.ID] = struct{}{}
		}
	}
	return ids
}
