package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"planner.randoplan.org/internal/middleware"
)

// Routes registers every endpoint and returns the final http.Handler.
//
// The itinerary endpoints are the application's mutation surface: the
// presentation layer must go through them and never reach the aggregate's
// state any other way. The router is wrapped with Sentry capture and the
// standard security headers; /metrics serves a cached Prometheus exposition.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	router.HandlerFunc(http.MethodGet, "/v1/itinerary", app.getItineraryHandler)
	router.HandlerFunc(http.MethodPut, "/v1/itinerary/start", app.setStartHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/itinerary/start", app.clearStartHandler)
	router.HandlerFunc(http.MethodPut, "/v1/itinerary/end", app.setEndHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/itinerary/end", app.clearEndHandler)
	router.HandlerFunc(http.MethodPost, "/v1/itinerary/steps", app.addStepHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/itinerary/steps/:id", app.removeStepHandler)
	router.HandlerFunc(http.MethodPost, "/v1/itinerary/legs", app.addLegHandler)
	router.HandlerFunc(http.MethodPut, "/v1/itinerary/legs/:id", app.updateLegHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/itinerary/legs/:id", app.removeLegHandler)

	router.HandlerFunc(http.MethodGet, "/v1/routes/candidates", app.routeCandidatesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/geometry/:id", app.routeGeometryHandler)
	router.HandlerFunc(http.MethodPost, "/v1/catalog/reload", app.reloadCatalogHandler)

	handler := middleware.SentryMiddleware(router)
	return middleware.SecurityHeaders(handler)
}
