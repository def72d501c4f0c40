package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"planner.randoplan.org/internal/app"
	"planner.randoplan.org/internal/config"
	"planner.randoplan.org/internal/persist"
	"planner.randoplan.org/internal/report"
)

const version = "1.0.0"

func main() {
	// Load optional .env files before reading any environment variables.
	_ = godotenv.Load()

	var (
		port        = flag.Int("port", 4000, "API server port")
		env         = flag.String("env", "development", "Environment (development|staging|production)")
		storagePath = flag.String("storage", "planner.db", "Path to the local itinerary storage database")
		sourcesFile = flag.String("sources-file", "", "Path to a local JSON data-sources file")
		sourcesURL  = flag.String("sources-url", "", "URL to a remote JSON data-sources file")
	)
	flag.Parse()

	sourcesAuthUser := os.Getenv("SOURCES_AUTH_USER")
	sourcesAuthPass := os.Getenv("SOURCES_AUTH_PASS")

	if err := config.ValidateConfigFlags(sourcesFile, sourcesURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	report.SetupSentry()
	defer report.FlushSentry()
	report.ConfigureScope(*env, version)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := app.NewPooledClient()

	var (
		sources config.Sources
		err     error
	)
	if *sourcesFile != "" {
		sources, err = config.LoadSourcesFromFile(*sourcesFile)
	} else {
		sources, err = config.LoadSourcesFromURL(ctx, client, *sourcesURL, sourcesAuthUser, sourcesAuthPass, 3)
	}
	if err != nil {
		fmt.Printf("Error loading data sources: %v\n", err)
		os.Exit(1)
	}

	cfg := config.NewConfig(*port, *env, *storagePath, sources)

	store, err := persist.NewStore(cfg.StoragePath, logger)
	if err != nil {
		logger.Error("Failed to open itinerary storage", "path", cfg.StoragePath, "error", err)
		report.ReportError(err, sentry.LevelFatal)
		os.Exit(1)
	}
	defer store.Close()

	application := app.New(cfg, logger, client, store, version)

	// Station catalog load is best-effort at startup: a failure leaves the
	// app up but not ready, and /v1/catalog/reload can retry later.
	if err := application.CatalogService.LoadStations(ctx, sources.Stations); err != nil {
		logger.Error("Station catalog unavailable at startup", "error", err)
	}

	// Warm the default route cache in the background so the first candidate
	// query doesn't pay the fetch.
	if path, ok := cfg.RouteSourcePath("small"); ok {
		go func() {
			if _, err := application.CatalogService.LoadRoutes(ctx, "small", path); err != nil {
				logger.Warn("Route catalog warm-up failed", "error", err)
			}
		}()
	}

	application.RestoreItinerary()

	// Pre-fetch detailed paths for the restored itinerary's routes so its
	// legs render with real geometry instead of bbox estimates.
	if sources.Geometry != "" {
		if ids := application.ItineraryRouteIDs(); len(ids) > 0 {
			go func() {
				if _, err := application.CatalogService.LoadGeometry(ctx, sources.Geometry, ids); err != nil {
					logger.Warn("Route geometry warm-up failed", "error", err)
				}
			}()
		}
	}

	// If the source list is remote, refresh it periodically.
	if *sourcesURL != "" {
		go refreshSources(ctx, application, client, *sourcesURL, sourcesAuthUser, sourcesAuthPass, time.Minute, logger)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env)
	err = srv.ListenAndServe()
	report.ReportError(err, sentry.LevelFatal)
	report.FlushSentry()
	logger.Error(err.Error())
	os.Exit(1)
}

// refreshSources periodically re-fetches the remote data-source list and
// swaps it into the running config. Fetch errors are logged and reported but
// never stop the loop.
func refreshSources(ctx context.Context, application *app.Application, client *http.Client, url, authUser, authPass string, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping sources refresh routine")
			return
		case <-ticker.C:
			sources, err := config.LoadSourcesFromURL(ctx, client, url, authUser, authPass, 3)
			if err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags:  map[string]string{"sources_url": url},
					Level: sentry.LevelError,
				})
				logger.Error("Failed to refresh remote sources", "error", err)
				continue
			}
			application.Config.UpdateSources(sources)
			logger.Info("Successfully refreshed data source list")
		}
	}
}
