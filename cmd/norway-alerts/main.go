package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jmcook/norway-alerts/internal/api"
	"github.com/jmcook/norway-alerts/internal/config"
	"github.com/jmcook/norway-alerts/internal/logging"
	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/notify"
	"github.com/jmcook/norway-alerts/internal/observability"
	"github.com/jmcook/norway-alerts/internal/refresh"
	"github.com/jmcook/norway-alerts/internal/repository"
	"github.com/jmcook/norway-alerts/internal/sources"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	broadcaster := notify.NewBroadcaster()

	floor, err := notify.ParseFloor(cfg.Notifications.Severity)
	if err != nil {
		logging.Fatalf("Invalid notification severity: %v", err)
	}
	engine := notify.NewEngine(floor, cfg.LocationRef())

	fetchers, err := buildFetchers(cfg)
	if err != nil {
		logging.Fatalf("Failed to build source adapters: %v", err)
	}

	refresher := refresh.NewRefresher(refresh.Options{
		Fetchers:             fetchers,
		Engine:               engine,
		Notifier:             notify.SlogNotifier{},
		Broadcaster:          broadcaster,
		Repo:                 db,
		Metrics:              metrics,
		Lang:                 cfg.Location.Lang,
		NotificationsEnabled: cfg.Notifications.Enabled,
		DispatchWorkers:      cfg.Sources.DispatchWorkers,
		DispatchBuffer:       cfg.Sources.DispatchBuffer,
	})
	refresher.Start(ctx, cfg.Sources.RefreshInterval)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(5)) // 5 req/s global limit

	handler := api.NewHandler(refresher, db, cfg)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	refresher.Stop()
	broadcaster.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

// buildFetchers maps the configured warning types onto source adapters.
// Test mode swaps every adapter for its simulated counterpart.
func buildFetchers(cfg *config.Config) ([]sources.Fetcher, error) {
	loc := cfg.Location
	src := cfg.Sources

	var fetchers []sources.Fetcher
	for _, t := range src.WarningTypes {
		if src.TestMode {
			fetchers = append(fetchers, sources.NewSimulatedFetcher(models.SourceType(t)))
			continue
		}

		switch models.SourceType(t) {
		case models.SourceLandslide:
			fetchers = append(fetchers, sources.NewLandslideFetcher(src.LandslideURL, loc.CountyID, loc.Lang))
		case models.SourceFlood:
			fetchers = append(fetchers, sources.NewFloodFetcher(src.FloodURL, loc.CountyID, loc.Lang))
		case models.SourceAvalanche:
			fetchers = append(fetchers, sources.NewAvalancheFetcher(src.AvalancheURL, loc.CountyID, loc.CountyName, loc.Lang, src.AvalancheFanout))
		case models.SourceWeather:
			if loc.UseCoords {
				fetchers = append(fetchers, sources.NewMetAlertsCoordFetcher(src.MetAlertsURL, loc.Latitude, loc.Longitude, loc.Lang))
			} else {
				fetchers = append(fetchers, sources.NewMetAlertsCountyFetcher(src.MetAlertsURL, loc.CountyID, loc.Lang))
			}
		default:
			return nil, fmt.Errorf("unknown warning type %q", t)
		}
	}
	return fetchers, nil
}
