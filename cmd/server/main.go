package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"route-planner-service/internal/adapters/cache"
	"route-planner-service/internal/adapters/polyline"
	"route-planner-service/internal/adapters/realtime"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/api"
	"route-planner-service/internal/config"
	"route-planner-service/internal/optimizer"
	"route-planner-service/internal/platform/db"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (SQL, mapping, cache, hub) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal(err)
	}

	dialect, err := repositories.DialectFor(cfg.DB.Driver)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize schema and seed demo orders on startup for local runs.
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		log.Fatal(err)
	}
	if cfg.DB.Seed {
		if err := repositories.SeedFromJSON(ctx, conn, dialect, cfg.DB.SeedPath); err != nil {
			log.Fatal(err)
		}
	}

	polylines, err := newPolylineProvider(ctx, cfg.Polyline, conn, dialect)
	if err != nil {
		log.Fatal(err)
	}

	routeRepo := repositories.NewSQLRouteRepository(conn, dialect)
	hub := realtime.NewHub()

	routeService := &services.RouteService{
		Routes:    routeRepo,
		Orders:    repositories.NewSQLOrderRepository(conn, dialect),
		Polylines: polylines,
		Planner: optimizer.Planner{
			Depot:         cfg.Depot.Location,
			ReturnToDepot: cfg.Depot.Return,
			Budget: optimizer.Budget{
				MaxPasses:   cfg.Optimizer.MaxPasses,
				MaxDuration: cfg.Optimizer.MaxDuration,
			},
		},
		DefaultServiceType: cfg.Routing.DefaultServiceType,
	}
	trackingService := &services.TrackingService{
		Tracking:  repositories.NewSQLTrackingRepository(conn, dialect),
		Routes:    routeRepo,
		Publisher: hub,
	}

	router := api.NewRouter(api.Dependencies{
		DB:         conn,
		Routes:     routeService,
		Tracking:   trackingService,
		Subscriber: hub,
	})

	// Timeouts leave room for the mapping service on route creation.
	// WriteTimeout does not apply to hijacked WebSocket connections.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s driver=%s polyline=%s cache=%s depot=%t",
			cfg.Server.Port, cfg.DB.Driver, cfg.Polyline.Provider, cfg.Polyline.Cache, cfg.Depot.Location != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

// newPolylineProvider selects the mapping adapter and wraps it in the configured cache.
func newPolylineProvider(
	ctx context.Context,
	cfg config.PolylineConfig,
	conn *sql.DB,
	dialect repositories.Dialect,
) (ports.PolylineProvider, error) {
	var provider ports.PolylineProvider
	switch cfg.Provider {
	case "google":
		p, err := polyline.NewGoogleRoutesProvider(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		provider = p
	case "ors":
		p, err := polyline.NewORSDirectionsProvider(cfg.ORSAPIKey)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		provider = polyline.NewLocalProvider()
	}

	var store ports.PolylineCache
	switch cfg.Cache {
	case "memory":
		store = cache.NewMemoryPolylineCache(cfg.CacheTTL)
	case "sql":
		store = cache.NewSQLPolylineCache(conn, dialect, cfg.CacheTTL)
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("polyline cache: %w", err)
		}
		store = cache.NewRedisPolylineCache(client, cfg.CacheTTL)
	default:
		return provider, nil
	}

	return cache.NewCachingPolylineProvider(provider, store), nil
}
