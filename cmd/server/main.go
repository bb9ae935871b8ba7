package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/rentals/api/internal/config"
	"github.com/stwalsh4118/rentals/api/internal/database"
	"github.com/stwalsh4118/rentals/api/internal/geocoding"
	"github.com/stwalsh4118/rentals/api/internal/handlers"
	"github.com/stwalsh4118/rentals/api/internal/logger"
	"github.com/stwalsh4118/rentals/api/internal/middleware"
	"github.com/stwalsh4118/rentals/api/internal/repository"
	"github.com/stwalsh4118/rentals/api/internal/searchindex"
	"github.com/stwalsh4118/rentals/api/internal/services"
	"github.com/stwalsh4118/rentals/api/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env, logger.WithLevel(cfg.Server.LogLevel))
	log.Info("Starting rentals API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	store, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to create object store", err, map[string]interface{}{
			"bucket": cfg.Storage.Bucket,
			"region": cfg.Storage.Region,
		})
	}

	geocoder, err := geocoding.New(cfg.Geocoder)
	if err != nil {
		log.Fatal("Failed to create geocoder", err, map[string]interface{}{
			"provider": cfg.Geocoder.Provider,
		})
	}

	indexer, searchHealth := newIndexer(cfg.Search, log)

	propertyRepo := repository.NewPropertyRepository(db)
	leaseRepo := repository.NewLeaseRepository(db)

	propertyService := services.NewPropertyService(propertyRepo, store, geocoder, indexer, log)
	leaseService := services.NewLeaseService(leaseRepo, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Order matters: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	handlers.RegisterRoutes(router, handlers.Routes{
		Health:     handlers.NewHealthHandler(cfg.Server.Env, db, searchHealth),
		Properties: handlers.NewPropertyHandler(propertyService),
		Leases:     handlers.NewLeaseHandler(leaseService),
		Auth:       middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.RoleClaim),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// newIndexer returns the Meilisearch mirror and its health check when
// configured. A failure to apply index settings is logged and indexing
// continues; the database stays the source of truth.
func newIndexer(cfg config.SearchConfig, log *logger.Logger) (searchindex.Indexer, handlers.Pinger) {
	if !cfg.Enabled() {
		log.Info("Search indexing disabled", nil)
		return searchindex.Noop{}, nil
	}

	idx := searchindex.NewMeilisearch(cfg.Host, cfg.APIKey, cfg.Index)
	if err := idx.EnsureIndex(); err != nil {
		log.Warn("Failed to configure search index", map[string]interface{}{
			"host":  cfg.Host,
			"index": cfg.Index,
			"error": err.Error(),
		})
	} else {
		log.Info("Search index configured", map[string]interface{}{
			"index": cfg.Index,
		})
	}
	return idx, idx
}
