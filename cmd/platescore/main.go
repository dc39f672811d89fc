package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/platescore/internal/catalog"
	"github.com/dukerupert/platescore/internal/config"
	"github.com/dukerupert/platescore/internal/curation"
	"github.com/dukerupert/platescore/internal/database"
	"github.com/dukerupert/platescore/internal/food"
	"github.com/dukerupert/platescore/internal/logging"
	"github.com/dukerupert/platescore/internal/scoring"
	"github.com/dukerupert/platescore/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	policy := scoring.DefaultPolicy()
	if cfg.ScoringPolicy != "" {
		policy, err = scoring.LoadPolicy(cfg.ScoringPolicy)
		if err != nil {
			slog.Error("failed to load scoring policy", "path", cfg.ScoringPolicy, "error", err)
			os.Exit(1)
		}
	}
	scorer, err := scoring.New(policy)
	if err != nil {
		slog.Error("invalid scoring policy", "error", err)
		os.Exit(1)
	}

	curated, err := curation.Load(cfg.CurationFile)
	if err != nil {
		slog.Error("failed to load curation data", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalogCfg := cfg.Catalog
	catalogCfg.RegionalCountry = curated.Region
	var cat catalog.Catalog = catalog.NewOpenFoodFacts(catalogCfg, logger.With("component", "catalog"))
	if cfg.CatalogCacheTTL > 0 {
		cat = catalog.NewCached(cat, cfg.CatalogCacheTTL, logger.With("component", "catalog_cache"))
	}
	svc := food.NewService(cat, scorer, curated, logger.With("component", "food"))

	srv := server.New(db, svc, server.Config{SearchRateLimit: cfg.SearchRateLimit}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Catalog calls can take up to the catalog timeout for each of the
		// regional and global databases.
		WriteTimeout: 2*cfg.Catalog.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
				slog.Debug("rate limiter cleanup", "keys", srv.RateLimiter().Len())
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("platescore starting",
			"addr", ":"+cfg.Port,
			"db", cfg.DBPath,
			"region", curated.Region,
			"catalog", catalogCfg.RegionalURL,
			"catalog_cache_ttl", cfg.CatalogCacheTTL,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
