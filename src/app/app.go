// Package app wires configuration, persistence and services together for
// the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/database"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/scheduler"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
)

// App holds the constructed service graph.
type App struct {
	Config    *config.AppConfig
	Universe  *config.Universe
	Store     model.Store
	Ingestion services.IngestionService
	Metrics   services.MetricsService
	Ranking   services.RankingService
	Funds     services.FundService
	Search    *services.SearchService

	pool *database.Pool
}

// New opens the store selected by cfg, applies migrations, seeds curated
// rows from the universe and builds every service.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	universe, err := config.LoadUniverse(cfg.UniversePath)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Universe: universe}
	if cfg.UseMemoryStore {
		logger.L.Info("Using in-memory store")
		a.Store = model.NewMemStore()
	} else {
		pool, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.Store = model.NewPgStore(pool)
	}

	tiingo := services.NewTiingoClient(services.ProviderConfig{
		BaseURL: cfg.TiingoBaseURL,
		APIKey:  cfg.TiingoAPIKey,
		Timeout: cfg.ProviderTimeout,
	})
	alphaVantage := services.NewAlphaVantageClient(services.ProviderConfig{
		BaseURL: cfg.AlphaVantageURL,
		APIKey:  cfg.AlphaVantageAPIKey,
		Timeout: cfg.ProviderTimeout,
	})
	if cfg.TiingoAPIKey == "" {
		logger.L.Warn("TIINGO_API_KEY is not set; syncs will fail until it is configured")
	}

	a.Ingestion = services.NewIngestionService(a.Store, tiingo, alphaVantage, cfg.SyncConcurrency)
	a.Metrics = services.NewMetricsService(a.Store, cfg.MetricsStaleAfter)
	a.Funds = services.NewFundService(a.Store, a.Metrics, cache.New(cfg.CacheTTL, 2*cfg.CacheTTL))
	a.Ranking = services.NewRankingService(a.Funds, a.Store, universe)
	a.Search = services.NewSearchService()

	if _, err := a.Ingestion.SeedUniverse(ctx, services.ManualFundsFromUniverse(universe)); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed universe: %w", err)
	}
	if err := a.RebuildSearch(ctx); err != nil {
		logger.L.Warn("Initial search index build failed", "error", err)
	}
	return a, nil
}

// Scheduler builds the cron scheduler over the app's services.
func (a *App) Scheduler(ctx context.Context) *scheduler.Scheduler {
	return scheduler.NewScheduler(ctx, scheduler.Deps{
		Universe:      a.Universe,
		Ingestion:     a.Ingestion,
		Metrics:       a.Metrics,
		Ranking:       a.Ranking,
		Funds:         a.Funds,
		Search:        a.Search,
		LookbackYears: a.Config.SyncLookbackYears,
	})
}

// RebuildSearch reindexes the current fund list.
func (a *App) RebuildSearch(ctx context.Context) error {
	funds, err := a.Funds.List(ctx, "")
	if err != nil {
		return err
	}
	return a.Search.Rebuild(ctx, funds)
}

// Close releases the search index and the database pool.
func (a *App) Close() {
	if a.Search != nil {
		_ = a.Search.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
