package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
)

// Deps are the services the jobs drive.
type Deps struct {
	Universe  *config.Universe
	Ingestion services.IngestionService
	Metrics   services.MetricsService
	Ranking   services.RankingService
	Funds     services.FundService
	Search    *services.SearchService
	// LookbackYears bounds how much price history a sync requests.
	LookbackYears int
}

// Scheduler manages the cron jobs that keep market data and metrics fresh.
type Scheduler struct {
	Cron *cron.Cron
	deps Deps
	ctx  context.Context
	// runMu serializes scheduled and manual runs.
	runMu sync.Mutex
	now   func() time.Time
}

// NewScheduler creates a Scheduler. ctx is handed to every job run.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.L.Handler(), slog.LevelInfo))
	if deps.LookbackYears < 1 {
		deps.LookbackYears = 4
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		deps: deps,
		ctx:  ctx,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RegisterAll registers the sync and metrics jobs.
func (s *Scheduler) RegisterAll(syncCron, metricsCron string) error {
	if _, err := s.Cron.AddFunc(syncCron, s.syncTask); err != nil {
		return fmt.Errorf("register sync task: %w", err)
	}
	if _, err := s.Cron.AddFunc(metricsCron, s.metricsTask); err != nil {
		return fmt.Errorf("register metrics task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.L.Info("Scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.L.Info("Scheduler stopped")
}

// RunNow runs a full sync followed by a metrics recompute (RUN_ON_START and
// the CLI).
func (s *Scheduler) RunNow() {
	s.syncTask()
	s.metricsTask()
}

func (s *Scheduler) syncTask() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx := logger.ToContext(s.ctx, logger.L.With("job", "sync"))
	targets := services.TargetsFromUniverse(s.deps.Universe)
	if len(targets) == 0 {
		logger.FromContext(ctx).Warn("No tickers configured, skipping sync")
		return
	}
	from := s.now().AddDate(-s.deps.LookbackYears, 0, 0)
	summary := s.deps.Ingestion.SyncAll(ctx, targets, from)
	if summary.Failed > 0 {
		logger.FromContext(ctx).Warn("Sync finished with failures", "failed", summary.Failed, "succeeded", summary.Succeeded)
	}
	s.refreshViews(ctx)
}

func (s *Scheduler) metricsTask() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx := logger.ToContext(s.ctx, logger.L.With("job", "metrics"))
	if _, err := s.deps.Metrics.RecomputeAll(ctx); err != nil {
		logger.FromContext(ctx).Error("Metrics recompute aborted", "error", err)
		return
	}
	if err := s.deps.Ranking.PersistDefaultRanks(ctx); err != nil {
		logger.FromContext(ctx).Error("Persisting default ranks failed", "error", err)
	}
	s.refreshViews(ctx)
}

// refreshViews drops the cached fund list and rebuilds the search index from it.
func (s *Scheduler) refreshViews(ctx context.Context) {
	s.deps.Funds.ClearCache()
	if s.deps.Search == nil {
		return
	}
	funds, err := s.deps.Funds.List(ctx, "")
	if err != nil {
		logger.FromContext(ctx).Error("Could not list funds for search index", "error", err)
		return
	}
	if err := s.deps.Search.Rebuild(ctx, funds); err != nil {
		logger.FromContext(ctx).Error("Search index rebuild failed", "error", err)
	}
}
