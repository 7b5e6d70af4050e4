package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Skythrill256/yield-ranker-sub001/src/app"
	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/handlers"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/observability"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

var limiter = rate.NewLimiter(rate.Every(50*time.Millisecond), 60)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			utils.SendJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		allowedOrigins[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigins[origin] || allowedOrigins["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, If-None-Match, "+handlers.APIKeyHeader)
				w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID, Content-Disposition")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Yield Ranker backend starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config.Cfg)
	if err != nil {
		logger.L.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	sched := application.Scheduler(ctx)
	if err := sched.RegisterAll(config.Cfg.SyncCron, config.Cfg.MetricsCron); err != nil {
		logger.L.Error("Failed to register scheduled jobs", "error", err)
		os.Exit(1)
	}
	sched.Start()
	if config.Cfg.RunOnStart {
		go sched.RunNow()
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(handlers.MetricsMiddleware)
	r.Use(corsMiddleware(config.Cfg.AllowedOrigins))
	r.Use(rateLimitMiddleware)

	r.Handle("/metrics", observability.Handler())
	handlers.RegisterRoutes(r, handlers.Handlers{
		Fund:    handlers.NewFundHandler(application.Funds, application.Metrics),
		Ranking: handlers.NewRankingHandler(application.Ranking, application.Universe),
		Search:  handlers.NewSearchHandler(application.Search),
		Admin: handlers.NewAdminHandler(application.Ingestion, application.Metrics, application.Ranking,
			application.Funds, config.Cfg.SyncLookbackYears),
	}, config.Cfg.AdminAPIKey)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "not found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Server shutdown failed", "error", err)
	}
	sched.Stop()
	logger.L.Info("Server stopped")
}
