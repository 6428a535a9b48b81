package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/goalfolio/goalfolio/pkg/config"
	"github.com/goalfolio/goalfolio/pkg/intent"
	"github.com/goalfolio/goalfolio/pkg/logger"
	"github.com/goalfolio/goalfolio/pkg/metrics"
	"github.com/goalfolio/goalfolio/pkg/quotes"
	"github.com/goalfolio/goalfolio/pkg/redisclient"
	"github.com/goalfolio/goalfolio/pkg/universe"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting goalfolio API server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	// Goal universe: loaded once, immutable for the process lifetime
	uni, err := universe.Load(cfg.UniversePath)
	if err != nil {
		log.Fatal("failed to load universe", zap.Error(err), zap.String("path", cfg.UniversePath))
	}
	log.Info("universe loaded", zap.Int("goals", len(uni.Goals())))

	classifier, err := intent.New(uni.Goals(), uni.Note)
	if err != nil {
		log.Fatal("failed to build intent index", zap.Error(err))
	}
	defer classifier.Close()

	provider, redisClient, err := buildProvider(cfg)
	if err != nil {
		log.Fatal("failed to build quote provider", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	enricher := quotes.NewEnricher(provider, cfg.Provider.FetchTimeout, cfg.Provider.MaxConcurrency)

	srv := &server{
		universe:   uni,
		enricher:   enricher,
		classifier: classifier,
		redis:      redisClient,
		maxSymbols: cfg.MaxSymbols,
	}

	router := mux.NewRouter()
	router.Use(recoverMiddleware)
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	router.Use(metricsMiddleware)

	router.HandleFunc("/health", srv.healthHandler).Methods("GET")
	router.HandleFunc("/ready", srv.readyHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler())

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/goals", srv.getGoalsHandler).Methods("GET")
	apiRouter.HandleFunc("/recommend", srv.recommendHandler).Methods("POST")
	apiRouter.HandleFunc("/recommend/smart", srv.smartRecommendHandler).Methods("POST")
	apiRouter.HandleFunc("/quotes", srv.getQuotesHandler).Methods("GET")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// buildProvider assembles the configured provider with its rate-limit and
// cache decorators. The cache is Redis-backed when REDIS_URL is set,
// in-process otherwise.
func buildProvider(cfg *config.Config) (quotes.Provider, *redisclient.Client, error) {
	var p quotes.Provider
	switch cfg.Provider.Kind {
	case config.ProviderKindQuote:
		p = quotes.NewFinanceGo()
	default:
		p = quotes.NewYahooChart(cfg.Provider.BaseURL, cfg.Provider.FetchTimeout)
	}

	if cfg.Provider.MaxPerMinute > 0 {
		rate := float64(cfg.Provider.MaxPerMinute) / 60.0
		p = &quotes.RateLimitedProvider{P: p, TB: quotes.NewTokenBucket(rate, cfg.Provider.Burst)}
	}

	if cfg.Provider.CacheTTL <= 0 {
		return p, nil, nil
	}
	if cfg.RedisURL != "" {
		rc, err := redisclient.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis client: %w", err)
		}
		return &quotes.RedisCachedProvider{P: p, Client: rc, TTL: cfg.Provider.CacheTTL}, rc, nil
	}
	return &quotes.CachedProvider{P: p, TTL: cfg.Provider.CacheTTL, MaxItems: 10000}, nil, nil
}
