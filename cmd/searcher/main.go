package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus_source", cfg.Corpus.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := loader.LoadEngine(ctx, cfg)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	if cfg.Tracing.Enabled {
		engine.BuildSpan().Log(slog.Default())
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		summary := engine.Summary()
		m.DocsIndexed.Set(float64(summary.NumDocuments))
		m.IndexTerms.Set(float64(summary.NumTerms))
		m.IndexBuildDuration.Set(engine.BuildDuration().Seconds())
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, generation %s", engine.Stats().NumDocuments, engine.Generation()),
		}
	})

	queryCache, closeCache := setupCache(ctx, cfg, checker, m)
	defer closeCache()

	var tracker analytics.Tracker
	var analyticsH *analytics.Handler
	if cfg.Analytics.Enabled {
		aggregator := analytics.NewAggregator()
		var publisher analytics.Publisher
		if cfg.Analytics.PublishKafka {
			producer := kafka.NewProducer(cfg.Kafka)
			defer producer.Close()
			slog.Info("publishing analytics to kafka", "topic", producer.Topic(), "brokers", cfg.Kafka.Brokers)
			publisher = producer
		}
		collector := analytics.NewCollector(aggregator, publisher,
			cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		collector.Start(ctx)
		defer collector.Close()
		summary := engine.Summary()
		collector.Track(analytics.IndexBuildEvent{
			Type:        analytics.EventIndexBuild,
			Generation:  summary.Generation,
			Documents:   summary.NumDocuments,
			Terms:       summary.NumTerms,
			TotalTokens: summary.TotalTokens,
			BuildMs:     summary.BuildMs,
			Timestamp:   summary.BuiltAt,
		})
		tracker = collector
		analyticsH = analytics.NewHandler(aggregator)
	}

	bm25 := cfg.Search.BM25
	exec := executor.New(engine, ranker.Params{K1: bm25.K1, B: bm25.B})
	h := handler.New(exec, queryCache, tracker, m, cfg.Search)

	mux := http.NewServeMux()
	h.Register(mux)
	if analyticsH != nil {
		analyticsH.Register(mux)
	}
	checker.Mount(mux)

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	if cfg.Server.RateLimit > 0 {
		chain = middleware.RateLimit(middleware.NewRateLimiter(ctx, cfg.Server.RateLimit, cfg.Server.RateWindow))(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}

// setupCache builds the configured result cache. An unreachable Redis
// disables caching rather than failing startup.
func setupCache(ctx context.Context, cfg *config.Config, checker *health.Checker, m *metrics.Metrics) (*cache.QueryCache, func()) {
	noop := func() {}
	switch cfg.Cache.Backend {
	case "lru", "":
		slog.Info("search cache enabled", "backend", "lru", "size", cfg.Cache.Size, "ttl", cfg.Cache.TTL)
		return cache.New(cache.NewLRUStore(cfg.Cache.Size, cfg.Cache.TTL), cfg.Cache.TTL), noop
	case "redis":
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			return nil, noop
		}
		store := cache.NewRedisStore(client)
		checker.Register("redis", health.PingCheck(client.Ping, true))
		if m != nil {
			go reportBreaker(ctx, store, m)
		}
		slog.Info("search cache enabled", "backend", "redis", "addr", cfg.Redis.Addr, "ttl", cfg.Cache.TTL)
		return cache.New(store, cfg.Cache.TTL), func() { client.Close() }
	default:
		slog.Info("search cache disabled")
		return nil, noop
	}
}

func reportBreaker(ctx context.Context, store *cache.RedisStore, m *metrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CircuitBreakerState.WithLabelValues(store.BreakerName()).Set(float64(store.State()))
		case <-ctx.Done():
			return
		}
	}
}
