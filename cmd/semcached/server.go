package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/semcache/api/handlers"
	"github.com/BaSui01/semcache/cache"
	"github.com/BaSui01/semcache/config"
	"github.com/BaSui01/semcache/embedding"
	"github.com/BaSui01/semcache/internal/metrics"
	"github.com/BaSui01/semcache/internal/server"
	"github.com/BaSui01/semcache/internal/telemetry"
	"github.com/BaSui01/semcache/store"
)

// =============================================================================
// 🖥️ Server wiring
// =============================================================================

// Server assembles the daemon: store, embedding provider, cache service,
// handlers, and the two HTTP listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	healthHandler *handlers.HealthHandler
	cacheHandler  *handlers.CacheHandler

	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	kvStore      store.KVStore
	cacheService *cache.Service

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server from loaded configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// Start wires up all components and starts both listeners.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("semcache", prometheus.DefaultRegisterer, s.logger)

	if err := s.initCacheService(); err != nil {
		return fmt.Errorf("failed to init cache service: %w", err)
	}
	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)

	return nil
}

// =============================================================================
// 🔧 Initialization
// =============================================================================

// initCacheService builds the store, the embedding provider, and the cache
// facade. An unreachable Redis is not fatal: the cache serves misses until
// connectivity returns.
func (s *Server) initCacheService() error {
	kv, err := store.NewRedisStore(s.cfg.Redis, s.cfg.Cache.TTL, s.logger)
	if err != nil {
		s.logger.Warn("Redis unreachable at startup, serving misses until it recovers",
			zap.String("addr", s.cfg.Redis.Addr),
			zap.Error(err),
		)
		s.kvStore = store.OpenRedisStore(s.cfg.Redis, s.cfg.Cache.TTL, s.logger)
	} else {
		s.kvStore = kv
	}

	var provider embedding.Provider
	if s.cfg.Embedding.APIKey != "" {
		switch s.cfg.Embedding.Provider {
		case "", "openai":
			provider = embedding.NewOpenAIProvider(s.cfg.Embedding)
			s.logger.Info("Embedding provider initialized",
				zap.String("provider", "openai"),
				zap.String("model", s.cfg.Embedding.Model),
			)
		default:
			s.logger.Warn("Unknown embedding provider, semantic matching disabled",
				zap.String("provider", s.cfg.Embedding.Provider),
			)
		}
	} else {
		s.logger.Info("Embedding API key not configured, exact-match only")
	}

	svc, err := cache.NewService(cache.Options{
		Store:     s.kvStore,
		Provider:  provider,
		KeyPrefix: s.cfg.Redis.KeyPrefix,
		Config:    s.cfg.Cache,
		Logger:    s.logger,
		Metrics:   s.metricsCollector,
	})
	if err != nil {
		return err
	}
	s.cacheService = svc
	return nil
}

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("redis", s.kvStore.Ping))

	s.cacheHandler = handlers.NewCacheHandler(s.cacheService, s.logger)

	s.logger.Info("Handlers initialized")
}

// =============================================================================
// 🌐 HTTP server
// =============================================================================

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/api/v1/cache/lookup", s.cacheHandler.HandleLookup)
	mux.HandleFunc("/api/v1/cache/store", s.cacheHandler.HandleStore)
	mux.HandleFunc("/api/v1/cache/clear", s.cacheHandler.HandleClear)
	mux.HandleFunc("/api/v1/cache/stats", s.cacheHandler.HandleStats)

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics server
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 Shutdown
// =============================================================================

// WaitForShutdown blocks until a signal arrives, then shuts everything down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the listeners, the store, and telemetry in order.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.kvStore != nil {
		if err := s.kvStore.Close(); err != nil {
			s.logger.Error("Store close error", zap.Error(err))
		}
	}

	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
