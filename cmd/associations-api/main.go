package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/config"
	"github.com/bhalbert/rest-api/internal/db"
	"github.com/bhalbert/rest-api/internal/db/es"
	dbMemory "github.com/bhalbert/rest-api/internal/db/memory"
	dbRedis "github.com/bhalbert/rest-api/internal/db/redis"
	"github.com/bhalbert/rest-api/internal/domain"
	logpkg "github.com/bhalbert/rest-api/internal/logger"
	"github.com/bhalbert/rest-api/internal/metrics"
	"github.com/bhalbert/rest-api/internal/repository/lookup"
	"github.com/bhalbert/rest-api/internal/repository/rescache"
	chiTransport "github.com/bhalbert/rest-api/internal/transport/chi"
	associationuc "github.com/bhalbert/rest-api/internal/usecase/association"
	evidenceuc "github.com/bhalbert/rest-api/internal/usecase/evidence"
	"github.com/bhalbert/rest-api/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting associations API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("es_base_url", cfg.Elasticsearch.BaseURL),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("cache_version", cfg.Cache.Version),
	)

	// Create result cache store based on backend
	var store db.Store
	switch cfg.Cache.Backend {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
	case "memory":
		store, err = dbMemory.NewStore(cfg.Cache.Capacity)
	default:
		logger.Fatal("Unknown cache backend", zap.String("backend", cfg.Cache.Backend))
	}
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	esClient, err := es.NewClient(es.Config{
		BaseURL:  cfg.Elasticsearch.BaseURL,
		Username: cfg.Elasticsearch.Username,
		Password: cfg.Elasticsearch.Password,
		Timeout:  time.Duration(cfg.Elasticsearch.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create search client", zap.Error(err))
	}

	// Every search runs through the result cache keyed by data release.
	cache := rescache.New(store, cfg.Cache.Version, logger)
	searcher := rescache.NewCachedSearcher(esClient, cache)

	lookups := lookup.New(searcher, lookup.Indexes{
		Gene:     cfg.Elasticsearch.Indexes.Gene,
		Efo:      cfg.Elasticsearch.Indexes.Efo,
		Reactome: cfg.Elasticsearch.Indexes.Reactome,
	}, logger)

	registry := domain.NewDataTypeRegistry(cfg.Datatypes)

	assocSvc := associationuc.New(searcher, lookups, lookups, lookups,
		registry, cfg.Elasticsearch.Indexes.Association, logger)
	evidenceSvc := evidenceuc.New(searcher, lookups, registry,
		cfg.Elasticsearch.Indexes.Evidence, logger)

	server := chiTransport.NewServer(assocSvc, evidenceSvc,
		associationuc.StatsIndexes{
			Association: cfg.Elasticsearch.Indexes.Association,
			Evidence:    cfg.Elasticsearch.Indexes.Evidence,
		},
		store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
