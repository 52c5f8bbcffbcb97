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

	"github.com/kailas-cloud/vecvstext/internal/config"
	"github.com/kailas-cloud/vecvstext/internal/db"
	dbBadger "github.com/kailas-cloud/vecvstext/internal/db/badger"
	dbRedis "github.com/kailas-cloud/vecvstext/internal/db/redis"
	logpkg "github.com/kailas-cloud/vecvstext/internal/logger"
	"github.com/kailas-cloud/vecvstext/internal/metrics"
	"github.com/kailas-cloud/vecvstext/internal/observability"
	"github.com/kailas-cloud/vecvstext/internal/repository/cache"
	"github.com/kailas-cloud/vecvstext/internal/transport/booksapi"
	chiTransport "github.com/kailas-cloud/vecvstext/internal/transport/chi"
	healthuc "github.com/kailas-cloud/vecvstext/internal/usecase/health"
	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	searchuc "github.com/kailas-cloud/vecvstext/internal/usecase/search"
	"github.com/kailas-cloud/vecvstext/internal/usecase/session"
	"github.com/kailas-cloud/vecvstext/internal/usecase/wordmatch"
	"github.com/kailas-cloud/vecvstext/internal/version"
)

const evictInterval = time.Minute

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecvstext API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("candidate_source", cfg.Projection.CandidateSource),
	)

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "vecvstext",
		ServiceVersion: version.Version,
		Environment:    env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Fatal("Failed to init tracing", zap.Error(err))
	}

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	books, err := booksapi.New(booksapi.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		Timeout:    cfg.Upstream.Timeout(),
		HealthPath: cfg.Upstream.HealthPath,
		Logger:     logger.Named("booksapi"),
	})
	if err != nil {
		logger.Fatal("Failed to create books API client", zap.Error(err))
	}

	store, err := openStore(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to open cache store", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// Build fetcher chain: books API -> cache (when configured)
	var wordsFetcher wordmatch.WordsFetcher = books
	var embeddingsFetcher projection.EmbeddingsFetcher = books
	var cachePinger healthuc.Pinger
	if store != nil {
		wordsFetcher = cache.NewWords(books, store, cfg.Cache.KeyPrefix,
			time.Duration(cfg.Cache.WordTTLSec)*time.Second, metrics.CacheTotal, logger)
		embeddingsFetcher = cache.NewEmbeddings(books, store, cfg.Cache.KeyPrefix,
			time.Duration(cfg.Cache.EmbeddingTTLSec)*time.Second, metrics.CacheTotal, logger)
		cachePinger = store
	}

	source, err := searchuc.ParseSource(cfg.Projection.CandidateSource)
	if err != nil {
		logger.Fatal("Invalid candidate source", zap.Error(err))
	}

	projector := projection.New(embeddingsFetcher, logger.Named("projection")).
		WithQueryAnchor(cfg.Projection.QueryAnchor())
	registry := session.NewRegistry(session.Deps{
		Retriever: books,
		Projector: projector,
		Words:     wordmatch.New(wordsFetcher),
		Source:    source,
		Logger:    logger.Named("session"),
	}, cfg.Sessions.Max, time.Duration(cfg.Sessions.IdleTTLSec)*time.Second)

	evictCtx, stopEvict := context.WithCancel(ctx)
	go registry.Run(evictCtx, evictInterval)

	healthSvc := healthuc.New(books, cachePinger)
	server := chiTransport.NewServer(registry, books, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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
	stopEvict()
	registry.Close()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore opens the configured cache backend. It returns nil when caching is off.
func openStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.CacheRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			LocalTTL: time.Duration(cfg.LocalTTLSec) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to redis cache", zap.Strings("addrs", cfg.Addrs))
		return store, nil
	case config.CacheBadger:
		store, err := dbBadger.Open(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("badger: %w", err)
		}
		logger.Info("Opened badger cache", zap.String("path", cfg.Path))
		return store, nil
	default:
		return nil, nil
	}
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
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
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(
				zap.String("request_id", requestID),
				zap.String("session_id", r.Header.Get(chiTransport.SessionHeader)),
			)
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
