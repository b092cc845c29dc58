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

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/config"
	dbRedis "github.com/alejandrooalejo/trendcast-studio-sub000/internal/db/redis"
	logpkg "github.com/alejandrooalejo/trendcast-studio-sub000/internal/logger"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/metrics"
	embeddingrepo "github.com/alejandrooalejo/trendcast-studio-sub000/internal/repository/embedding"
	productrepo "github.com/alejandrooalejo/trendcast-studio-sub000/internal/repository/product"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/transport/httpapi"
	openaiTransport "github.com/alejandrooalejo/trendcast-studio-sub000/internal/transport/openai"
	embeddinguc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/embedding"
	healthuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/health"
	productuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/product"
	scoreuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/score"
	similarityuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/similarity"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/version"
)

func main() {
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

	logger.Info("Starting trendcast API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.Register()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Provider.Name,
		Logger:     logger,
	})
	extractor := openaiTransport.NewExtractor(&openaiTransport.ExtractorConfig{
		APIKey:    cfg.Provider.APIKey,
		BaseURL:   cfg.Provider.BaseURL,
		Model:     cfg.Vision.Model,
		MaxTokens: cfg.Vision.MaxTokens,
		Provider:  cfg.Provider.Name,
		Logger:    logger,
	})
	logger.Info("Provider clients created",
		zap.String("provider", cfg.Provider.Name),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("vision_model", cfg.Vision.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	embRepo := embeddingrepo.New(store, cfg.Embedding.Dimensions)
	prodRepo := productrepo.New(store)

	embSvc := embeddinguc.New(embRepo, embedder, metrics.EmbeddingCacheTotal, logger).
		WithTimeout(time.Duration(cfg.Embedding.TimeoutSec) * time.Second)
	if cfg.Embedding.AllowDegraded {
		embSvc = embSvc.WithDegradedFallback()
	}
	scoreSvc := scoreuc.New(extractor, logger).
		WithTimeout(time.Duration(cfg.Vision.TimeoutSec) * time.Second)
	simSvc := similarityuc.New(prodRepo, embSvc, logger).
		WithPageSize(cfg.Search.CandidatePageSize).
		WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	prodSvc := productuc.New(prodRepo, embSvc, logger)
	healthSvc := healthuc.New(store, embedder)

	server := httpapi.NewServer(scoreSvc, embSvc, simSvc, prodSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain
// text stacktrace.
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

// wideEventMiddleware emits a canonical log line per request and propagates
// X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
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
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
