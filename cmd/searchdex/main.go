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

	"github.com/octoseek/searchdex/internal/backend"
	"github.com/octoseek/searchdex/internal/backend/elastic"
	"github.com/octoseek/searchdex/internal/backend/rediscache"
	"github.com/octoseek/searchdex/internal/config"
	domintent "github.com/octoseek/searchdex/internal/domain/intent"
	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/eventsink"
	logpkg "github.com/octoseek/searchdex/internal/logger"
	"github.com/octoseek/searchdex/internal/metrics"
	intentrepo "github.com/octoseek/searchdex/internal/repository/intent"
	searchrepo "github.com/octoseek/searchdex/internal/repository/search"
	chiTransport "github.com/octoseek/searchdex/internal/transport/chi"
	healthuc "github.com/octoseek/searchdex/internal/usecase/health"
	intentuc "github.com/octoseek/searchdex/internal/usecase/intent"
	searchuc "github.com/octoseek/searchdex/internal/usecase/search"
	suggestuc "github.com/octoseek/searchdex/internal/usecase/suggest"
	"github.com/octoseek/searchdex/internal/version"
)

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

	logger.Info("Starting searchdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("tenant", cfg.Tenant.Strategy),
	)

	// Register backend metrics explicitly (no init())
	metrics.RegisterBackendMetrics()

	// Backend gateway
	client, err := elastic.NewClient(elastic.Config{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         time.Duration(cfg.Backend.TimeoutSec) * time.Second,
		ScrollKeepAlive: cfg.Backend.ScrollKeepAlive,
	})
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		logger.Warn("Backend not reachable at startup", zap.Error(err))
	}

	// Optional query response cache
	var gw backend.Gateway = client
	if len(cfg.Cache.Addrs) > 0 {
		cache, err := rediscache.New(client, rediscache.Config{
			Addrs:     cfg.Cache.Addrs,
			Username:  cfg.Cache.Username,
			Password:  cfg.Cache.Password,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create query cache", zap.Error(err))
		}
		defer cache.Close()
		gw = cache
		logger.Info("Query cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Entity type registry
	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		logger.Fatal("Failed to load type registry", zap.Error(err))
	}
	logger.Info("Type registry loaded",
		zap.String("path", cfg.Registry.Path),
		zap.Int("types", reg.TypeCount()),
	)

	// Repositories
	compiler := searchrepo.NewCompiler(reg)
	processor := searchrepo.NewProcessor(cfg.Search.RedactedFields, *cfg.Search.CliffRatio, cfg.Search.BasePath)
	repo := searchrepo.New(gw, reg, compiler, processor)

	// Operation events go to the log, off the request path.
	sink := eventsink.NewLogSink(logger, true)

	// Use case services
	searchSvc := searchuc.New(repo, reg, processor, sink)
	suggestSvc := suggestuc.New(repo, reg, sink, cfg.Search.DeflectionRatio)

	var intentSvc *intentuc.Service
	if strategy := buildStrategy(cfg.Tenant); strategy != nil {
		probeRepo := intentrepo.New(gw)
		intentSvc = intentuc.New(probeRepo, repo, reg, strategy, sink)
	}

	healthSvc := healthuc.New(client, reg)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, suggestSvc, intentSvc, healthSvc, logger)

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

	logger.Info("Server stopped gracefully")
}

// buildStrategy selects the tenant section strategy. Returns nil when the
// tenant has no section cascade.
func buildStrategy(cfg config.TenantConfig) intentuc.Strategy {
	switch cfg.Strategy {
	case "vehicles":
		v := cfg.Vehicles
		return intentuc.NewVehicles(intentuc.VehiclesConfig{
			BrandLevel:    level("brand", v.BrandIndex, v.DocType, v.EntityField),
			ModelLevel:    level("model", v.ModelIndex, v.DocType, v.EntityField),
			VariantLevel:  level("variant", v.VariantIndex, v.DocType, v.EntityField),
			ListingType:   v.ListingType,
			UsedType:      v.UsedType,
			ContentType:   v.ContentType,
			BrandFilter:   v.BrandFilter,
			ModelFilter:   v.ModelFilter,
			VariantFilter: v.VariantFilter,
		})
	default:
		if len(cfg.SectionTypes) == 0 {
			return nil
		}
		return intentuc.Default{SectionTypes: cfg.SectionTypes}
	}
}

func level(name, index, docType, field string) domintent.Level {
	return domintent.Level{Name: name, Index: index, DocType: docType, Field: field, Weight: 1}
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
