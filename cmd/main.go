package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"catalog-service/internal/api"
	"catalog-service/internal/blob"
	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	"catalog-service/internal/logger"
	"catalog-service/internal/profile"
	"catalog-service/internal/store"
)

const defaultAppName = "CatalogService"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Error building logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	zl = zl.With(zap.String("service", defaultAppName))
	zl.Info("Starting service", zap.String("app_env", cfg.AppEnv), zap.String("log_level", cfg.LogLevel))

	ctx := context.Background()

	// --- Database Connection ---
	dbStore, err := store.Open(ctx, cfg.Postgres, zl)
	if err != nil {
		zl.Fatal("Failed to initialize database connection", zap.Error(err))
	}
	if cfg.Postgres.AutoMigrate {
		if err := dbStore.Migrate(ctx); err != nil {
			zl.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// --- Redis (optional) ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zl.Warn("Redis unreachable, seller profiles will not be cached", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			rdb.Close()
			rdb = nil
		}
		cancel()
	}

	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, zl)
	registerHealthCheck(httpRouter, zl, dbStore)

	// --- Blob storage ---
	blobs, err := setupBlobStore(httpRouter, cfg.Blob, zl)
	if err != nil {
		zl.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	// --- Seller profiles ---
	var profiles profile.Client
	if cfg.Profile.BaseURL != "" {
		profiles = profile.NewHTTPClient(cfg.Profile.BaseURL, cfg.Profile.Timeout, zl)
		if rdb != nil {
			profiles = profile.NewCachedClient(profiles, rdb, cfg.Profile.CacheTTL, zl)
		}
	} else {
		zl.Info("PROFILE_SERVICE_URL not set, listings are served without seller info")
	}

	// --- Services & API Handlers ---
	categories := catalog.NewCategoryService(dbStore, dbStore, zl)
	geo := catalog.NewGeoService(dbStore, zl)
	listings := catalog.NewListingService(catalog.ListingDeps{
		Listings:    dbStore,
		Photos:      dbStore,
		Categories:  dbStore,
		Attributes:  dbStore,
		Geo:         dbStore,
		Blobs:       blobs,
		Profiles:    profiles,
		PhotoPolicy: blob.ListingPhotoPolicy,
		Logger:      zl,
	})

	httpAPIHandler := api.NewHTTPHandler(categories, listings, geo, cfg.HttpServer.MaxUploadBytes, zl)
	grpcAPIHandler := api.NewGRPCHandler(categories, listings, zl)
	httpAPIHandler.RegisterRoutes(httpRouter)

	// --- Setup & Start HTTP Server ---
	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		zl.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		zl.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(zl, grpcAPIHandler)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		zl.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GrpcServer.Port), zap.Error(err))
	}

	go func() {
		zl.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			zl.Fatal("gRPC server Serve error", zap.Error(err))
		}
		zl.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(zl, httpServer, grpcServer, dbStore, rdb, shutdownComplete)

	<-shutdownComplete
	zl.Info("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Info("Base HTTP middleware registered")
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("HTTP request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func registerHealthCheck(router *chi.Mux, logger *zap.Logger, dbStore *store.PostgresStore) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := dbStore.Health(ctx); err != nil {
			dbStatus = "unhealthy"
			logger.Warn("Health check DB ping failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
	logger.Info("HTTP health check registered", zap.String("path", healthPath))
}

// setupBlobStore builds the configured driver. The local driver also serves
// its directory at the public prefix.
func setupBlobStore(router *chi.Mux, cfg config.BlobConfig, logger *zap.Logger) (blob.Store, error) {
	switch cfg.Driver {
	case config.BlobDriverCloudinary:
		s, err := blob.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			return nil, err
		}
		logger.Info("Blob storage: cloudinary", zap.String("folder", cfg.CloudinaryFolder))
		return s, nil
	default:
		s, err := blob.NewLocalStore(cfg.LocalDir, cfg.LocalPublicPrefix)
		if err != nil {
			return nil, err
		}
		prefix := strings.TrimRight(cfg.LocalPublicPrefix, "/")
		router.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.Dir()))))
		logger.Info("Blob storage: local", zap.String("dir", s.Dir()), zap.String("prefix", prefix))
		return s, nil
	}
}

func setupGRPCServer(logger *zap.Logger, grpcAPIHandler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer()

	api.RegisterCatalogServiceServer(s, grpcAPIHandler)
	logger.Info("CatalogService gRPC service registered")

	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	logger.Info("gRPC health check service registered")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Info("gRPC reflection service registered")

	return s
}

func waitForShutdown(
	logger *zap.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	dbStore *store.PostgresStore,
	rdb *redis.Client,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Info("Received signal, starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Info("Attempting to gracefully shut down gRPC server")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Info("Attempting to gracefully shut down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("Error closing Redis client", zap.Error(err))
		}
	}
	if err := dbStore.Close(); err != nil {
		logger.Warn("Error closing database connection", zap.Error(err))
	}

	logger.Info("Graceful shutdown sequence completed")
}
