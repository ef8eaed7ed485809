//	@title			Media Catalog API
//	@version		1.0
//	@description	Tweets and videos with owner-joined views and publish toggling.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/mediahub/catalog/internal/aggregation"
	"github.com/mediahub/catalog/internal/bootstrap"
	"github.com/mediahub/catalog/internal/config"
	"github.com/mediahub/catalog/internal/media"
	"github.com/mediahub/catalog/internal/metrics"
	appMiddleware "github.com/mediahub/catalog/internal/middleware"
	"github.com/mediahub/catalog/internal/publication"
	"github.com/mediahub/catalog/internal/storage"
	"github.com/mediahub/catalog/internal/tweet"
	"github.com/mediahub/catalog/internal/upload"
	"github.com/mediahub/catalog/internal/user"
	"github.com/mediahub/catalog/internal/video"

	_ "github.com/mediahub/catalog/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()

	st, err := bootstrap.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("document store init failed", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	objects, err := bootstrap.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("object storage init failed", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	var prober media.Prober
	if cfg.Upload.ProbeVideos {
		prober = &media.LocalProber{Bin: cfg.Upload.FFprobePath}
	}
	m := metrics.Default()

	// Wire dependencies: store → services → handlers
	gateway := storage.NewGateway(objects, prober, m, logger)
	pubSvc := publication.NewService(st, gateway, m, logger)
	aggSvc := aggregation.NewService(st, logger)

	stager := &upload.Stager{Dir: cfg.Upload.StagingDir, MaxBytes: cfg.Upload.MaxBytes}
	tweetHandler := tweet.NewHandler(pubSvc, aggSvc)
	videoHandler := video.NewHandler(pubSvc, aggSvc, stager, logger)
	userHandler := user.NewHandler(aggSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1, every route needs a bearer token
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
		r.Route("/tweets", tweetHandler.Register)
		r.Route("/videos", videoHandler.Register)
		r.Route("/users", userHandler.Register)
	})

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if cfg.Sweep.Enabled {
		sweeper := storage.NewSweeper(objects, st, cfg.Sweep.Grace, m, logger)
		if _, err := sweeper.Schedule(sched, cfg.Sweep.Schedule, cfg.Sweep.Timeout); err != nil {
			logger.Error("invalid sweep schedule", "schedule", cfg.Sweep.Schedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
		logger.Info("provisional object sweeper scheduled", "schedule", cfg.Sweep.Schedule, "grace", cfg.Sweep.Grace)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Minute, // video uploads stream through the handler
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		logger.Info("swagger UI available", "url", "http://localhost:"+cfg.Port+"/swagger/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	<-sched.Stop().Done()
	if err := st.Close(shutdownCtx); err != nil {
		logger.Error("closing document store", "error", err)
	}

	logger.Info("server stopped")
}
