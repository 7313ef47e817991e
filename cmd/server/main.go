// Package main runs the volunteer matching HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/volunteer-connect/backend/config"
	"github.com/volunteer-connect/backend/internal/auth"
	"github.com/volunteer-connect/backend/internal/dashboard"
	"github.com/volunteer-connect/backend/internal/events"
	"github.com/volunteer-connect/backend/internal/metrics"
	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/internal/organisations"
	"github.com/volunteer-connect/backend/internal/posters"
	"github.com/volunteer-connect/backend/internal/signups"
	"github.com/volunteer-connect/backend/internal/volunteers"
	"github.com/volunteer-connect/backend/pkg/database"
	"github.com/volunteer-connect/backend/pkg/queue"
	"github.com/volunteer-connect/backend/pkg/redis"
	"github.com/volunteer-connect/backend/pkg/response"
	"github.com/volunteer-connect/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var posterStore posters.Storage
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			PostersBucket:        cfg.AWS.PostersBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("S3 client init failed, poster uploads disabled", zap.Error(err))
		} else {
			posterStore = s3Client
		}
	}

	collector := metrics.NewCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	jobQueue := queue.NewQueue(rdb, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	denylist := auth.NewDenylist(rdb)

	eventRepo := events.NewRepository(pool)
	authHandler := auth.NewHandler(auth.NewService(auth.NewRepository(pool), jwtService, denylist, logger), logger)
	eventHandler := events.NewHandler(events.NewService(eventRepo, jobQueue, logger), logger)
	signupHandler := signups.NewHandler(signups.NewService(signups.NewRepository(pool), collector, logger), logger)
	dashboardHandler := dashboard.NewHandler(dashboard.NewService(dashboard.NewRepository(pool)), logger)
	orgHandler := organisations.NewHandler(organisations.NewService(organisations.NewRepository(pool), logger), logger)
	volunteerHandler := volunteers.NewHandler(volunteers.NewService(volunteers.NewRepository(pool)), logger)
	posterHandler := posters.NewHandler(posterStore, logger)

	requireJWT := middleware.JWT(jwtService, denylist, logger)
	organiserOnly := middleware.RequireRole(models.RoleOrganiser)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Logger(logger))

	router.GET("/health", healthHandler(pool, rdb))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register-volunteer", authHandler.RegisterVolunteer)
		authGroup.POST("/register-organisation", authHandler.RegisterOrganisation)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", requireJWT, authHandler.Logout)
	}

	eventGroup := api.Group("/events")
	{
		eventGroup.GET("", eventHandler.List)
		eventGroup.GET("/mine", requireJWT, eventHandler.Mine)
		eventGroup.GET("/:id", middleware.OptionalJWT(jwtService, denylist), eventHandler.Get)
		eventGroup.POST("", requireJWT, eventHandler.Create)
		eventGroup.PUT("/:id", requireJWT, eventHandler.Update)
		eventGroup.DELETE("/:id", requireJWT, eventHandler.Delete)
		eventGroup.POST("/:id/apply", requireJWT, signupHandler.Apply)
		eventGroup.GET("/:id/signups", requireJWT, signupHandler.ListForEvent)
		eventGroup.POST("/poster-upload-url", requireJWT, organiserOnly, posterHandler.UploadURL)
		eventGroup.POST("/poster", requireJWT, organiserOnly, posterHandler.Upload)
	}

	volunteerGroup := api.Group("/volunteers", requireJWT)
	{
		volunteerGroup.GET("/me", volunteerHandler.Get)
		volunteerGroup.PUT("/me", volunteerHandler.Update)
		volunteerGroup.GET("/my-events", signupHandler.ListMine)
		volunteerGroup.DELETE("/signups/:id", signupHandler.Cancel)
	}

	organiserGroup := api.Group("/organiser", requireJWT)
	{
		organiserGroup.POST("/profile", orgHandler.Create)
		organiserGroup.GET("/profile", orgHandler.Get)
		organiserGroup.GET("/stats", dashboardHandler.Stats)
		organiserGroup.PATCH("/signups/:id/status", signupHandler.UpdateStatus)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func healthHandler(pool *pgxpool.Pool, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		healthy := true
		if err := pool.Ping(ctx); err != nil {
			status["database"] = err.Error()
			healthy = false
		}
		if err := rdb.Check(ctx); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
		if !healthy {
			status["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response.Body{Success: false, Data: status, Error: "dependency unavailable"})
			return
		}
		response.OK(c, status)
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
