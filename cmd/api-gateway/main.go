package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/campus-timetable-api/api/swagger"
	"github.com/noah-isme/campus-timetable-api/internal/client"
	"github.com/noah-isme/campus-timetable-api/internal/handler"
	"github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
)

// @title Campus Timetable API
// @version 0.1.0
// @description Timetable allocation engine with a live weekly overlay
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs the render cache and notifications; the service
		// stays up without it.
		logr.Sugar().Warnw("redis unavailable, overlay cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	catalogRepo := repository.NewCatalogRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	makeupRepo := repository.NewMakeupRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	optimizerClient := client.NewOptimizerClient(cfg.Optimizer.Endpoints, cfg.Optimizer.Timeout, logr)

	allocationSvc := service.NewAllocationService(
		catalogRepo, scheduleRepo, allocationRepo, optimizerClient, db, metricsSvc,
		nil, logr, cfg.Optimizer.Enabled, cfg.Annealing, cfg.Fallback,
	)
	overlaySvc := service.NewOverlayService(
		scheduleRepo, allocationRepo, overrideRepo, absenceRepo, makeupRepo, cacheRepo, metricsSvc,
		nil, logr, cfg.Overlay,
	)

	allocationHandler := handler.NewAllocationHandler(allocationSvc)
	scheduleHandler := handler.NewScheduleHandler(allocationSvc)
	overlayHandler := handler.NewOverlayHandler(overlaySvc, catalogRepo)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/allocations/plan", allocationHandler.Plan)
		api.POST("/allocations/anneal", allocationHandler.Anneal)

		api.GET("/schedules", scheduleHandler.List)
		api.GET("/schedules/:id", scheduleHandler.Get)
		api.POST("/schedules/:id/lock", scheduleHandler.Lock)
		api.POST("/schedules/:id/current", scheduleHandler.SetCurrent)

		api.GET("/schedules/:id/weeks/:week", overlayHandler.RenderWeek)
		api.GET("/schedules/:id/weeks/:week/ical", overlayHandler.ExportWeek)
		api.GET("/schedules/:id/weeks/:week/availability", overlayHandler.Availability)
		api.DELETE("/schedules/:id/weeks/:week/overrides", overlayHandler.ResetWeek)
		api.PUT("/schedules/:id/overrides", overlayHandler.UpsertOverride)

		api.POST("/absences", overlayHandler.MarkAbsence)
		api.PATCH("/absences/:id", overlayHandler.ReviewAbsence)
		api.POST("/makeup-requests", overlayHandler.RequestMakeup)
		api.PATCH("/makeup-requests/:id", overlayHandler.ReviewMakeup)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
