package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noel-arch/mentor-match-api/api/swagger"
	"github.com/noel-arch/mentor-match-api/internal/handler"
	"github.com/noel-arch/mentor-match-api/internal/middleware"
	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/repository"
	"github.com/noel-arch/mentor-match-api/internal/service"
	"github.com/noel-arch/mentor-match-api/pkg/cache"
	"github.com/noel-arch/mentor-match-api/pkg/config"
	"github.com/noel-arch/mentor-match-api/pkg/database"
	"github.com/noel-arch/mentor-match-api/pkg/logger"
	corsmiddleware "github.com/noel-arch/mentor-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noel-arch/mentor-match-api/pkg/middleware/requestid"
)

// @title Mentor Match API
// @version 1.0.0
// @description Mentorship matching platform for students and lecturers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	mentorshipRepo := repository.NewMentorshipRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mentor-match-api",
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(mentorshipRepo, userRepo, profileRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})
	directorySvc := service.NewDirectoryService(directoryRepo, cacheSvc, cfg.Directory.CacheTTL, logr)
	mentorshipSvc := service.NewMentorshipService(mentorshipRepo, userRepo, userRepo, dashboardSvc, validate, logr)
	profileSvc := service.NewProfileService(profileRepo, directorySvc, validate, logr)
	reportSvc := service.NewReportService(mentorshipRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	mentorshipHandler := handler.NewMentorshipHandler(mentorshipSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	directoryHandler := handler.NewDirectoryHandler(directorySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authSecured := api.Group("/auth", middleware.JWT(authSvc))
	authSecured.POST("/logout", authHandler.Logout)
	authSecured.POST("/change-password", authHandler.ChangePassword)
	authSecured.GET("/me", authHandler.Me)

	secured := api.Group("", middleware.JWT(authSvc))

	users := secured.Group("/users")
	users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
	users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfMarker), userHandler.Get)
	users.PATCH("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfMarker), userHandler.Update)
	users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)

	secured.GET("/lecturers", directoryHandler.List)
	secured.GET("/lecturers/departments", directoryHandler.Departments)

	profiles := secured.Group("/profiles")
	profiles.GET("", profileHandler.List)
	profiles.POST("", profileHandler.Create)
	profiles.GET("/:id", profileHandler.Get)
	profiles.PATCH("/:id", profileHandler.Patch)

	mentorships := secured.Group("/mentorships")
	mentorships.POST("", mentorshipHandler.Create)
	mentorships.GET("", mentorshipHandler.List)
	mentorships.GET("/:id", mentorshipHandler.Get)
	mentorships.PATCH("/:id", mentorshipHandler.Patch)
	mentorships.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), mentorshipHandler.Delete)

	if cfg.Dashboard.Enabled {
		dashboards := secured.Group("/dashboards")
		dashboards.GET("/admin", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Admin)
		dashboards.GET("/lecturer", dashboardHandler.Lecturer)
		dashboards.GET("/student", dashboardHandler.Student)
	}

	if cfg.Reports.Enabled {
		secured.GET("/reports/mentorships", middleware.RequireRoles(models.RoleAdmin), reportHandler.Mentorships)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
