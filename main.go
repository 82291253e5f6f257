package main

import (
	"log"
	"net/http"
	"time"

	controller "github.com/Itish41/complytrack/controller"
	"github.com/Itish41/complytrack/initializers"
	middleware "github.com/Itish41/complytrack/middleware"
	service "github.com/Itish41/complytrack/service"

	"github.com/gin-gonic/gin"
)

var cfg initializers.Config

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Fatalf("[CRITICAL] Failed to load env: %s", err)
	}
	cfg = initializers.LoadConfig()

	dialect, err := initializers.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(initializers.DB, dialect); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	db := initializers.DB

	search, err := service.NewSearchService(cfg.ElasticsearchURL)
	if err != nil {
		log.Fatalf("Failed to initialize search service: %s", err)
	}
	validate := service.NewValidator()

	notifications := service.NewNotificationService(db, nil, nil)
	audit := service.NewAuditService(db)

	handlers := &controller.Controllers{
		Registry:      controller.NewRegistryController(service.NewRegistryService(db, validate)),
		Tasks:         controller.NewTaskController(service.NewTaskService(db, validate, search, nil), search),
		Reports:       controller.NewReportController(service.NewReportingService(db, nil)),
		Notifications: controller.NewNotificationController(notifications, audit),
	}

	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	metrics := middleware.NewMetrics(nil)

	router.Use(middleware.RequestID())
	router.Use(middleware.CORSMiddleware())
	router.Use(metrics.Instrument())

	// Global rate limiter for most routes
	globalLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer globalLimiter.Stop()
	router.Use(globalLimiter.Limit())

	// Writes get a tenth of the global limit
	writeQuota := cfg.RateLimitPerMinute / 10
	if writeQuota < 1 {
		writeQuota = 1
	}
	writeLimiter := middleware.NewRateLimiter(writeQuota, time.Minute)
	defer writeLimiter.Stop()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "search": search.Enabled()})
	})
	router.GET("/metrics", metrics.Handler())

	handlers.RegisterRoutes(router.Group("/api/v1"), writeLimiter.Limit())

	log.Printf("Listening on %s", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("Server stopped: %s", err)
	}
}
