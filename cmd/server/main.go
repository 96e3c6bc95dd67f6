package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"medsupply-backend/internal/cache"
	"medsupply-backend/internal/config"
	"medsupply-backend/internal/database"
	"medsupply-backend/internal/handler"
	"medsupply-backend/internal/middleware"
	"medsupply-backend/internal/models"
	"medsupply-backend/internal/repository"
	"medsupply-backend/internal/service"
	"medsupply-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize structured logger
	logger := buildLogger(cfg)
	defer logger.Sync()

	// 3. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 4. Initialize database connection and run migrations
	db := database.Connect(cfg)
	database.Migrate(db)

	// 5. Initialize redis-backed cache. The idempotency layer is optional, a
	// missing redis only disables submission deduplication.
	var idem service.IdempotencyStore
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("redis unavailable, request idempotency disabled", zap.Error(err))
	} else {
		defer redisCache.Close()
		idem = redisCache
	}

	// 6. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	hospitalRepo := repository.NewHospitalRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	supplyRepo := repository.NewSupplyRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	alertRepo := repository.NewAlertRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)

	// 7. Initialize services
	gate := service.NewRoleGate(models.RoleAdmin)
	authService := service.NewAuthService(userRepo, auditRepo)
	hospitalService := service.NewHospitalService(hospitalRepo, logger)
	catalogService := service.NewCatalogService(supplyRepo, supplierRepo, logger)
	inventoryService := service.NewInventoryService(batchRepo, supplyRepo, hospitalRepo, supplierRepo, auditRepo, logger)
	allocationService := service.NewAllocationService(requestRepo, batchRepo, auditRepo, gate, logger)
	requestService := service.NewRequestService(requestRepo, supplyRepo, hospitalRepo, idem, allocationService, auditRepo, gate, logger)
	alertService := service.NewAlertService(alertRepo, batchRepo, supplyRepo, hospitalRepo, gate, logger, cfg.Alerts.ExpiryWarningDays)
	dashboardService := service.NewDashboardService(dashboardRepo)
	workerService := service.NewWorkerService(alertService, cfg.Alerts.PollInterval, logger)

	// 8. Start background alert worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go workerService.Start(ctx)

	// 9. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 10. Setup Gin router
	handler.RegisterValidations()
	r := gin.Default()

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// 11. Register handlers
	authHandler := handler.NewAuthHandler(authService)
	hospitalHandler := handler.NewHospitalHandler(hospitalService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	batchHandler := handler.NewBatchHandler(inventoryService)
	requestHandler := handler.NewRequestHandler(requestService, allocationService)
	alertHandler := handler.NewAlertHandler(alertService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService,
		cfg.Alerts.DashboardRecentLimit, cfg.Alerts.DashboardTrendDays)

	// 12. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "medsupply-backend",
		})
	})

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// Hospital routes
		api.GET("/hospitals", hospitalHandler.ListHospitals)
		api.GET("/hospitals/:id", hospitalHandler.GetHospital)
		api.POST("/hospitals", middleware.RequireAdmin(), hospitalHandler.CreateHospital)
		api.PUT("/hospitals/:id", middleware.RequireAdmin(), hospitalHandler.UpdateHospital)
		api.DELETE("/hospitals/:id", middleware.RequireAdmin(), hospitalHandler.DeactivateHospital)

		// Supply catalog routes
		api.GET("/supplies", catalogHandler.ListSupplies)
		api.GET("/supplies/:code", catalogHandler.GetSupply)
		api.POST("/supplies", middleware.RequireAdmin(), catalogHandler.CreateSupply)
		api.PUT("/supplies/:code", middleware.RequireAdmin(), catalogHandler.UpdateSupply)

		// Supplier routes
		api.GET("/suppliers", catalogHandler.ListSuppliers)
		api.GET("/suppliers/:id", catalogHandler.GetSupplier)
		api.POST("/suppliers", middleware.RequireAdmin(), catalogHandler.CreateSupplier)
		api.PUT("/suppliers/:id", middleware.RequireAdmin(), catalogHandler.UpdateSupplier)

		// Inventory batch routes
		api.GET("/batches", batchHandler.ListBatches)
		api.GET("/batches/:id", batchHandler.GetBatch)
		api.GET("/stock", batchHandler.GetStockLevel)
		api.POST("/batches", middleware.RequireAdmin(), batchHandler.ReceiveBatch)

		// Supply request routes
		api.POST("/requests", requestHandler.SubmitRequest)
		api.GET("/requests", requestHandler.ListRequests)
		api.GET("/requests/:id", requestHandler.GetRequest)
		api.POST("/requests/:id/approve", middleware.RequireAdmin(), requestHandler.ApproveRequest)
		api.POST("/requests/:id/reject", middleware.RequireAdmin(), requestHandler.RejectRequest)
		api.PATCH("/requests/:id/items/:itemId/allocate", middleware.RequireAdmin(), requestHandler.AllocateItem)
		api.PATCH("/requests/:id/items/:itemId/override", middleware.RequireAdmin(), requestHandler.OverrideAllocation)
		api.GET("/allocation-candidates", middleware.RequireAdmin(), requestHandler.ListAllocationCandidates)

		// Alert routes
		api.GET("/alerts", alertHandler.ListAlerts)
		api.POST("/alerts/:id/resolve", middleware.RequireAdmin(), alertHandler.ResolveAlert)
		api.POST("/alerts/evaluate", middleware.RequireAdmin(), alertHandler.EvaluateAlerts)

		// Dashboard routes
		api.GET("/dashboard", dashboardHandler.Overview)
		api.GET("/dashboard/alert-trend", dashboardHandler.AlertTrend)
		api.GET("/dashboard/fulfillment-trend", dashboardHandler.FulfillmentTrend)
	}

	// 13. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel background worker context
	cancel()
	log.Println("Server exited")
}

func buildLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Server.GinMode == "release" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.Log.Level); err == nil {
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}
