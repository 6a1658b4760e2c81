package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goatmart/goatmart-backend/config"
	"github.com/goatmart/goatmart-backend/internal/app/controller"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/app/service"
	"github.com/goatmart/goatmart-backend/internal/db"
	"github.com/goatmart/goatmart-backend/internal/events"
	"github.com/goatmart/goatmart-backend/internal/middleware"
	"github.com/goatmart/goatmart-backend/internal/router"
	"github.com/goatmart/goatmart-backend/internal/scheduler"
	"github.com/goatmart/goatmart-backend/internal/storage"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	goatredis "github.com/goatmart/goatmart-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting GoatMart Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed database (optional)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize Redis (optional, used for token revocation and events)
	redisEnabled := cfg.Redis.Enabled
	if redisEnabled {
		if err := goatredis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
			redisEnabled = false
		} else {
			defer func() {
				if err := goatredis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event bus: Redis pub/sub when available, in-process otherwise
	var bus events.Bus
	if redisEnabled {
		redisBus := events.NewRedisBus(goatredis.GetClient())
		go redisBus.Start(ctx)
		bus = redisBus
	} else {
		bus = events.NewInProcessBus()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	affiliateRepo := repository.NewAffiliateRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		affiliateRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, bus, db.GetDB())
	affiliateService := service.NewAffiliateService(affiliateRepo, userRepo, orderRepo)

	// Commission bookkeeping runs off completed orders
	bus.SubscribeOrderCompleted(affiliateService.RecordConversion)

	// Initialize upload storage
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService, cartService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	affiliateController := controller.NewAffiliateController(affiliateService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		orderController,
		affiliateController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start abandoned guest cart cleanup
	cartScheduler := scheduler.NewCartCleanupScheduler(cartService)
	if err := cartScheduler.Start(); err != nil {
		logger.Error("Failed to start cart cleanup scheduler", err)
	}
	defer cartScheduler.Stop()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
