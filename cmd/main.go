package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/config"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/events"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/handlers"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/mailer"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/middleware"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/services"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/subscribers"
)

// @title Inventory Consistency API
// @version 1.0.0
// @description Product catalog service with stock invariant enforcement, drift audit/repair and restock notifications

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	var redisClient *redis.Client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
	} else {
		redisClient = redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
			redisClient = nil
		} else {
			log.Println("✓ Redis connected successfully")
		}
		cancel()
	}

	// Initialize event publisher for audit trail only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if os.Getenv("NATS_URL") != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize mailer; without SMTP config restock emails are logged only
	var restockMailer mailer.Mailer
	if cfg.SMTPHost != "" {
		restockMailer = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		log.Println("✓ SMTP mailer initialized")
	} else {
		restockMailer = mailer.NoopMailer{}
		log.Println("SMTP_HOST not set, restock emails will be logged only")
	}

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	notificationsRepo := repository.NewNotificationsRepository(db)

	// Order placement decrements variant stock via narrow updates; the
	// audit endpoint reconciles the aggregate afterwards
	var orderSubscriber *subscribers.OrderSubscriber
	if eventsPublisher != nil {
		orderSubscriber = subscribers.NewOrderSubscriber(eventsPublisher.Conn(), productsRepo, logger)
		if err := orderSubscriber.Start(); err != nil {
			log.Printf("WARNING: Failed to start order subscriber: %v", err)
			orderSubscriber = nil
		} else {
			log.Println("✓ Order subscriber started")
		}
	}
	defer func() {
		if orderSubscriber != nil {
			orderSubscriber.Stop()
		}
	}()

	// Initialize services
	productService := services.NewProductService(productsRepo, eventsPublisher, logger)
	auditService := services.NewAuditService(productsRepo, eventsPublisher, cfg.AuditBatchSize, logger)
	notifyService := services.NewNotifyService(productsRepo, notificationsRepo, restockMailer, eventsPublisher, logger)

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(productService)
	stockHandler := handlers.NewStockHandler(auditService, notifyService)
	notificationsHandler := handlers.NewNotificationsHandler(notifyService)
	importHandler := handlers.NewImportHandler(notifyService)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.DevelopmentAuthMiddleware())
	api.Use(middleware.TenantMiddleware())
	{
		products := api.Group("/products")
		{
			products.GET("", productsHandler.ListProducts)
			products.GET("/:id", productsHandler.GetProduct)
			products.GET("/:id/variants", productsHandler.ListVariants)
			products.POST("", productsHandler.CreateProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.DELETE("/:id", productsHandler.DeleteProduct)

			// Stock update: wholesale variant replace + restock notification resolution
			products.PUT("/:id/stock", stockHandler.UpdateStock)
			products.POST("/:id/variants/:variantId/adjust-stock", productsHandler.AdjustVariantStock)

			// Storefront "notify me when back in stock"
			products.POST("/:id/notify", notificationsHandler.RegisterNotification)
		}

		inventory := api.Group("/inventory")
		{
			inventory.POST("/audit", stockHandler.AuditStock)
			inventory.GET("/audit/export", stockHandler.ExportAuditReport)

			// Bulk restock from supplier spreadsheets
			inventory.POST("/stock-import", importHandler.ImportStock)
			inventory.GET("/stock-import/template", importHandler.GetImportTemplate)
		}

		api.GET("/notifications", notificationsHandler.ListNotifications)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Inventory consistency service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down inventory-consistency-service...")
	log.Println("Inventory consistency service stopped")
}
