package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fixgearlabs/fixgear-cart/config"
	"github.com/fixgearlabs/fixgear-cart/internal/app/cart"
	"github.com/fixgearlabs/fixgear-cart/internal/app/controller"
	"github.com/fixgearlabs/fixgear-cart/internal/app/repository"
	"github.com/fixgearlabs/fixgear-cart/internal/app/service"
	"github.com/fixgearlabs/fixgear-cart/internal/app/session"
	"github.com/fixgearlabs/fixgear-cart/internal/db"
	"github.com/fixgearlabs/fixgear-cart/internal/middleware"
	"github.com/fixgearlabs/fixgear-cart/internal/router"
	"github.com/fixgearlabs/fixgear-cart/internal/scheduler"
	"github.com/fixgearlabs/fixgear-cart/internal/storage"
	ws "github.com/fixgearlabs/fixgear-cart/internal/websocket"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
	"github.com/fixgearlabs/fixgear-cart/pkg/redis"
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

	logger.Info("Starting FIXGEAR Cart Server", map[string]interface{}{
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

	// Redis backs token revocation. Without it logout still clears the
	// device binding, so a failure here is not fatal.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Failed to connect to Redis, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	// Per-device cart slot files
	slotStore, err := storage.NewSlotStore(cfg.Cart.DataDir)
	if err != nil {
		logger.Fatal("Failed to initialize cart slot store", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// One coordinator per active device
	registry := cart.NewRegistry(slotStore, cartRepo)
	defer registry.Close()

	// Initialize services
	resolver := session.NewResolver(cfg.JWT.Secret)
	authService := service.NewAuthService(
		userRepo,
		resolver,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo)

	// WebSocket hub for live cart updates
	hub := ws.NewHub()
	go hub.Run()

	// Initialize controllers
	authController := controller.NewAuthController(authService, registry)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(registry, productService)
	cartStreamController := controller.NewCartStreamController(hub, registry, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(resolver)

	// Background cleanup of idle coordinators and stale slot files
	janitor := scheduler.NewCartJanitor(registry, slotStore, cfg.Cart)
	if err := janitor.Start(); err != nil {
		logger.Fatal("Failed to start cart janitor", err)
	}
	defer janitor.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		cartStreamController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

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
