package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"krishak/internal/config"
	"krishak/internal/database"
	"krishak/internal/handlers"
	"krishak/internal/jobs"
	"krishak/internal/metrics"
	"krishak/internal/middleware"
	"krishak/internal/pricing"
	"krishak/internal/repositories"
	"krishak/internal/services"
	"krishak/pkg/rabbitmq"
)

// Idle thresholds of the housekeeping jobs.
const (
	limiterIdle = 3 * time.Minute
	cartIdle    = 7 * 24 * time.Hour
)

// backends records which optional infrastructure the app is running on.
type backends struct {
	Database string `json:"database"`
	Cart     string `json:"cart"`
	RabbitMQ string `json:"rabbitmq"`
}

// App is a wired server with the resources it owns.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Products *services.ProductService

	limiter *middleware.RateLimiter
	carts   jobs.CartSweeper
	closers []func() error
}

// Close releases every resource the App opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.WithError(err).Warn("Error while releasing resource")
		}
	}
}

// Housekeeping returns the periodic jobs for this App.
func (a *App) Housekeeping() jobs.Housekeeping {
	return jobs.Housekeeping{
		Limiter:     a.limiter,
		LimiterIdle: limiterIdle,
		Carts:       a.carts,
		CartIdle:    cartIdle,
	}
}

// NewApp wires repositories, services and handlers from cfg.
func NewApp(cfg *config.Config) (*App, error) {
	a := &App{}
	status := backends{Database: cfg.Database.Driver, Cart: "memory", RabbitMQ: "disabled"}

	// --- Repositories ---
	var (
		userRepo    repositories.UserRepository
		productRepo repositories.ProductRepository
		orderRepo   repositories.OrderRepository
	)
	if cfg.Database.Driver == "memory" {
		products := repositories.NewMemoryProductRepository()
		userRepo = repositories.NewMemoryUserRepository()
		productRepo = products
		orderRepo = repositories.NewMemoryOrderRepository(products)
	} else {
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		userRepo = repositories.NewGORMUserRepository(db)
		productRepo = repositories.NewGORMProductRepository(db)
		orderRepo = repositories.NewGORMOrderRepository(db)
	}

	var cartRepo repositories.CartRepository
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			rdb.Close()
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		cartRepo = repositories.NewRedisCartRepository(rdb, cfg.Redis.CartTTL)
		status.Cart = "redis"
	} else {
		memCarts := repositories.NewMemoryCartRepository()
		cartRepo = memCarts
		a.carts = memCarts
	}

	// --- Messaging ---
	var publisher services.Publisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.closers = append(a.closers, mqClient.Close)
		if err := mqClient.ConsumeOrderEvents(rabbitmq.HandleOrderMessage); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to start RabbitMQ consumer: %w", err)
		}
		publisher = mqClient
		status.RabbitMQ = "connected"
	}

	// --- Services ---
	policy := pricing.Policy{
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
		FlatFee:               cfg.Checkout.FlatShippingFee,
	}
	a.Auth = services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Products = services.NewProductService(productRepo, userRepo)
	cartService := services.NewCartService(cartRepo, productRepo, policy)
	orderService := services.NewOrderService(orderRepo, cartRepo, productRepo, publisher, policy, cfg.Checkout.RevalidatePrices)
	weatherService := services.NewWeatherService(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout)

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:      "krishak",
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(middleware.Metrics())
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"backends": status,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	a.limiter = middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst)
	auth := middleware.AuthRequired(a.Auth)

	api := app.Group("/api")
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(api, auth, a.limiter.Handler())
	handlers.NewUserHandler(a.Auth).RegisterRoutes(api, auth)
	handlers.NewProductHandler(a.Products).RegisterRoutes(api, auth)
	handlers.NewCartHandler(cartService).RegisterRoutes(api, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api, auth)
	handlers.NewWeatherHandler(weatherService).RegisterRoutes(api)

	a.Fiber = app
	return a, nil
}

func configureLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	configureLogging(cfg.Log)

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer app.Close()

	if cfg.IsDevelopment() && cfg.Database.Driver == "memory" {
		if err := seedDevData(context.Background(), app.Auth, app.Products); err != nil {
			log.WithError(err).Warn("Failed to seed development data")
		}
	}

	scheduler, err := jobs.Start(jobs.DefaultSchedule, app.Housekeeping())
	if err != nil {
		log.Fatalf("Failed to start housekeeping: %v", err)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.App.Port).Info("Starting server")
		if err := app.Fiber.Listen(cfg.App.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	<-scheduler.Stop().Done()
	if err := app.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	log.Info("Server gracefully stopped")
}
