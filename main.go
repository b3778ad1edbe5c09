package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"booking-intelligence/internal/abtest"
	"booking-intelligence/internal/config"
	"booking-intelligence/internal/handlers"
	"booking-intelligence/internal/kafka"
	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/pricing"
	"booking-intelligence/internal/recommend"
	rediswrap "booking-intelligence/internal/redis"
	"booking-intelligence/internal/services"
	"booking-intelligence/internal/storage"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Booking Intelligence starting up...")

	cfg := config.Load()
	// The logger was built before .env was read.
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.File != "" {
		if err := log.SetFile(cfg.Log.File); err != nil {
			log.Warn("LOGGER", err.Error())
		}
	}
	log.Info("CONFIG", "Configuration loaded successfully")

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("CONFIG", "JWT_SECRET must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openStore(cfg)
	defer store.Close()

	// Redis is optional: without it assignment is hash based and nothing is cached.
	var (
		groupStore abtest.GroupStore
		recCache   services.RecommendationCache
		quoteCache services.QuoteCache
	)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	cache := rediswrap.NewRedis(redisClient)
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable at %s, running without cache: %v", cfg.Redis.Addr, err))
	} else {
		groupStore, recCache, quoteCache = cache, cache, cache
		log.LogProcess("REDIS", "Redis connection successful")
	}
	pingCancel()

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer kafkaProducer.Close()

	engine := recommend.NewEngine(recommend.Config{
		DefaultK: cfg.Recommend.DefaultK,
		MaxK:     cfg.Recommend.MaxK,
	}, log)
	if err := engine.Reload(cfg.Model.Path); err != nil {
		log.Warn("MODEL", "No usable model on disk, serving rule-based recommendations")
	}
	if cfg.Model.Watch {
		startModelWatcher(ctx, engine, cfg.Model.Path, recCache)
	}

	assigner := abtest.NewAssigner(groupStore, cfg.Redis.GroupTTL, log)
	adjuster := pricing.NewAdjuster()

	var rateCatalog services.RateCatalog
	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set, rate publishing disabled")
	} else if sc, err := services.NewStripeCatalog(cfg.Stripe.SecretKey, log); err != nil {
		log.Error("STRIPE", "Failed to initialize Stripe catalog: "+err.Error())
	} else {
		rateCatalog = sc
	}

	// Initialize services
	catalogService := services.NewCatalogService(store, recCache, log)
	recommendationService := services.NewRecommendationService(engine, assigner, adjuster, catalogService,
		store, recCache, kafkaProducer, log, cfg.Redis.CacheTTL)
	pricingService := services.NewPricingService(engine, assigner, adjuster, catalogService,
		store, quoteCache, kafkaProducer, log, cfg.Redis.QuoteTTL)
	trainingService := services.NewTrainingService(store, engine, recCache, kafkaProducer, log,
		cfg.Model.Path, cfg.Model.Ridge, cfg.Model.MinSamples)
	analyticsService := services.NewAnalyticsService(store, log)
	bookingService := services.NewBookingEventService(store, quoteCache, log)
	ratePublisher := services.NewRatePublisher(rateCatalog, catalogService, adjuster, cfg.Stripe, log)
	log.LogProcess("SERVICE", "All services initialized")

	if cfg.Kafka.ConsumeEvents && !cfg.Kafka.MockMode {
		startBookingConsumer(ctx, cfg.Kafka, bookingService)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handlers.SetupRouter(&handlers.Handlers{
		Health:         handlers.NewHealthHandler(store, engine),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Recommendation: handlers.NewRecommendationHandler(recommendationService),
		Pricing:        handlers.NewPricingHandler(pricingService),
		AB:             handlers.NewABHandler(assigner),
		Admin:          handlers.NewAdminHandler(engine, trainingService, analyticsService, ratePublisher),
	}, handlers.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
		RateLimit: cfg.Server.RateLimit,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "Health check available at: http://localhost"+cfg.Server.Port+"/health")
		log.Info("STARTUP", "Metrics available at: http://localhost"+cfg.Server.Port+"/metrics")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "Booking Intelligence shutdown completed")
}

func openStore(cfg *config.Config) storage.Store {
	if cfg.Database.Driver == "memory" {
		log.LogDatabase("INIT", "memory", "Using in-memory storage")
		return storage.NewInMemoryStore()
	}

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")
	return store
}

func startModelWatcher(ctx context.Context, engine *recommend.Engine, path string, cache recommend.CacheInvalidator) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("MODEL", fmt.Sprintf("Cannot create model directory: %v", err))
		return
	}
	watcher, err := recommend.NewWatcher(engine, path, cache, log)
	if err != nil {
		log.Warn("MODEL", fmt.Sprintf("Model hot reload disabled: %v", err))
		return
	}
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("MODEL", "Watcher stopped: "+err.Error())
		}
	}()
}

func startBookingConsumer(ctx context.Context, cfg config.KafkaConfig, bookingService *services.BookingEventService) {
	log.LogProcess("KAFKA", "Initializing Kafka consumer...")
	consumer, err := kafka.NewBookingConsumer(cfg.Brokers, cfg.GroupID, cfg.BookingTopic, log)
	if err != nil {
		log.Error("KAFKA", "Failed to create Kafka consumer, booking feedback disabled: "+err.Error())
		return
	}

	go func() {
		defer consumer.Close()
		log.LogKafka("START", cfg.BookingTopic, "Starting Kafka consumer goroutine")
		if err := consumer.ConsumeBookings(ctx, bookingService.Handle); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("KAFKA", "Consumer error: "+err.Error())
		}
	}()
}
