package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/issamdi/food-ordering-website/cart"
	"github.com/issamdi/food-ordering-website/config"
	"github.com/issamdi/food-ordering-website/controllers"
	"github.com/issamdi/food-ordering-website/database"
	"github.com/issamdi/food-ordering-website/middleware"
	"github.com/issamdi/food-ordering-website/models"
	"github.com/issamdi/food-ordering-website/repository"
	"github.com/issamdi/food-ordering-website/routes"
	"github.com/issamdi/food-ordering-website/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := initLogger(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg, logger,
		&models.Order{}, &models.OrderItem{}, &models.TransactionLog{},
	); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	cartStorage := newCartStorage(cfg, logger)

	limiter := middleware.NewSlidingWindowLimiter(cfg.RateLimitMaxAttempts, cfg.RateLimitWindow)
	limiter.StartPruning(10*time.Minute, make(chan struct{}))

	stripeSvc := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.RestaurantName)
	orderRepo := repository.NewGormOrderRepository(database.DB)

	var emails services.EmailSender
	if sender := services.NewSMTPSender(cfg); sender != nil {
		emails = sender
	} else {
		logger.Info("SMTP not configured, confirmation emails disabled")
	}

	checkoutSvc := services.NewCheckoutService(orderRepo, stripeSvc, limiter, emails, cfg, logger)
	webhookSvc := services.NewWebhookService(orderRepo, stripeSvc, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(),
	)
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	pc := &controllers.PaymentController{
		Checkout: checkoutSvc,
		Webhook:  webhookSvc,
		Logger:   logger,
	}
	cc := &controllers.CartController{
		Storage:     cartStorage,
		TaxRate:     cfg.TaxRate,
		DeliveryFee: cfg.DeliveryFee,
		Logger:      logger,
	}
	routes.RegisterRoutes(r, pc, cc)

	logger.Info("Server running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func initLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		zcfg := zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zcfg.Build()
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zcfg.Build()
}

// newCartStorage prefers Redis and falls back to in-process storage when
// Redis is unreachable, so a cache outage never takes checkout down.
func newCartStorage(cfg *config.Config, logger *zap.Logger) cart.Storage {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid Redis URL, using in-memory cart storage", zap.Error(err))
		return cart.NewMemoryStorage()
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, using in-memory cart storage", zap.Error(err))
		return cart.NewMemoryStorage()
	}

	logger.Info("Connected to Redis")
	return cart.NewRedisStorage(client, cfg.CartTTL)
}
