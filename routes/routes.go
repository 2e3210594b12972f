package routes

import (
	"JagannathOPD/cache"
	"JagannathOPD/config"
	"JagannathOPD/controllers"
	"JagannathOPD/database"
	"JagannathOPD/gateway"
	"JagannathOPD/handlers"
	"JagannathOPD/middlewares"
	"JagannathOPD/repositories"
	"JagannathOPD/services"
	"JagannathOPD/utils"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cfg *config.AppConfig, db *gorm.DB, redisClient *redis.Client, cache *cache.Cache, log *zap.Logger) (http.Handler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Create and apply CORS middleware configuration
	router.Use(middlewares.CorsMiddleware(&middlewares.CorsConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Access-Token", "X-Razorpay-Signature", "X-Request-ID"},
		AllowCredentials: true,
		MaxAgeSeconds:    600,
	}))

	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: 15,
		Burst:             30,
		IdleTTL:           10 * time.Minute,
	}))

	router.Use(middlewares.LoggingMiddleware(log))

	// Initialize repositories, services, and handlers
	slotRepo := repositories.NewSlotRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	doctorRepo := repositories.NewDoctorRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	mrRepo := repositories.NewMRRepository(db)

	locker := database.NewRedisLocker(redisClient, log)
	razorpay := gateway.NewRazorpayClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)

	slotService := services.NewSlotService(slotRepo, shiftRepo, doctorRepo, locker, cache, log, loc, cfg.BookingHorizonDays)
	mrNumbers := services.NewMRNumberService(mrRepo, loc)
	paymentService := services.NewPaymentService(paymentRepo, mrNumbers, razorpay, services.PaymentSettings{
		WebhookSecret:   cfg.WebhookSecret,
		Currency:        cfg.Currency,
		RegistrationFee: cfg.RegistrationFee,
	}, log)
	doctorService := services.NewDoctorService(doctorRepo, cache, log)

	slotHandler := handlers.NewSlotHandler(slotService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.SystemActorID, log)
	doctorHandler := handlers.NewDoctorHandler(doctorService, log)

	staffAuth := middlewares.TokenAuthMiddleware([]byte(cfg.SymmetricKey), utils.RoleAdmin, utils.RoleReceptionist)

	slotController := controllers.NewSlotController(slotHandler, staffAuth)
	paymentController := controllers.NewPaymentController(paymentHandler)
	doctorController := controllers.NewDoctorController(doctorHandler)

	// The gateway cannot present the bearer token
	paymentController.RegisterWebhook(router.Group("/api/v1"))

	api := router.Group("/api/v1")
	api.Use(middlewares.ValidateBearerToken(cfg.GetBearerToken()))
	slotController.RegisterRoutes(api)
	paymentController.RegisterRoutes(api)
	doctorController.RegisterRoutes(api)

	rootController := controllers.NewRootController(log,
		controllers.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return database.Ping(ctx, db) }},
		controllers.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)
	rootController.RegisterRoutes(router)

	return router, nil
}
