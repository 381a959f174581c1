package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/draworld/draworld-backend/internal/config"
	"github.com/draworld/draworld-backend/internal/handler"
	"github.com/draworld/draworld-backend/internal/metrics"
	"github.com/draworld/draworld-backend/internal/middleware"
	"github.com/draworld/draworld-backend/internal/repository"
	"github.com/draworld/draworld-backend/internal/service"
	"github.com/draworld/draworld-backend/internal/worker"
	"github.com/draworld/draworld-backend/pkg/cache"
	"github.com/draworld/draworld-backend/pkg/database"
	"github.com/draworld/draworld-backend/pkg/email"
	"github.com/draworld/draworld-backend/pkg/logger"
	"github.com/draworld/draworld-backend/pkg/payment"
	"github.com/draworld/draworld-backend/pkg/storage"
	"github.com/draworld/draworld-backend/pkg/utils"
	"github.com/draworld/draworld-backend/pkg/videogen"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.LoadConfig()

	// Database (migrations and package seeding run inside)
	db := database.NewDatabase()

	// Metrics registry + dedicated listener
	m := metrics.Registry("draworld")
	go serveMetrics(cfg.MetricsAddr)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	packageRepo := repository.NewCreditPackageRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	// Storage for uploaded drawings
	r2Storage, err := storage.NewCloudflareStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize R2 storage:", err)
	}

	// External services
	emailService := email.NewEmailService()
	stripeService := payment.NewStripeService(os.Getenv("STRIPE_SECRET_KEY"))
	generator := videogen.NewClient(cfg.VideoGen.BaseURL, cfg.VideoGen.APIKey)
	statusCache := cache.New(cfg.RedisAddr, cfg.RedisPass)
	if statusCache == nil && cfg.RedisAddr != "" {
		logger.L().Warn("redis unreachable, video status caching disabled")
	}

	// Services
	creditService := service.NewCreditService(db, transactionRepo, m)
	referralService := service.NewReferralService(db, userRepo, referralRepo, transactionRepo, creditService)
	authService := service.NewAuthService(db, userRepo, creditService, referralService, emailService)
	userService := service.NewUserService(db, userRepo)
	paymentService := service.NewPaymentService(db, stripeService, userRepo, packageRepo, paymentRepo, creditService, emailService, m)
	videoService := service.NewVideoService(db, videoRepo, creditService, referralService, r2Storage, generator, statusCache, m)

	// Nightly balance audit
	worker.NewReconciler(db, m).Start(24 * time.Hour)

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validator)
	userHandler := handler.NewUserHandler(userService)
	creditHandler := handler.NewCreditHandler(creditService, validator)
	referralHandler := handler.NewReferralHandler(referralService, validator)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	videoHandler := handler.NewVideoHandler(videoService, validator)

	// Router
	app := fiber.New(fiber.Config{
		BodyLimit: 15 * 1024 * 1024, // drawing uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "https://draworld.app, https://www.draworld.app, http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Stripe webhook (public, signature-verified)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	api.Get("/payments/packages", paymentHandler.GetCreditPackages)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		user := api.Group("/user")
		user.Get("/profile", userHandler.GetMyProfile)
		user.Delete("/account", userHandler.DeleteAccount)

		credits := api.Group("/credits")
		credits.Post("/checkin", creditHandler.DailyCheckIn)
		credits.Post("/spend", creditHandler.SpendCredits)
		credits.Post("/award", creditHandler.AwardCredits)
		credits.Post("/share", creditHandler.ClaimShareReward)
		credits.Get("/history", creditHandler.GetCreditHistory)

		referrals := api.Group("/referrals")
		referrals.Post("/signup", referralHandler.ProcessReferralSignup)
		referrals.Get("/stats", referralHandler.GetReferralStats)

		videos := api.Group("/videos")
		videos.Post("/", videoHandler.CreateVideo)
		videos.Get("/", videoHandler.GetUserVideos)
		videos.Get("/:id/status", videoHandler.GetVideoStatus)
		videos.Delete("/:id", videoHandler.DeleteVideo)

		payments := api.Group("/payments")
		payments.Post("/checkout/:packageId", paymentHandler.CreateCheckout)
		payments.Get("/history", paymentHandler.GetPaymentHistory)
	}

	log.Fatal(app.Listen(":" + cfg.Port))
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
