package main

import (
	"log"
	"time"

	config "github.com/chayanon29/learnpay/configs"
	"github.com/chayanon29/learnpay/database"
	"github.com/chayanon29/learnpay/handlers"
	"github.com/chayanon29/learnpay/jobs"
	"github.com/chayanon29/learnpay/notifications"
	"github.com/chayanon29/learnpay/receipts"
	"github.com/chayanon29/learnpay/routes"
	"github.com/chayanon29/learnpay/services"
	"github.com/chayanon29/learnpay/storage"
	"github.com/chayanon29/learnpay/verification"
	ws "github.com/chayanon29/learnpay/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	db := database.Connect()
	database.Migrate(db)
	database.SeedAdmin(db)
	notifications.InitEmailService()

	var uploader storage.Uploader
	if cld, err := storage.NewCloudinaryUploader(); err != nil {
		log.Printf("⚠️ Cloudinary not configured, slips will not be stored: %v", err)
	} else {
		uploader = cld
	}

	hub := ws.NewHub()
	go hub.Run()

	dispatcher := notifications.NewEmailDispatcher()
	receiptService := receipts.NewService(db, uploader)
	settlement := services.NewSettlementService(db, dispatcher, receiptService, hub)
	scorer := services.NewScorer(services.DefaultScorerConfig())
	verifier := verification.NewClient()
	paymentService := services.NewPaymentService(db, verifier, scorer, settlement, uploader, dispatcher, hub)
	orderService := services.NewOrderService(db, settlement)

	c := cron.New()
	c.AddFunc("0 * * * *", func() { jobs.ExpireStalePayments(db) })
	c.Start()
	log.Println("✅ Cron job for payment expiry scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "LearnPay",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	authHandler := handlers.NewAuthHandler(db)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminPaymentHandler(paymentService)

	routes.AuthRoutes(app, authHandler)
	routes.PaymentRoutes(app, orderHandler, paymentHandler)
	routes.AdminRoutes(app, adminHandler, hub)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigOr("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
