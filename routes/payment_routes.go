package routes

import (
	"github.com/chayanon29/learnpay/handlers"
	"github.com/chayanon29/learnpay/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, orders *handlers.OrderHandler, payments *handlers.PaymentHandler) {
	api := app.Group("/api/v1", middleware.Protected())

	api.Post("/orders", orders.Checkout)
	api.Post("/payments/:orderId/slip", payments.SubmitSlip)
}
