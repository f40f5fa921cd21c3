package routes

import (
	"github.com/chayanon29/learnpay/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, auth *handlers.AuthHandler) {
	api := app.Group("/api/v1")

	api.Post("/auth/login", auth.Login)
}
