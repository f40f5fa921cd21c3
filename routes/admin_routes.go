package routes

import (
	"github.com/chayanon29/learnpay/handlers"
	"github.com/chayanon29/learnpay/middleware"
	ws "github.com/chayanon29/learnpay/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func AdminRoutes(app *fiber.App, admin *handlers.AdminPaymentHandler, hub *ws.Hub) {
	api := app.Group("/api/v1/admin", middleware.Protected(), middleware.AdminRequired())

	api.Get("/payments/pending", admin.ListPending)
	api.Post("/payments/:paymentId/decision", admin.ManualDecision)
	api.Post("/payments/bulk-decision", admin.BulkDecision)

	api.Get("/ws/payments", websocket.New(func(c *websocket.Conn) {
		client := &ws.Client{ID: uuid.New(), Conn: c}
		hub.Register(client)
		defer hub.Unregister(client)

		// Keep the connection open; the feed is push-only.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
