package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func RealtimeRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	api.Use("/ws", h.UpgradeWs)
	api.Get("/ws", websocket.New(h.ServeWs))
}
