package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/gofiber/fiber/v2"
)

func ShopRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	api := app.Group("/api/v1")

	cart := api.Group("/cart", auth)
	cart.Get("", h.GetCart)
	cart.Post("/items", h.AddCartItem)
	cart.Put("/items/:productId", h.UpdateCartItem)
	cart.Delete("/items/:productId", h.RemoveCartItem)

	orders := api.Group("/orders", auth)
	orders.Post("", h.CreateOrder)
	orders.Get("", h.ListMyOrders)
	orders.Post("/verify", h.VerifyOrderPayment)
	orders.Get("/:orderId", h.GetMyOrder)
	orders.Post("/:orderId/cancel", h.CancelOrder)
}
