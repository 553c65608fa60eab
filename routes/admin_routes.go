package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/anjiri1684/learnhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", auth, middleware.AdminRequired())

	admin.Get("/users", h.GetAllUsers)
	admin.Patch("/users/:userId/block", h.SetUserBlocked)

	admin.Get("/analytics/dashboard", h.GetDashboardAnalytics)
	admin.Get("/reports/transactions", h.GenerateTransactionReport)

	admin.Patch("/courses/:courseId/publish", h.PublishCourse)

	admin.Post("/products", h.AdminCreateProduct)
	admin.Put("/products/:productId", h.AdminUpdateProduct)
	admin.Delete("/products/:productId", h.AdminDeactivateProduct)

	admin.Get("/orders", h.AdminListOrders)
}
