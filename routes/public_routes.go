package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	api.Get("/courses", h.ListCourses)
	api.Get("/courses/:courseId", h.GetCourse)

	api.Get("/products", h.ListProducts)
	api.Get("/products/:productId", h.GetProduct)
}
