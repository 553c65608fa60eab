package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/anjiri1684/learnhub/middleware"
	"github.com/anjiri1684/learnhub/models"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	api := app.Group("/api/v1")

	uploads := api.Group("/uploads", auth, middleware.RolesRequired(models.RoleInstructor, models.RoleAdmin))
	uploads.Get("/signature", h.GenerateUploadSignature)
}
