package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/gofiber/fiber/v2"
)

// Register mounts every API group. auth is the token middleware shared by all
// protected groups.
func Register(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	PublicRoutes(app, h)
	InstructorRoutes(app, h, auth)
	LearningRoutes(app, h, auth)
	QuizRoutes(app, h, auth)
	ShopRoutes(app, h, auth)
	AdminRoutes(app, h, auth)
	UploadRoutes(app, h, auth)
	RealtimeRoutes(app, h)
}
