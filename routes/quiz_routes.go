package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/gofiber/fiber/v2"
)

func QuizRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	api := app.Group("/api/v1")

	quizzes := api.Group("/quizzes", auth)
	quizzes.Get("/:quizId", h.GetQuiz)
	quizzes.Post("/:quizId/submit", h.SubmitQuiz)
	quizzes.Get("/:quizId/result", h.GetQuizResult)
}
