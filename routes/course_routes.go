package routes

import (
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/anjiri1684/learnhub/middleware"
	"github.com/anjiri1684/learnhub/models"
	"github.com/gofiber/fiber/v2"
)

func InstructorRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	api := app.Group("/api/v1")

	instructor := api.Group("/instructor", auth, middleware.RolesRequired(models.RoleInstructor, models.RoleAdmin))
	instructor.Get("/courses", h.ListMyCourses)
	instructor.Post("/courses", h.CreateCourse)
	instructor.Get("/courses/:courseId", h.GetCourse)
	instructor.Put("/courses/:courseId", h.UpdateCourse)
	instructor.Post("/courses/:courseId/lessons", h.AddLesson)
	instructor.Post("/courses/:courseId/quizzes", h.CreateQuiz)
	instructor.Put("/quizzes/:quizId", h.UpdateQuiz)
	instructor.Delete("/quizzes/:quizId", h.DeleteQuiz)
	instructor.Get("/quizzes/:quizId/submissions", h.ListQuizSubmissions)
}

func LearningRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	api := app.Group("/api/v1")

	learn := api.Group("/learn", auth)
	learn.Get("/enrollments", h.ListMyEnrollments)
	learn.Get("/certificates", h.ListMyCertificates)
	learn.Post("/courses/:courseId/enroll", h.Enroll)
	learn.Post("/courses/:courseId/checkout", h.CreateCourseCheckout)
	learn.Post("/courses/:courseId/verify-payment", h.ConfirmCoursePayment)
	learn.Get("/courses/:courseId/progress", h.GetProgress)
	learn.Post("/courses/:courseId/lessons/:lessonId/complete", h.CompleteLesson)
	learn.Get("/courses/:courseId/quizzes", h.ListCourseQuizzes)
}
