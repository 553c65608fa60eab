package handlers

import (
	"github.com/anjiri1684/learnhub/middleware"
	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.Courses.ListPublished(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(courses)
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	var requester *models.User
	if user, ok := middleware.CurrentUser(c); ok {
		requester = &user
	}

	course, err := h.Courses.GetCourse(c.UserContext(), courseID, requester)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(course)
}

func (h *Handler) ListMyCourses(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courses, err := h.Courses.ListByInstructor(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(courses)
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req services.CourseInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	course, err := h.Courses.CreateCourse(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	var req services.CourseInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	course, err := h.Courses.UpdateCourse(c.UserContext(), courseID, user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(course)
}

func (h *Handler) AddLesson(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	var req services.LessonInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	lesson, err := h.Courses.AddLesson(c.UserContext(), courseID, user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

func (h *Handler) Enroll(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}

	enrollment, err := h.Enrollments.Enroll(c.UserContext(), user, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (h *Handler) CompleteLesson(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	lessonID, err := paramUUID(c, "lessonId", "lesson")
	if err != nil {
		return respondError(c, err)
	}

	progress, err := h.Enrollments.CompleteLesson(c.UserContext(), user.ID, courseID, lessonID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}

func (h *Handler) GetProgress(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}

	progress, err := h.Enrollments.GetProgress(c.UserContext(), user.ID, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}

func (h *Handler) ListMyEnrollments(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	enrollments, err := h.Enrollments.ListMine(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(enrollments)
}

func (h *Handler) ListMyCertificates(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	certificates, err := h.Certificates.ListMine(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(certificates)
}
