package handlers

import (
	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubmitQuizRequest struct {
	Answers []services.AnswerInput `json:"answers"`
}

type studentOption struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

type studentQuestion struct {
	ID       uuid.UUID       `json:"id"`
	Position int             `json:"position"`
	Type     string          `json:"type"`
	Prompt   string          `json:"prompt"`
	Options  []studentOption `json:"options"`
}

type studentQuiz struct {
	ID         uuid.UUID         `json:"id"`
	CourseID   uuid.UUID         `json:"course_id"`
	Title      string            `json:"title"`
	TotalMarks int               `json:"total_marks"`
	Questions  []studentQuestion `json:"questions"`
}

// studentView drops the answer key.
func studentView(quiz *models.Quiz) studentQuiz {
	view := studentQuiz{
		ID:         quiz.ID,
		CourseID:   quiz.CourseID,
		Title:      quiz.Title,
		TotalMarks: quiz.TotalMarks,
		Questions:  make([]studentQuestion, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		options := make([]studentOption, len(q.Options))
		for j, o := range q.Options {
			options[j] = studentOption{ID: o.ID, Text: o.Text}
		}
		view.Questions[i] = studentQuestion{
			ID:       q.ID,
			Position: q.Position,
			Type:     q.Type,
			Prompt:   q.Prompt,
			Options:  options,
		}
	}
	return view
}

func (h *Handler) ListCourseQuizzes(c *fiber.Ctx) error {
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	quizzes, err := h.Quizzes.ListByCourse(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quizzes)
}

func (h *Handler) CreateQuiz(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	var req services.QuizInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	quiz, err := h.Quizzes.CreateQuiz(c.UserContext(), courseID, user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quiz)
}

// GetQuiz shows the answer key only to people who can manage the course.
func (h *Handler) GetQuiz(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	quizID, err := paramUUID(c, "quizId", "quiz")
	if err != nil {
		return respondError(c, err)
	}

	quiz, err := h.Quizzes.GetQuiz(c.UserContext(), quizID, user)
	if err != nil {
		return respondError(c, err)
	}
	if quiz.Course != nil && quiz.Course.CanManage(user) {
		return c.JSON(quiz)
	}
	return c.JSON(studentView(quiz))
}

func (h *Handler) UpdateQuiz(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	quizID, err := paramUUID(c, "quizId", "quiz")
	if err != nil {
		return respondError(c, err)
	}
	var req services.QuizInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	quiz, err := h.Quizzes.UpdateQuiz(c.UserContext(), quizID, user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quiz)
}

func (h *Handler) DeleteQuiz(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	quizID, err := paramUUID(c, "quizId", "quiz")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Quizzes.DeleteQuiz(c.UserContext(), quizID, user); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) SubmitQuiz(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	quizID, err := paramUUID(c, "quizId", "quiz")
	if err != nil {
		return respondError(c, err)
	}
	var req SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	result, err := h.Quizzes.Submit(c.UserContext(), quizID, user.ID, req.Answers)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Quiz submitted successfully",
		"score":       result.Score,
		"total_marks": result.TotalMarks,
		"submission":  result.Submission,
	})
}

func (h *Handler) GetQuizResult(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	quizID, err := paramUUID(c, "quizId", "quiz")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.Quizzes.GetResult(c.UserContext(), quizID, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) ListQuizSubmissions(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	quizID, err := paramUUID(c, "quizId", "quiz")
	if err != nil {
		return respondError(c, err)
	}

	submissions, err := h.Quizzes.ListSubmissions(c.UserContext(), quizID, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(submissions)
}
