package handlers

import (
	"github.com/anjiri1684/learnhub/media"
	"github.com/anjiri1684/learnhub/middleware"
	"github.com/anjiri1684/learnhub/models"
	"github.com/anjiri1684/learnhub/monitoring"
	"github.com/anjiri1684/learnhub/services"
	"github.com/anjiri1684/learnhub/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var validate = validator.New()

// UploadSigner signs direct browser uploads.
type UploadSigner interface {
	SignUpload(folder string) (*media.UploadSignature, error)
}

type Handler struct {
	Quizzes      *services.QuizService
	Courses      *services.CourseService
	Enrollments  *services.EnrollmentService
	Certificates *services.CertificateService
	Products     *services.ProductService
	Carts        *services.CartService
	Orders       *services.OrderService
	Admin        *services.AdminService
	Uploads      UploadSigner
	Hub          *websocket.Hub
	JWTSecret    string
}

var statusByKind = map[services.ErrorKind]int{
	services.KindValidation:   fiber.StatusBadRequest,
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindConflict:     fiber.StatusConflict,
	services.KindForbidden:    fiber.StatusForbidden,
	services.KindUnauthorized: fiber.StatusUnauthorized,
}

// respondError is the single place service errors become HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			return c.Status(status).JSON(fiber.Map{"error": appErr.Message})
		}
	}
	monitoring.Report(err, map[string]interface{}{
		"path":   c.Path(),
		"method": c.Method(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func currentUser(c *fiber.Ctx) (models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.User{}, services.Unauthorized("Unauthorized")
	}
	return user, nil
}

func paramUUID(c *fiber.Ctx, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, services.Validation("Invalid " + what + " ID")
	}
	return id, nil
}

// parseBody decodes and validates the request body into req.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return services.Validation("Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return services.Validation(err.Error())
	}
	return nil
}
