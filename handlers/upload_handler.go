package handlers

import (
	"github.com/anjiri1684/learnhub/media"
	"github.com/gofiber/fiber/v2"
)

// GenerateUploadSignature signs a direct browser upload into the folder for
// the requested kind.
func (h *Handler) GenerateUploadSignature(c *fiber.Ctx) error {
	if h.Uploads == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Uploads are not configured"})
	}
	kind := c.Query("kind")
	folder, ok := media.FolderFor(kind)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "kind must be one of: course_thumbnail, lesson_video, product_image",
		})
	}

	signature, err := h.Uploads.SignUpload(folder)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(signature)
}
