package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/anjiri1684/learnhub/services"
	"github.com/gofiber/fiber/v2"
)

type BlockUserRequest struct {
	Blocked bool `json:"blocked"`
}

type PublishCourseRequest struct {
	Published bool `json:"published"`
}

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	result, err := h.Admin.ListUsers(c.UserContext(), page, limit, c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) SetUserBlocked(c *fiber.Ctx) error {
	admin, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	userID, err := paramUUID(c, "userId", "user")
	if err != nil {
		return respondError(c, err)
	}
	var req BlockUserRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.Admin.SetBlocked(c.UserContext(), admin, userID, req.Blocked); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

func (h *Handler) GetDashboardAnalytics(c *fiber.Ctx) error {
	stats, err := h.Admin.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) GenerateTransactionReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	report, err := h.Admin.TransactionReport(c.UserContext(), startDate, endDate)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))
	return c.Send(report)
}

func (h *Handler) PublishCourse(c *fiber.Ctx) error {
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	var req PublishCourseRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	course, err := h.Courses.SetPublished(c.UserContext(), courseID, req.Published)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(course)
}

func (h *Handler) AdminCreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	product, err := h.Products.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Handler) AdminUpdateProduct(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "productId", "product")
	if err != nil {
		return respondError(c, err)
	}
	var req services.ProductInput
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	product, err := h.Products.Update(c.UserContext(), productID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) AdminDeactivateProduct(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "productId", "product")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Products.Deactivate(c.UserContext(), productID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) AdminListOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.AdminList(c.UserContext(), c.Query("payment_status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}
