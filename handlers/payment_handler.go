package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type CreateOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// VerifyPaymentRequest carries the fields Razorpay checkout hands back to the
// browser on success.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CreateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	checkout, err := h.Orders.CreateOrder(c.UserContext(), user, req.PaymentMethod)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(checkout)
}

func (h *Handler) VerifyOrderPayment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req VerifyPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.Orders.VerifyPayment(c.UserContext(), user, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Payment verified successfully",
		"order":   order,
	})
}

func (h *Handler) CreateCourseCheckout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}

	checkout, err := h.Enrollments.CreateCourseCheckout(c.UserContext(), user, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(checkout)
}

func (h *Handler) ConfirmCoursePayment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := paramUUID(c, "courseId", "course")
	if err != nil {
		return respondError(c, err)
	}
	var req VerifyPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	enrollment, err := h.Enrollments.ConfirmCoursePayment(c.UserContext(), user, courseID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Enrollment confirmed",
		"enrollment": enrollment,
	})
}
