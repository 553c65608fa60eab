package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func (h *Handler) ListProducts(c *fiber.Ctx) error {
	products, err := h.Products.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) GetProduct(c *fiber.Ctx) error {
	productID, err := paramUUID(c, "productId", "product")
	if err != nil {
		return respondError(c, err)
	}
	product, err := h.Products.Get(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) GetCart(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.Carts.Get(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) AddCartItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CartItemRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	cart, err := h.Carts.AddItem(c.UserContext(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) UpdateCartItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	productID, err := paramUUID(c, "productId", "product")
	if err != nil {
		return respondError(c, err)
	}
	var req CartQuantityRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	cart, err := h.Carts.SetQuantity(c.UserContext(), user.ID, productID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) RemoveCartItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	productID, err := paramUUID(c, "productId", "product")
	if err != nil {
		return respondError(c, err)
	}

	cart, err := h.Carts.RemoveItem(c.UserContext(), user.ID, productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) ListMyOrders(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	orders, err := h.Orders.ListMine(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) GetMyOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, err := paramUUID(c, "orderId", "order")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.Orders.GetMine(c.UserContext(), user.ID, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *Handler) CancelOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, err := paramUUID(c, "orderId", "order")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.Orders.CancelOrder(c.UserContext(), user.ID, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
