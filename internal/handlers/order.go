package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/middleware"
	"github.com/example/ghanatech/internal/services"
	"github.com/example/ghanatech/internal/utils"
)

// OrderHandler exposes the customer-facing order lifecycle.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

// CreateOrder places an order from the caller's cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.CreateFromCart(user.ID, input)
	if err != nil {
		return mapOrderError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed successfully",
		"data":    fiber.Map{"order": order},
	})
}

// ListOrders returns the caller's orders, paginated and optionally filtered
// by status.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c, 10)
	orders, total, err := h.orders.ListForUser(user.ID, c.Query("status"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"orders": orders},
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns one of the caller's orders.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.GetForUser(user.ID, id)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"order": order}})
}

// CancelOrder cancels one of the caller's orders while it is still
// cancellable.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.Cancel(user.ID, id)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order cancelled",
		"data":    fiber.Map{"order": order},
	})
}

// mapOrderError translates service errors onto HTTP statuses.
func mapOrderError(err error) error {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return fiber.NewError(fiber.StatusBadRequest, stockErr.Error())
	case errors.Is(err, services.ErrEmptyCart):
		return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusBadRequest, "order cannot be cancelled at this stage")
	case errors.Is(err, services.ErrInvalidStatus):
		return fiber.NewError(fiber.StatusBadRequest, "invalid order status")
	case errors.Is(err, services.ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrProductNotFound):
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrAlreadyPaid):
		return fiber.NewError(fiber.StatusBadRequest, "order already paid")
	default:
		return err
	}
}
