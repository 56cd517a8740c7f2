package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/middleware"
	"github.com/example/ghanatech/internal/models"
)

// CartHandler manages the per-user cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.loadOrCreateCart(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"cart": cart}})
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddToCart appends a line or merges quantity into an existing one, with the
// captured price refreshed to the current product price.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if product.Stock < req.Quantity {
		return fiber.NewError(fiber.StatusBadRequest, "insufficient stock")
	}

	cart, err := h.loadOrCreateCart(user.ID)
	if err != nil {
		return err
	}

	cart.AddItem(productID, req.Quantity, product.Price)
	if err := h.saveCart(cart); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item added to cart",
		"data":    fiber.Map{"cart": cart},
	})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem sets the quantity of one line; zero or less removes it.
// The stock check happens here, before the aggregate is touched.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var cart models.Cart
	if err := h.db.Preload("Items").First(&cart, "user_id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "cart not found")
		}
		return err
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err == nil {
		if product.Stock < req.Quantity {
			return fiber.NewError(fiber.StatusBadRequest, "insufficient stock")
		}
	}

	if !cart.UpdateItemQuantity(productID, req.Quantity) {
		return fiber.NewError(fiber.StatusNotFound, "item not in cart")
	}

	if err := h.saveCart(&cart); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart updated",
		"data":    fiber.Map{"cart": &cart},
	})
}

// RemoveFromCart drops one line from the cart.
func (h *CartHandler) RemoveFromCart(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var cart models.Cart
	if err := h.db.Preload("Items").First(&cart, "user_id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "cart not found")
		}
		return err
	}

	cart.RemoveItem(productID)
	if err := h.saveCart(&cart); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item removed from cart",
		"data":    fiber.Map{"cart": &cart},
	})
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var cart models.Cart
	if err := h.db.Preload("Items").First(&cart, "user_id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "cart not found")
		}
		return err
	}

	cart.Clear()
	if err := h.saveCart(&cart); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart cleared",
		"data":    fiber.Map{"cart": &cart},
	})
}

func (h *CartHandler) loadOrCreateCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := h.db.Preload("Items.Product.Images").First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := h.db.Create(&cart).Error; err != nil {
		return nil, err
	}

	return &cart, nil
}

// saveCart replaces the stored line set and persists the recomputed totals.
func (h *CartHandler) saveCart(cart *models.Cart) error {
	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
			cart.Items[i].Product = nil
		}
		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Updates(map[string]any{
				"total_items": cart.TotalItems,
				"total_price": cart.TotalPrice,
			}).Error
	})
}
