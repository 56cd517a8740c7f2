package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/models"
	"github.com/example/ghanatech/internal/services"
	"github.com/example/ghanatech/internal/utils"
)

// AdminHandler serves the role-gated back office.
type AdminHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, orders: orders}
}

// GetDashboard aggregates store-wide stats.
func (h *AdminHandler) GetDashboard(c *fiber.Ctx) error {
	var totalUsers, totalProducts, totalOrders int64

	if err := h.db.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&totalUsers).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&totalProducts).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64, len(statusCounts))
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status <> ?", models.OrderCancelled).
		Select("coalesce(sum(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var recentOrders []models.Order
	if err := h.db.Preload("User").
		Order("created_at desc").
		Limit(5).
		Find(&recentOrders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"stats": fiber.Map{
				"total_users":      totalUsers,
				"total_products":   totalProducts,
				"total_orders":     totalOrders,
				"total_revenue":    totalRevenue,
				"orders_by_status": ordersByStatus,
			},
			"recent_orders": recentOrders,
		},
	})
}

type adminProductRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       *float64              `json:"price"`
	Currency    string                `json:"currency"`
	Category    string                `json:"category"`
	Brand       string                `json:"brand"`
	Stock       *int                  `json:"stock"`
	Images      []models.ProductImage `json:"images"`
	IsFeatured  *bool                 `json:"is_featured"`
	Tags        []string              `json:"tags"`
}

// CreateProduct adds a catalog entry. The slug is derived from the name.
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req adminProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Description == "" || req.Brand == "" || req.Price == nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if *req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "stock cannot be negative")
	}
	if !models.ValidCategory(req.Category) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown category")
	}

	product := models.Product{
		Name:        req.Name,
		Slug:        utils.Slugify(req.Name),
		Description: req.Description,
		Price:       *req.Price,
		Currency:    req.Currency,
		Category:    req.Category,
		Brand:       req.Brand,
		Images:      req.Images,
		IsActive:    true,
		Tags:        req.Tags,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if product.Currency == "" {
		product.Currency = "GHS"
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product created",
		"data":    fiber.Map{"product": product},
	})
}

// UpdateProduct edits a catalog entry, regenerating the slug whenever the
// name changes.
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req adminProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" && req.Name != product.Name {
		product.Name = req.Name
		product.Slug = utils.Slugify(req.Name)
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
		}
		product.Price = *req.Price
	}
	if req.Currency != "" {
		product.Currency = req.Currency
	}
	if req.Category != "" {
		if !models.ValidCategory(req.Category) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown category")
		}
		product.Category = req.Category
	}
	if req.Brand != "" {
		product.Brand = req.Brand
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock cannot be negative")
		}
		product.Stock = *req.Stock
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.Images != nil {
			if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
			for i := range req.Images {
				req.Images[i].ProductID = product.ID
			}
			if len(req.Images) > 0 {
				if err := tx.Create(&req.Images).Error; err != nil {
					return err
				}
			}
			product.Images = req.Images
		}

		return tx.Save(&product).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated",
		"data":    fiber.Map{"product": product},
	})
}

// DeleteProduct soft-deletes a product by marking it inactive.
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if err := h.db.Model(&product).Update("is_active", false).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product deleted"})
}

// ListAllOrders returns every order, paginated, for the back office.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, 20)
	orders, total, err := h.orders.ListAll(c.Query("status"), pg.Limit, pg.Offset)
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

type updateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// UpdateOrderStatus is the administrative status override.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateStatus(id, req.Status, req.Note)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated",
		"data":    fiber.Map{"order": order},
	})
}

// ListUsers returns customer accounts, paginated.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, 20)

	query := h.db.Model(&models.User{}).Where("role = ?", models.RoleCustomer)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"users": users},
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ToggleUserStatus flips a user's active flag.
func (h *AdminHandler) ToggleUserStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	user.IsActive = !user.IsActive
	if err := h.db.Model(&user).Update("is_active", user.IsActive).Error; err != nil {
		return err
	}

	message := "User deactivated"
	if user.IsActive {
		message = "User activated"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    fiber.Map{"user": user},
	})
}
