package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/middleware"
	"github.com/example/ghanatech/internal/models"
	"github.com/example/ghanatech/internal/utils"
)

// ProductHandler serves the public catalog.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// sortColumns whitelists user-supplied sort keys.
var sortColumns = map[string]string{
	"price":          "price asc",
	"-price":         "price desc",
	"name":           "name asc",
	"-name":          "name desc",
	"createdAt":      "created_at asc",
	"-createdAt":     "created_at desc",
	"averageRating":  "average_rating asc",
	"-averageRating": "average_rating desc",
}

// ListProducts returns active products with filtering, sorting and
// pagination. Reviews are left out of list responses.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, 12)
	query := h.db.Model(&models.Product{}).Where("is_active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if brand := c.Query("brand"); brand != "" {
		query = query.Where("brand = ?", brand)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR brand ILIKE ?", q, q, q)
	}

	order := "created_at desc"
	if sort, ok := sortColumns[c.Query("sort")]; ok {
		order = sort
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Images").
		Order(order).
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"products": products},
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a single product with its reviews.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Images").Preload("Reviews").
		First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"product": product}})
}

// GetFeatured returns up to eight featured active products.
func (h *ProductHandler) GetFeatured(c *fiber.Ctx) error {
	var products []models.Product
	if err := h.db.Preload("Images").
		Where("is_featured = ? AND is_active = ?", true, true).
		Limit(8).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"products": products}})
}

// GetCategories returns the closed category list with per-category counts
// of active products.
func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	type categoryCount struct {
		Category string
		Count    int64
	}

	var counts []categoryCount
	if err := h.db.Model(&models.Product{}).
		Select("category, count(*) as count").
		Where("is_active = ?", true).
		Group("category").
		Scan(&counts).Error; err != nil {
		return err
	}

	countMap := make(map[string]int64, len(counts))
	for _, cc := range counts {
		countMap[cc.Category] = cc.Count
	}

	result := make([]fiber.Map, 0, len(models.Categories))
	for _, name := range models.Categories {
		result = append(result, fiber.Map{"name": name, "count": countMap[name]})
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"categories": result}})
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview attaches a review to a product and recomputes its rating.
// A user may review a product once.
func (h *ProductHandler) AddReview(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}
	if req.Comment == "" {
		return fiber.NewError(fiber.StatusBadRequest, "comment is required")
	}

	var product models.Product
	if err := h.db.Preload("Reviews").First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	for _, review := range product.Reviews {
		if review.UserID == user.ID {
			return fiber.NewError(fiber.StatusBadRequest, "you have already reviewed this product")
		}
	}

	review := models.Review{
		ProductID: product.ID,
		UserID:    user.ID,
		UserName:  user.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	product.Reviews = append(product.Reviews, review)
	product.RecalculateRating()

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Updates(map[string]any{
				"average_rating": product.AverageRating,
				"num_reviews":    product.NumReviews,
			}).Error
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review added",
		"data":    fiber.Map{"product": product},
	})
}

// GetRelated returns up to four active products sharing the product's
// category or brand.
func (h *ProductHandler) GetRelated(c *fiber.Ctx) error {
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

	var related []models.Product
	if err := h.db.Preload("Images").
		Where("id <> ? AND is_active = ?", product.ID, true).
		Where(h.db.Where("category = ?", product.Category).Or("brand = ?", product.Brand)).
		Limit(4).
		Find(&related).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"products": related}})
}
