package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ghanatech/internal/models"
)

// orderNumberAttempts bounds the retry loop when a generated order number
// collides with an existing one.
const orderNumberAttempts = 5

// OrderService owns the order lifecycle: creation from a cart snapshot,
// customer cancellation with compensating stock restoration, and the
// administrative status override.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// ShippingAddressInput is the delivery address snapshot supplied at checkout.
type ShippingAddressInput struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Landmark   string `json:"landmark"`
	GPSAddress string `json:"gps_address"`
}

// CreateOrderInput carries checkout parameters.
type CreateOrderInput struct {
	ShippingAddress ShippingAddressInput `json:"shipping_address"`
	PaymentMethod   string               `json:"payment_method"`
	DeliveryMethod  string               `json:"delivery_method"`
	Notes           string               `json:"notes"`
}

// CreateFromCart turns the user's cart into an order. Stock is re-validated
// against the live products and reserved inside a single transaction; any
// line that cannot be covered rolls the whole order back. On success the
// cart is cleared.
func (s *OrderService) CreateFromCart(userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	deliveryMethod := input.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = models.DeliveryStandard
	}
	if !models.ValidDeliveryMethod(deliveryMethod) {
		return nil, ErrInvalidStatus
	}

	var cart models.Cart
	if err := s.db.Preload("Items").First(&cart, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	estimated := models.EstimatedDeliveryFor(deliveryMethod, now)

	order := models.Order{
		UserID:             userID,
		ShippingFullName:   input.ShippingAddress.FullName,
		ShippingPhone:      input.ShippingAddress.Phone,
		ShippingStreet:     input.ShippingAddress.Street,
		ShippingCity:       input.ShippingAddress.City,
		ShippingRegion:     input.ShippingAddress.Region,
		ShippingLandmark:   input.ShippingAddress.Landmark,
		ShippingGPSAddress: input.ShippingAddress.GPSAddress,
		PaymentMethod:      input.PaymentMethod,
		PaymentStatus:      models.PaymentPending,
		Status:             models.OrderPending,
		DeliveryMethod:     deliveryMethod,
		EstimatedDelivery:  &estimated,
		Notes:              input.Notes,
		StatusHistory: []models.OrderStatusHistory{
			{Status: models.OrderPending, Timestamp: now},
		},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var itemsTotal float64

		for _, line := range cart.Items {
			var product models.Product
			if err := tx.Preload("Images").First(&product, "id = ?", line.ProductID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrProductNotFound
				}
				return err
			}

			if product.Stock < line.Quantity {
				return &InsufficientStockError{ProductName: product.Name}
			}

			// Guarded decrement keeps concurrent checkouts from overselling.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, line.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{ProductName: product.Name}
			}

			order.Items = append(order.Items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  line.Quantity,
				Image:     product.PrimaryImageURL(),
			})

			itemsTotal += product.Price * float64(line.Quantity)
		}

		order.ItemsTotal = itemsTotal
		order.ShippingCost = models.ShippingCostFor(deliveryMethod)
		order.Tax = 0
		order.TotalAmount = order.ItemsTotal + order.ShippingCost + order.Tax

		number, err := s.reserveOrderNumber(tx, now)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := clearCart(tx, &cart); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// Cancel transitions an order to cancelled and restores the reserved stock.
// Only orders still in pending or confirmed may be cancelled.
func (s *OrderService) Cancel(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.CanCancel() {
		return nil, ErrInvalidTransition
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&order).Update("status", models.OrderCancelled).Error; err != nil {
			return err
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.OrderCancelled,
			Timestamp: time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderCancelled
	return &order, nil
}

// UpdateStatus is the administrative override: it sets any known status
// without consulting the customer transition table. Marking an order
// delivered also stamps the delivery time and forces payment to completed.
func (s *OrderService) UpdateStatus(orderID uuid.UUID, status, note string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{"status": status}
	if status == models.OrderDelivered {
		updates["delivered_at"] = &now
		updates["payment_status"] = models.PaymentCompleted
		updates["paid_at"] = &now
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    status,
			Timestamp: now,
			Note:      note,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	order.Status = status
	if status == models.OrderDelivered {
		order.DeliveredAt = &now
		order.PaymentStatus = models.PaymentCompleted
		order.PaidAt = &now
	}

	return &order, nil
}

// ListForUser returns a page of the user's orders, newest first, optionally
// filtered by status.
func (s *OrderService) ListForUser(userID uuid.UUID, status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetForUser loads a single order owned by the user.
func (s *OrderService) GetForUser(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("StatusHistory").
		First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// ListAll returns a page of every order, newest first, for the admin view.
func (s *OrderService) ListAll(status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// reserveOrderNumber generates an order number that is not yet taken. The
// unique index remains the final arbiter; this loop just keeps collisions
// from surfacing as opaque insert failures.
func (s *OrderService) reserveOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		number := models.NewOrderNumber(now)

		var count int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}

	// Fall back to a nanosecond suffix rather than failing the checkout.
	return fmt.Sprintf("%s-%d", models.NewOrderNumber(now), time.Now().UnixNano()%1000000000), nil
}

func clearCart(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}

	return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Updates(map[string]any{"total_items": 0, "total_price": 0}).Error
}
