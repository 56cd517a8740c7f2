package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Delivery methods.
const (
	DeliveryStandard = "standard"
	DeliveryExpress  = "express"
	DeliveryPickup   = "pickup"
)

// Order is a snapshot of a purchase. Items, the shipping address and the
// payment sub-record are owned by value; after creation nothing refers back
// to the live cart or products except the product IDs used for stock
// accounting.
type Order struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User        *User     `json:"user,omitempty"`
	OrderNumber string    `gorm:"uniqueIndex" json:"order_number"`

	Items []OrderItem `json:"items"`

	ShippingFullName   string `json:"shipping_full_name"`
	ShippingPhone      string `json:"shipping_phone"`
	ShippingStreet     string `json:"shipping_street"`
	ShippingCity       string `json:"shipping_city"`
	ShippingRegion     string `json:"shipping_region"`
	ShippingLandmark   string `json:"shipping_landmark"`
	ShippingGPSAddress string `json:"shipping_gps_address"`

	PaymentMethod        string     `json:"payment_method"`
	PaymentProvider      string     `json:"payment_provider"`
	PaymentTransactionID string     `json:"payment_transaction_id"`
	PaymentStatus        string     `gorm:"default:pending" json:"payment_status"`
	PaidAt               *time.Time `json:"paid_at"`

	ItemsTotal   float64 `json:"items_total"`
	ShippingCost float64 `json:"shipping_cost"`
	Tax          float64 `json:"tax"`
	TotalAmount  float64 `json:"total_amount"`

	Status        string               `gorm:"index;default:pending" json:"status"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty"`

	DeliveryMethod    string     `gorm:"default:standard" json:"delivery_method"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	DeliveredAt       *time.Time `json:"delivered_at"`
	Notes             string     `json:"notes"`
}

// OrderItem is one product line copied into an order at creation time.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Image     string    `json:"image"`
}

// OrderStatusHistory is one append-only entry recorded on every status
// transition.
type OrderStatusHistory struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// CanCancel reports whether the customer may still cancel the order.
// Cancellation is only legal before fulfilment starts.
func (o *Order) CanCancel() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}

// ShippingCostFor returns the flat shipping fee for a delivery method.
func ShippingCostFor(method string) float64 {
	switch method {
	case DeliveryExpress:
		return 50
	case DeliveryPickup:
		return 0
	default:
		return 20
	}
}

// EstimatedDeliveryFor returns the promised delivery date for a method.
func EstimatedDeliveryFor(method string, from time.Time) time.Time {
	days := 5
	if method == DeliveryExpress {
		days = 2
	}
	return from.Add(time.Duration(days) * 24 * time.Hour)
}

// ValidDeliveryMethod reports whether method is a known delivery method.
func ValidDeliveryMethod(method string) bool {
	switch method {
	case DeliveryStandard, DeliveryExpress, DeliveryPickup:
		return true
	}
	return false
}

// ValidOrderStatus reports whether status is a known order status.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// NewOrderNumber generates an order number of the form GTS-YYMM-RRRR.
// Uniqueness is enforced by the database index; callers retry on collision.
func NewOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("GTS-%s-%04d", now.Format("0601"), suffix)
}
