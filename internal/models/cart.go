package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the per-user shopping cart. At most one line item exists per
// product; TotalItems and TotalPrice must be recomputed before every persist.
type Cart struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

// CartItem is one product line in a cart. Price is captured at add time.
type CartItem struct {
	BaseModel
	CartID    uuid.UUID `gorm:"type:uuid;index" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	AddedAt   time.Time `json:"added_at"`
}

// RecalculateTotals recomputes the derived totals from the line items.
func (c *Cart) RecalculateTotals() {
	totalItems := 0
	totalPrice := 0.0
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalPrice += item.Price * float64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
}

// AddItem merges quantity into an existing line for the product, refreshing
// the captured price, or appends a new line.
func (c *Cart) AddItem(productID uuid.UUID, quantity int, price float64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].Price = price
			c.RecalculateTotals()
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		CartID:    c.ID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		AddedAt:   time.Now(),
	})
	c.RecalculateTotals()
}

// UpdateItemQuantity sets the quantity on the matching line. A quantity of
// zero or less removes the line. Returns false when no line matches.
func (c *Cart) UpdateItemQuantity(productID uuid.UUID, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if quantity <= 0 {
				c.RemoveItem(productID)
				return true
			}
			c.Items[i].Quantity = quantity
			c.RecalculateTotals()
			return true
		}
	}
	return false
}

// RemoveItem drops the line for the product, if present.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	filtered := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}
	c.Items = filtered
	c.RecalculateTotals()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
	c.RecalculateTotals()
}
