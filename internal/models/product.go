package models

import (
	"math"

	"github.com/google/uuid"
)

// Categories is the closed set of product categories the store sells.
var Categories = []string{
	"Smartphones",
	"Laptops",
	"Tablets",
	"Accessories",
	"Audio",
	"Gaming",
	"Smart Home",
	"Wearables",
	"Cameras",
	"Networking",
}

// ValidCategory reports whether name is one of the known categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Product is a catalog entry. Stock is never allowed to go negative;
// AverageRating and NumReviews are derived from Reviews and recomputed on
// every review insert.
type Product struct {
	BaseModel
	Name          string         `json:"name"`
	Slug          string         `gorm:"uniqueIndex" json:"slug"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Currency      string         `gorm:"default:GHS" json:"currency"`
	Category      string         `gorm:"index" json:"category"`
	Brand         string         `json:"brand"`
	Stock         int            `json:"stock"`
	Images        []ProductImage `json:"images,omitempty"`
	Reviews       []Review       `json:"reviews,omitempty"`
	AverageRating float64        `json:"average_rating"`
	NumReviews    int            `json:"num_reviews"`
	IsFeatured    bool           `gorm:"index" json:"is_featured"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	Tags          []string       `gorm:"serializer:json" json:"tags"`
}

// ProductImage is one image attached to a product.
type ProductImage struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt"`
	IsPrimary bool      `json:"is_primary"`
}

// Review is a customer review embedded in a product. One review per user
// per product.
type Review struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
}

// RecalculateRating recomputes AverageRating and NumReviews from the loaded
// review list. The average is rounded to one decimal place.
func (p *Product) RecalculateRating() {
	if len(p.Reviews) == 0 {
		p.AverageRating = 0
		p.NumReviews = 0
		return
	}

	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}

	p.AverageRating = math.Round(float64(sum)/float64(len(p.Reviews))*10) / 10
	p.NumReviews = len(p.Reviews)
}

// PrimaryImageURL returns the primary image URL, falling back to the first
// image, or empty when the product has none.
func (p *Product) PrimaryImageURL() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
