package models

import (
	"github.com/google/uuid"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered account. Accounts are deactivated, never
// hard-deleted.
type User struct {
	BaseModel
	Name         string    `json:"name"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Role         string    `gorm:"default:customer" json:"role"`
	Addresses    []Address `json:"addresses,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
}

// Address is a saved delivery address belonging to a user.
type Address struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	Landmark   string    `json:"landmark"`
	GPSAddress string    `json:"gps_address"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
