package models

import (
	"strings"
	"time"
)

// UserType is the account role chosen at registration.
type UserType string

const (
	Buyer  UserType = "buyer"
	Seller UserType = "seller"
)

// Valid reports whether t is a known account role.
func (t UserType) Valid() bool {
	return t == Buyer || t == Seller
}

// Address is a postal address embedded in users and orders.
type Address struct {
	Street  string `json:"street" validate:"omitempty,max=200"`
	City    string `json:"city" validate:"omitempty,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	Pincode string `json:"pincode" validate:"omitempty,numeric,len=6"`
}

// User represents an account of the marketplace.
type User struct {
	ID           string   `gorm:"primaryKey;type:varchar(36)"`
	Name         string   `gorm:"type:varchar(100);not null"`
	Email        string   `gorm:"uniqueIndex;type:varchar(255);not null"`
	Phone        string   `gorm:"type:varchar(20)"`
	PasswordHash string   `gorm:"type:varchar(255);not null"` // Never serialized
	UserType     UserType `gorm:"type:varchar(10);index;not null"`
	Address      Address  `gorm:"embedded;embeddedPrefix:address_"`
	AadharNumber string   `gorm:"type:varchar(12)"` // Sellers only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing view of a User. It never carries the
// password hash or the national id.
type PublicUser struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	UserType UserType `json:"userType"`
	Address  Address  `json:"address"`
}

// Public returns the client-facing view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		UserType: u.UserType,
		Address:  u.Address,
	}
}

// NormalizeEmail lowercases and trims an email so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
