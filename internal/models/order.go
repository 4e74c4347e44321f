package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// PaymentMethods accepted at checkout.
var PaymentMethods = []string{"cash", "upi", "card"}

// ShippingAddress is where an order is delivered.
type ShippingAddress struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Street   string `json:"street" validate:"required,max=200"`
	City     string `json:"city" validate:"required,max=100"`
	State    string `json:"state" validate:"required,max=100"`
	Pincode  string `json:"pincode" validate:"required,numeric,len=6"`
}

// OrderItem represents a single line of an order.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   string          `json:"-" gorm:"type:varchar(36);index"`
	ProductID string          `json:"productId" gorm:"type:varchar(36)"`
	Name      string          `json:"name" gorm:"type:varchar(100)"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"` // Price at the time of order
	LineTotal decimal.Decimal `json:"lineTotal" gorm:"type:decimal(12,2)"`
}

// Order represents a placed checkout.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID         string          `json:"buyerId" gorm:"type:varchar(36);index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   string          `json:"paymentMethod" gorm:"type:varchar(10)"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2)"`
	ShippingCost    decimal.Decimal `json:"shippingCost" gorm:"type:decimal(12,2)"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2)"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AutoMigrateModels lists the models the schema is migrated for.
func AutoMigrateModels() []interface{} {
	return []interface{}{&User{}, &Product{}, &Order{}, &OrderItem{}}
}
