package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Categories lists the catalog categories in display order.
var Categories = []string{
	"vegetables",
	"fruits",
	"grains",
	"dairy",
	"tools",
	"seeds",
	"fertilizers",
}

// IsCategory reports whether c is a known catalog category.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Product represents a catalog entry listed by a seller.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:varchar(500)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	Category    string          `json:"category" gorm:"type:varchar(30);index"`
	SellerID    string          `json:"sellerId" gorm:"type:varchar(36);index"`
	SellerName  string          `json:"seller" gorm:"type:varchar(100)"`
	ImageURL    string          `json:"imageUrl" gorm:"type:varchar(500)"`
	Unit        string          `json:"unitType" gorm:"type:varchar(20)"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"reviews"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}
