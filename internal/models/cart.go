package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a line of a buyer's cart. Price is the unit price captured when
// the product was first added and is not refreshed from the catalog.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Unit      string          `json:"unitType,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"addedAt"`
}
