package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// CartLine is a cart row joined with the product and seller it refers to.
type CartLine struct {
	ItemID         uint            `json:"id"`
	ProductID      uint            `json:"product_id"`
	Quantity       int             `json:"quantity"`
	AddedAt        time.Time       `json:"added_at"`
	Title          string          `json:"title"`
	Price          decimal.Decimal `json:"price"`
	ImageURL       string          `json:"image_url"`
	Status         ProductStatus   `json:"status"`
	SellerID       uint            `json:"seller_id"`
	SellerUsername string          `json:"seller_username"`
	SellerName     string          `json:"seller_name"`
}

func (l CartLine) Available() bool {
	return l.Status == ProductActive
}

type CartTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
}
