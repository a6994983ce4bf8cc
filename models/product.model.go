package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductActive    ProductStatus = "active"
	ProductPending   ProductStatus = "pending"
	ProductSold      ProductStatus = "sold"
	ProductSuspended ProductStatus = "suspended"
	ProductRejected  ProductStatus = "rejected"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductPending, ProductSold, ProductSuspended, ProductRejected:
		return true
	}
	return false
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SellerID    uint            `gorm:"index;not null" json:"seller_id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Category    string          `gorm:"size:50;index" json:"category"`
	Condition   string          `gorm:"size:20" json:"condition"` // new, like_new, good, fair
	ImageURL    string          `json:"image_url"`
	Status      ProductStatus   `gorm:"default:'pending';size:20;index" json:"status"`

	// Best-effort counters, never updated inside a correctness transaction.
	Views      int `gorm:"not null;default:0" json:"views"`
	Interested int `gorm:"not null;default:0" json:"interested"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // order items keep pointing at deleted listings

	Seller *User `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
}

// ProductFilter composes the listing predicates. Zero values are ignored.
type ProductFilter struct {
	Category string
	Search   string
	SellerID uint
	Status   ProductStatus
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	Limit    int
}
