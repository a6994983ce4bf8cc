package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderCompleted || s == OrderCancelled
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid
}

type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentPaypal PaymentMethod = "paypal"
	PaymentOther  PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCredit || m == PaymentPaypal || m == PaymentOther
}

// DeliveryInfo is embedded into the order row.
type DeliveryInfo struct {
	Address string `gorm:"column:delivery_address;type:text" json:"address"`
	City    string `gorm:"column:delivery_city;size:100" json:"city"`
	State   string `gorm:"column:delivery_state;size:50" json:"state"`
	Zip     string `gorm:"column:delivery_zip;size:20" json:"zip"`
	Phone   string `gorm:"column:delivery_phone;size:20" json:"phone"`
	Notes   string `gorm:"column:delivery_notes;type:text" json:"notes"`
}

type Order struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Human-readable, ORD- followed by five digits. Unique.
	OrderNumber string `gorm:"size:16;not null;uniqueIndex" json:"order_number"`
	BuyerID     uint   `gorm:"index;not null" json:"buyer_id"`

	Total      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	ServiceFee decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"service_fee"`

	Status        OrderStatus   `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"size:20;not null" json:"payment_method"`

	Delivery DeliveryInfo `gorm:"embedded" json:"delivery"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Buyer *User       `gorm:"foreignKey:BuyerID" json:"-"`
}

type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID       uint            `gorm:"index;not null" json:"product_id"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_purchase"`

	// Read-side projection, filled by joins.
	Title    string `gorm:"-" json:"title,omitempty"`
	SellerID uint   `gorm:"-" json:"seller_id,omitempty"`

	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Page          int
	Limit         int
}

type OrderStats struct {
	TotalOrders     int64           `db:"total_orders" json:"total_orders"`
	PendingOrders   int64           `db:"pending_orders" json:"pending_orders"`
	CompletedOrders int64           `db:"completed_orders" json:"completed_orders"`
	CancelledOrders int64           `db:"cancelled_orders" json:"cancelled_orders"`
	Revenue         decimal.Decimal `db:"revenue" json:"revenue"`
	FeesCollected   decimal.Decimal `db:"fees_collected" json:"fees_collected"`
}

type MonthlySales struct {
	Month  string          `db:"month" json:"month"` // YYYY-MM
	Orders int64           `db:"orders" json:"orders"`
	Sales  decimal.Decimal `db:"sales" json:"sales"`
}
