package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting is the single-row marketplace configuration table.
type Setting struct {
	ID                     uint            `gorm:"primaryKey" json:"-"`
	CommissionRate         decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"commission_rate"`
	MinCommission          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"min_commission"`
	RequireListingApproval bool            `gorm:"not null;default:false" json:"require_listing_approval"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// DefaultSetting is used when the table has not been seeded.
func DefaultSetting() Setting {
	return Setting{
		ID:             1,
		CommissionRate: decimal.RequireFromString("0.05"),
		MinCommission:  decimal.RequireFromString("0.50"),
	}
}
