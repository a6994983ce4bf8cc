package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Username string `gorm:"unique;not null;size:50" json:"username"`
	Email    string `gorm:"unique;not null;size:100" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FullName string  `gorm:"size:100" json:"full_name"`
	Phone    *string `gorm:"size:20" json:"phone"`
	ImageURL string  `json:"image_url"`

	Role string `gorm:"default:'user';size:20" json:"role"` // user, admin

	// Maintained by the review aggregator and order engine.
	Rating     decimal.Decimal `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	TotalSales int             `gorm:"not null;default:0" json:"total_sales"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	FullName string          `json:"full_name"`
	ImageURL string          `json:"image_url"`
	Rating   decimal.Decimal `json:"rating"`
}
