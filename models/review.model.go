package models

import "time"

type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReviewerID uint      `gorm:"not null;uniqueIndex:idx_review_reviewer_product" json:"reviewer_id"`
	ProductID  *uint     `gorm:"uniqueIndex:idx_review_reviewer_product" json:"product_id"`
	SellerID   uint      `gorm:"index;not null" json:"seller_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	ReviewerName string `gorm:"->;-:migration" json:"reviewer_name,omitempty"`
}

type RatingStats struct {
	Average      float64     `json:"average"`
	Total        int64       `json:"total"`
	Distribution map[int]int `json:"distribution"`
}
