package models

import "time"

type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"not null;uniqueIndex:idx_conversation_product_buyer" json:"product_id"`
	BuyerID       uint      `gorm:"not null;uniqueIndex:idx_conversation_product_buyer" json:"buyer_id"` // one thread per buyer and listing
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`

	Participants []ConversationParticipant `gorm:"constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Messages     []Message                 `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Product      *Product                  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

type ConversationParticipant struct {
	ID             uint `gorm:"primaryKey" json:"-"`
	ConversationID uint `gorm:"not null;uniqueIndex:idx_participant" json:"conversation_id"`
	UserID         uint `gorm:"not null;uniqueIndex:idx_participant;index" json:"user_id"`
	UnreadCount    int  `gorm:"not null;default:0" json:"unread_count"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	ID            uint      `json:"id"`
	ProductID     uint      `json:"product_id"`
	ProductTitle  string    `json:"product_title"`
	ProductImage  string    `json:"product_image"`
	OtherUserID   uint      `json:"other_user_id"`
	OtherUsername string    `json:"other_username"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}
