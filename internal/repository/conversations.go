package repository

import (
	"context"
	"fmt"
	"time"

	"campus_marketplace/models"

	"gorm.io/gorm"
)

type conversationRepo struct {
	db *gorm.DB
}

func (r *conversationRepo) FindByBuyerAndProduct(ctx context.Context, buyerID, productID uint) (*models.Conversation, error) {
	var c models.Conversation
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND buyer_id = ?", productID, buyerID).
		First(&c).Error
	if err != nil {
		return nil, fmt.Errorf("conversationRepo.FindByBuyerAndProduct: %w", translate(err))
	}
	return &c, nil
}

func (r *conversationRepo) Create(ctx context.Context, c *models.Conversation) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("conversationRepo.Create: %w", translate(err))
	}
	return nil
}

func (r *conversationRepo) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, fmt.Errorf("conversationRepo.GetByID: %w", translate(err))
	}
	return &c, nil
}

func (r *conversationRepo) Participants(ctx context.Context, id uint) ([]models.ConversationParticipant, error) {
	var ps []models.ConversationParticipant
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", id).Order("id").Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("conversationRepo.Participants: %w", err)
	}
	return ps, nil
}

func (r *conversationRepo) IsParticipant(ctx context.Context, id, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", id, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("conversationRepo.IsParticipant: %w", err)
	}
	return n > 0, nil
}

func (r *conversationRepo) AddMessage(ctx context.Context, m *models.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("conversationRepo.AddMessage: %w", translate(err))
	}
	return nil
}

func (r *conversationRepo) Touch(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
	if err != nil {
		return fmt.Errorf("conversationRepo.Touch: %w", err)
	}
	return nil
}

func (r *conversationRepo) IncrementUnread(ctx context.Context, id, exceptUserID uint) error {
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id <> ?", id, exceptUserID).
		UpdateColumn("unread_count", gorm.Expr("unread_count + 1")).Error
	if err != nil {
		return fmt.Errorf("conversationRepo.IncrementUnread: %w", err)
	}
	return nil
}

func (r *conversationRepo) MarkMessagesRead(ctx context.Context, id, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", id, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("conversationRepo.MarkMessagesRead: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *conversationRepo) ResetUnread(ctx context.Context, id, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", id, userID).
		UpdateColumn("unread_count", 0).Error
	if err != nil {
		return fmt.Errorf("conversationRepo.ResetUnread: %w", err)
	}
	return nil
}

func (r *conversationRepo) Messages(ctx context.Context, id uint, limit, offset int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", id).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("conversationRepo.Messages: %w", err)
	}
	return msgs, nil
}

const inboxQuery = `
	SELECT
		c.id, c.product_id, c.last_message_at,
		p.title AS product_title, p.image_url AS product_image,
		COALESCE(other.user_id, 0) AS other_user_id,
		COALESCE(u.username, '') AS other_username,
		COALESCE((
			SELECT m.text FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		), '') AS last_message,
		me.unread_count
	FROM conversations c
	JOIN conversation_participants me ON me.conversation_id = c.id AND me.user_id = ?
	LEFT JOIN conversation_participants other ON other.conversation_id = c.id AND other.user_id <> ?
	LEFT JOIN users u ON u.id = other.user_id
	JOIN products p ON p.id = c.product_id
	ORDER BY c.last_message_at DESC
`

func (r *conversationRepo) ListForUser(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	out := []models.ConversationSummary{}
	if err := r.db.WithContext(ctx).Raw(inboxQuery, userID, userID).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("conversationRepo.ListForUser: %w", err)
	}
	return out, nil
}

func (r *conversationRepo) UnreadTotal(ctx context.Context, userID uint) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("user_id = ?", userID).
		Row().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("conversationRepo.UnreadTotal: %w", err)
	}
	return n, nil
}

// Delete removes the conversation together with its participants and
// messages. Callers run it inside a transaction.
func (r *conversationRepo) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("conversationRepo.Delete messages: %w", err)
	}
	if err := db.Where("conversation_id = ?", id).Delete(&models.ConversationParticipant{}).Error; err != nil {
		return fmt.Errorf("conversationRepo.Delete participants: %w", err)
	}
	res := db.Delete(&models.Conversation{}, id)
	if res.Error != nil {
		return fmt.Errorf("conversationRepo.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("conversationRepo.Delete: %w", ErrNotFound)
	}
	return nil
}
