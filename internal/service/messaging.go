package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"campus_marketplace/internal/repository"
	"campus_marketplace/models"
)

// Notifier fans messaging changes out to connected clients.
type Notifier interface {
	// MessageCreated is sent to the conversation channel, and to the user
	// channel of every participant except the sender.
	MessageCreated(msg models.Message, recipients []uint)
	MessagesRead(conversationID, readerID uint, count int64)
}

type nopNotifier struct{}

func (nopNotifier) MessageCreated(models.Message, []uint) {}
func (nopNotifier) MessagesRead(uint, uint, int64)        {}

type MessagingService struct {
	store    repository.Store
	notifier Notifier
}

func NewMessagingService(store repository.Store, notifier Notifier) *MessagingService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MessagingService{store: store, notifier: notifier}
}

// SetNotifier replaces the fan-out target. The hub and the service depend
// on each other, so one of them has to be wired late.
func (s *MessagingService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateConversation opens a thread between buyer and the product's seller.
// When the buyer already has a thread for this product the message is
// appended to it instead.
func (s *MessagingService) CreateConversation(ctx context.Context, buyerID, productID uint, text string) (*models.Conversation, *models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ErrEmptyMessage
	}

	p, err := s.store.Products().GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrProductNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if p.SellerID == buyerID {
		return nil, nil, ErrSelfMessage
	}

	existing, err := s.store.Conversations().FindByBuyerAndProduct(ctx, buyerID, productID)
	if err == nil {
		return s.appendTo(ctx, existing, buyerID, text)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}

	now := time.Now()
	conv := &models.Conversation{
		ProductID:     productID,
		BuyerID:       buyerID,
		CreatedAt:     now,
		LastMessageAt: now,
		Participants: []models.ConversationParticipant{
			{UserID: buyerID, UnreadCount: 0},
			{UserID: p.SellerID, UnreadCount: 1},
		},
	}
	msg := &models.Message{SenderID: buyerID, Text: text, CreatedAt: now}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Conversations().Create(ctx, conv); err != nil {
			return err
		}
		msg.ConversationID = conv.ID
		return tx.Conversations().AddMessage(ctx, msg)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent first message created the thread.
		existing, err := s.store.Conversations().FindByBuyerAndProduct(ctx, buyerID, productID)
		if err != nil {
			return nil, nil, err
		}
		return s.appendTo(ctx, existing, buyerID, text)
	}
	if err != nil {
		return nil, nil, err
	}

	s.notifier.MessageCreated(*msg, []uint{p.SellerID})
	return conv, msg, nil
}

func (s *MessagingService) appendTo(ctx context.Context, conv *models.Conversation, senderID uint, text string) (*models.Conversation, *models.Message, error) {
	msg, err := s.SendMessage(ctx, conv.ID, senderID, text)
	if err != nil {
		return nil, nil, err
	}
	return conv, msg, nil
}

// SendMessage appends to a thread and bumps every other participant's
// unread counter in the same transaction.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, senderID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	msg := &models.Message{ConversationID: conversationID, SenderID: senderID, Text: text, CreatedAt: time.Now()}
	var recipients []uint
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		participants, err := s.participants(ctx, tx, conversationID, senderID)
		if err != nil {
			return err
		}
		if err := tx.Conversations().AddMessage(ctx, msg); err != nil {
			return err
		}
		if err := tx.Conversations().Touch(ctx, conversationID, msg.CreatedAt); err != nil {
			return err
		}
		if err := tx.Conversations().IncrementUnread(ctx, conversationID, senderID); err != nil {
			return err
		}
		for _, p := range participants {
			if p.UserID != senderID {
				recipients = append(recipients, p.UserID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.MessageCreated(*msg, recipients)
	return msg, nil
}

// MarkAsRead flips is_read on the other side's messages and zeroes the
// reader's counter.
func (s *MessagingService) MarkAsRead(ctx context.Context, conversationID, userID uint) (int64, error) {
	var n int64
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := s.participants(ctx, tx, conversationID, userID); err != nil {
			return err
		}
		var err error
		n, err = tx.Conversations().MarkMessagesRead(ctx, conversationID, userID)
		if err != nil {
			return err
		}
		return tx.Conversations().ResetUnread(ctx, conversationID, userID)
	})
	if err != nil {
		return 0, err
	}

	s.notifier.MessagesRead(conversationID, userID, n)
	return n, nil
}

// GetMessages returns the thread oldest first.
func (s *MessagingService) GetMessages(ctx context.Context, conversationID, userID uint, limit, offset int) ([]models.Message, error) {
	if _, err := s.participants(ctx, s.store, conversationID, userID); err != nil {
		return nil, err
	}
	switch {
	case limit < 1:
		limit = 50
	case limit > 100:
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Conversations().Messages(ctx, conversationID, limit, offset)
}

func (s *MessagingService) ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	return s.store.Conversations().ListForUser(ctx, userID)
}

func (s *MessagingService) UnreadCount(ctx context.Context, userID uint) (int, error) {
	return s.store.Conversations().UnreadTotal(ctx, userID)
}

func (s *MessagingService) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	return s.store.Conversations().IsParticipant(ctx, conversationID, userID)
}

func (s *MessagingService) DeleteConversation(ctx context.Context, actor Actor, conversationID uint) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if !actor.IsAdmin() {
			if _, err := s.participants(ctx, tx, conversationID, actor.UserID); err != nil {
				return err
			}
		} else if _, err := tx.Conversations().GetByID(ctx, conversationID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrConversationNotFound
			}
			return err
		}
		return tx.Conversations().Delete(ctx, conversationID)
	})
}

// participants loads the thread's members and checks userID is one of them.
func (s *MessagingService) participants(ctx context.Context, store repository.Store, conversationID, userID uint) ([]models.ConversationParticipant, error) {
	if _, err := store.Conversations().GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	ps, err := store.Conversations().Participants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		if p.UserID == userID {
			return ps, nil
		}
	}
	return nil, ErrNotParticipant
}
