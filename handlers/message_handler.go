package handlers

import (
	"campus_marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	chat *service.MessagingService
}

func NewMessageHandler(chat *service.MessagingService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

type StartConversationRequest struct {
	ProductID uint   `json:"product_id"`
	Text      string `json:"text"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

// ListConversations - GET /api/messages
func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.chat.ListConversations(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "Conversations retrieved", convs)
}

// GetMessages - GET /api/messages/:id
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	msgs, err := h.chat.GetMessages(c.UserContext(), id, actor(c).UserID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ok(c, "Messages retrieved", msgs)
}

// StartConversation - POST /api/messages
func (h *MessageHandler) StartConversation(c *fiber.Ctx) error {
	var req StartConversationRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	conv, msg, err := h.chat.CreateConversation(c.UserContext(), actor(c).UserID, req.ProductID, req.Text)
	if err != nil {
		return err
	}
	return created(c, "Message sent", fiber.Map{"conversation": conv, "message": msg})
}

// SendMessage - POST /api/messages/:id
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req SendMessageRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	msg, err := h.chat.SendMessage(c.UserContext(), id, actor(c).UserID, req.Text)
	if err != nil {
		return err
	}
	return created(c, "Message sent", msg)
}

// MarkAsRead - PUT /api/messages/:id/read
func (h *MessageHandler) MarkAsRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.chat.MarkAsRead(c.UserContext(), id, actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "Messages marked as read", fiber.Map{"marked": n})
}

// UnreadCount - GET /api/messages/unread/count
func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.chat.UnreadCount(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "Unread count retrieved", fiber.Map{"count": n})
}

// DeleteConversation - DELETE /api/messages/:id
func (h *MessageHandler) DeleteConversation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.chat.DeleteConversation(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "Conversation deleted", nil)
}
