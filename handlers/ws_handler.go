package handlers

import (
	"campus_marketplace/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type ChatHandler struct {
	hub  *ws.Hub
	chat ws.Conversations
}

func NewChatHandler(hub *ws.Hub, chat ws.Conversations) *ChatHandler {
	return &ChatHandler{hub: hub, chat: chat}
}

// WebSocketUpgradeMiddleware ensures the client is trying to upgrade to WebSocket
func (h *ChatHandler) WebSocketUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket handler function. The auth middleware has
// already resolved the user.
func (h *ChatHandler) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			log.Warn().Msg("websocket connection without a user")
			c.Close()
			return
		}

		client := ws.NewClient(h.hub, c, userID, h.chat)
		if !h.hub.Attach(client) {
			c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
