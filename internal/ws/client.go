package ws

import (
	"context"
	"encoding/json"
	"time"

	"campus_marketplace/internal/apperr"
	"campus_marketplace/models"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed for a single client event to hit the store.
	handleTimeout = 10 * time.Second

	sendBuffer = 256
)

// Client events.
const (
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventSendMessage       = "send-message"
	EventMarkAsRead        = "mark-as-read"
	EventTyping            = "typing"
	EventStopTyping        = "stop-typing"
)

// Conversations is the messaging engine as seen by a socket.
type Conversations interface {
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
	SendMessage(ctx context.Context, conversationID, senderID uint, text string) (*models.Message, error)
	MarkAsRead(ctx context.Context, conversationID, userID uint) (int64, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// User ID derived from authentication
	UserID uint

	chat Conversations
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint, chat Conversations) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
		chat:   chat,
	}
}

type inbound struct {
	ConversationID uint   `json:"conversation_id"`
	Text           string `json:"text"`
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Detach(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Uint("user_id", c.UserID).Msg("websocket read failed")
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection. Each
// frame goes out as its own text message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.fail("Malformed message")
		return
	}
	var in inbound
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &in); err != nil {
			c.fail("Malformed message data")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch frame.Event {
	case EventJoinConversation:
		ok, err := c.chat.IsParticipant(ctx, in.ConversationID, c.UserID)
		if err != nil {
			c.failErr(err)
			return
		}
		if !ok {
			c.fail("Not a participant of this conversation")
			return
		}
		c.Hub.Join(c, in.ConversationID)

	case EventLeaveConversation:
		c.Hub.Leave(c, in.ConversationID)

	case EventSendMessage:
		if _, err := c.chat.SendMessage(ctx, in.ConversationID, c.UserID, in.Text); err != nil {
			c.failErr(err)
		}

	case EventMarkAsRead:
		if _, err := c.chat.MarkAsRead(ctx, in.ConversationID, c.UserID); err != nil {
			c.failErr(err)
		}

	case EventTyping, EventStopTyping:
		if !c.Hub.InRoom(c, in.ConversationID) {
			return
		}
		event := EventUserTyping
		if frame.Event == EventStopTyping {
			event = EventUserStopTyping
		}
		c.Hub.SendToConversation(in.ConversationID, encode(event, payload{
			"conversation_id": in.ConversationID,
			"user_id":         c.UserID,
		}), c)

	default:
		c.fail("Unknown event " + frame.Event)
	}
}

func (c *Client) fail(message string) {
	c.Hub.mutex.Lock()
	defer c.Hub.mutex.Unlock()
	c.Hub.deliver(c, encode(EventError, payload{"message": message}))
}

// failErr reports err to the client. Server faults are logged and hidden.
func (c *Client) failErr(err error) {
	if e, ok := apperr.As(err); ok {
		c.fail(e.Message)
		return
	}
	log.Error().Err(err).Uint("user_id", c.UserID).Msg("websocket event failed")
	c.fail("Internal server error")
}
