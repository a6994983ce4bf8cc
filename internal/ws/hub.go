package ws

import (
	"encoding/json"
	"sync"

	"campus_marketplace/models"

	"github.com/rs/zerolog/log"
)

// Server events.
const (
	EventNewMessage          = "new-message"
	EventMessageNotification = "message-notification"
	EventMessagesRead        = "messages-read"
	EventUserTyping          = "user-typing"
	EventUserStopTyping      = "user-stop-typing"
	EventError               = "error"
)

// Frame is the JSON envelope used in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode websocket payload")
		return nil
	}
	out, _ := json.Marshal(Frame{Event: event, Data: raw})
	return out
}

// Hub tracks live connections per user and per joined conversation.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	clients     map[*Client]bool
	userClients map[uint][]*Client
	rooms       map[uint]map[*Client]bool
	mutex       sync.Mutex

	quit chan struct{}
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		userClients: make(map[uint][]*Client),
		rooms:       make(map[uint]map[*Client]bool),
		quit:        make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case <-h.quit:
			return
		}
	}
}

// Close stops Run. Connected clients are left to their read pumps.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.quit) })
}

// Attach hands a new client to Run. It reports false once the hub is closed.
func (h *Hub) Attach(client *Client) bool {
	select {
	case <-h.quit:
		return false
	default:
	}
	select {
	case h.Register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Detach hands a finished client to Run, or drops it when the hub is closed.
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.quit:
	}
}

func (h *Hub) register(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	count := len(h.userClients[client.UserID])
	h.mutex.Unlock()

	log.Debug().Uint("user_id", client.UserID).Int("connections", count).Msg("websocket connected")
}

func (h *Hub) unregister(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.Send)

	conns := h.userClients[client.UserID]
	for i, conn := range conns {
		if conn == client {
			h.userClients[client.UserID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.UserID]) == 0 {
		delete(h.userClients, client.UserID)
	}

	for id, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, id)
		}
	}

	log.Debug().Uint("user_id", client.UserID).Msg("websocket disconnected")
}

// Join subscribes client to a conversation channel. Callers check
// participation first.
func (h *Hub) Join(client *Client, conversationID uint) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	members, ok := h.rooms[conversationID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[conversationID] = members
	}
	members[client] = true
}

func (h *Hub) Leave(client *Client, conversationID uint) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if members, ok := h.rooms[conversationID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

func (h *Hub) InRoom(client *Client, conversationID uint) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.rooms[conversationID][client]
}

// SendToUser sends a message to every connection of userID.
func (h *Hub) SendToUser(userID uint, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, client := range h.userClients[userID] {
		h.deliver(client, message)
	}
}

// SendToConversation sends a message to every connection that joined the
// conversation, except skip.
func (h *Hub) SendToConversation(conversationID uint, message []byte, skip *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.rooms[conversationID] {
		if client != skip {
			h.deliver(client, message)
		}
	}
}

// deliver must be called with mutex held. A full buffer drops the message.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		log.Warn().Uint("user_id", client.UserID).Msg("websocket send buffer full, dropping message")
	}
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.userClients[userID]) > 0
}

// MessageCreated pushes the message to the conversation channel and a
// notification to each recipient's user channel.
func (h *Hub) MessageCreated(msg models.Message, recipients []uint) {
	h.SendToConversation(msg.ConversationID, encode(EventNewMessage, msg), nil)
	note := encode(EventMessageNotification, payload{
		"conversation_id": msg.ConversationID,
		"message":         msg,
	})
	for _, id := range recipients {
		h.SendToUser(id, note)
	}
}

func (h *Hub) MessagesRead(conversationID, readerID uint, count int64) {
	h.SendToConversation(conversationID, encode(EventMessagesRead, payload{
		"conversation_id": conversationID,
		"reader_id":       readerID,
		"count":           count,
	}), nil)
}

type payload = map[string]interface{}
