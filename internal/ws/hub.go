package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/telemetry"
)

const writeWait = 10 * time.Second

type client struct {
	conn *websocket.Conn
	info ConnInfo

	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

// Hub maintains active websocket rooms, one per chat.
type Hub struct {
	chatRooms map[string]map[*websocket.Conn]*client
	emitter   *telemetry.EventEmitter
	mu        sync.RWMutex
}

// NewHub creates an empty hub. emitter may be nil.
func NewHub(emitter *telemetry.EventEmitter) *Hub {
	return &Hub{
		chatRooms: make(map[string]map[*websocket.Conn]*client),
		emitter:   emitter,
	}
}

// AddChatClient registers a websocket connection to a chat room.
func (h *Hub) AddChatClient(chatID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.chatRooms[chatID]; !ok {
		h.chatRooms[chatID] = make(map[*websocket.Conn]*client)
	}
	h.chatRooms[chatID][conn] = &client{conn: conn, info: info}
}

// RemoveChatClient removes a chat websocket connection.
func (h *Hub) RemoveChatClient(chatID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.chatRooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.chatRooms, chatID)
		}
	}
}

// ClientCount returns the number of connections subscribed to the chat.
func (h *Hub) ClientCount(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chatRooms[chatID])
}

// BroadcastChatMessage sends an appended message to all clients in a chat.
func (h *Hub) BroadcastChatMessage(chatID string, msg models.ChatMessage) {
	h.broadcast(chatID, models.ChatEvent{Type: "message", Message: &msg})
}

// BroadcastRead tells the chat that userID has read it.
func (h *Hub) BroadcastRead(chatID string, userID string) {
	h.broadcast(chatID, models.ChatEvent{Type: "read", UserID: userID})
}

func (h *Hub) broadcast(chatID string, event models.ChatEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.chatRooms[chatID]))
	for _, cl := range h.chatRooms[chatID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, _ := json.Marshal(event)
	for _, cl := range clients {
		if err := cl.write(payload); err != nil {
			log.Printf("websocket write error chat_id=%s conn_id=%s: %v", chatID, cl.info.ConnID, err)
			cl.conn.Close()
			h.RemoveChatClient(chatID, cl.conn)
			h.publishWSError(chatID, cl.info, err)
		}
	}
}

func (cl *client) write(payload []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) publishWSError(chatID string, info ConnInfo, err error) {
	observability.IncWSEvent("chat", "ws_error")
	h.emitter.Emit(context.Background(), telemetry.EventWSError, info.RequestID, info.UserID, info.payload(chatID, err.Error()))
}
