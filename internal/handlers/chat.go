package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

// ChatHandler manages one-to-one chat endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	matchRepo   repositories.MatchRepository
	friendRepo  repositories.FriendRepository
	hub         *ws.Hub
	emitter     *telemetry.EventEmitter
	pageSize    int
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(
	chatRepo repositories.ChatRepository,
	messageRepo repositories.MessageRepository,
	matchRepo repositories.MatchRepository,
	friendRepo repositories.FriendRepository,
	hub *ws.Hub,
	emitter *telemetry.EventEmitter,
	pageSize int,
) *ChatHandler {
	if pageSize <= 0 {
		pageSize = repositories.DefaultMessageLimit
	}
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		friendRepo:  friendRepo,
		hub:         hub,
		emitter:     emitter,
		pageSize:    pageSize,
	}
}

// StartChat creates or returns the chat with a match or friend.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		OtherID string `json:"other_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUser(c)
	if userID == req.OtherID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	connected, err := h.connected(c, userID, req.OtherID)
	if err != nil {
		respondError(c, err, "failed to check connection")
		return
	}
	if !connected {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not matched or friends"})
		return
	}

	chatID, err := h.chatRepo.GetOrCreateChat(c.Request.Context(), userID, req.OtherID)
	if err != nil {
		respondError(c, err, "could not create chat")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chatID})
}

func (h *ChatHandler) connected(c *gin.Context, userID, otherID string) (bool, error) {
	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, otherID)
	if err != nil || friends {
		return friends, err
	}
	matches, err := h.matchRepo.GetMatches(c.Request.Context(), userID)
	if err != nil {
		return false, err
	}
	for _, id := range matches {
		if id == otherID {
			return true, nil
		}
	}
	return false, nil
}

// GetChatMessages returns the latest messages of a chat, oldest first.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	limit := h.pageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	header, ok := h.memberChat(c)
	if !ok {
		return
	}

	msgs, err := h.messageRepo.GetMessages(c.Request.Context(), header.ChatID, limit)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage appends a message and broadcasts it to the chat's websockets.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or image is required"})
		return
	}

	header, ok := h.memberChat(c)
	if !ok {
		return
	}
	userID := currentUser(c)
	recipient := header.OtherParticipant(userID)
	if header.Blocked[recipient] {
		c.JSON(http.StatusForbidden, gin.H{"error": "blocked by recipient"})
		return
	}

	msg, err := h.messageRepo.SendMessage(c.Request.Context(), header.ChatID, models.ChatMessage{
		SenderID: userID,
		Text:     req.Text,
		Image:    req.Image,
	})
	if err != nil {
		respondError(c, err, "failed to store message")
		return
	}

	h.hub.BroadcastChatMessage(header.ChatID, msg)
	h.emitter.Emit(c.Request.Context(), telemetry.EventMessageSent, requestIDFromContext(c), userID, telemetry.MessagePayload{
		ChatID:      header.ChatID,
		MessageID:   msg.ID,
		SenderID:    userID,
		RecipientID: recipient,
		HasImage:    msg.Image != "",
	})
	c.JSON(http.StatusCreated, msg)
}

// MarkRead records read receipts on the latest page and zeroes the caller's counter.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	header, ok := h.memberChat(c)
	if !ok {
		return
	}
	userID := currentUser(c)

	msgs, err := h.messageRepo.GetMessages(c.Request.Context(), header.ChatID, h.pageSize)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	if err := h.messageRepo.MarkAsRead(c.Request.Context(), header.ChatID, userID, msgs); err != nil {
		respondError(c, err, "failed to mark messages read")
		return
	}

	h.hub.BroadcastRead(header.ChatID, userID)
	c.Status(http.StatusNoContent)
}

// memberChat loads the chat named in the path and checks the caller belongs to it.
// It writes the error response and returns false otherwise.
func (h *ChatHandler) memberChat(c *gin.Context) (models.ChatHeader, bool) {
	chatID := c.Param("chat_id")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return models.ChatHeader{}, false
	}

	header, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return models.ChatHeader{}, false
	}
	if !header.HasParticipant(currentUser(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return models.ChatHeader{}, false
	}
	return header, true
}
