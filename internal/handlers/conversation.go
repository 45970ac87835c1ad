package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/conversations"
)

// ConversationHandler serves the merged conversation list and its mutations.
type ConversationHandler struct {
	svc *conversations.Service
}

func NewConversationHandler(svc *conversations.Service) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// ListConversations returns the ranked list, optionally narrowed by ?filter=.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	filter, err := conversations.ParseFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.svc.Load(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": view.Items(filter)})
}

// ToggleFavorite flips the favorite flag and returns the re-ranked list.
func (h *ConversationHandler) ToggleFavorite(c *gin.Context) {
	view, ok := h.load(c)
	if !ok {
		return
	}

	favorite, err := view.ToggleFavorite(c.Request.Context(), c.Param("other_id"))
	if err != nil {
		respondError(c, err, "could not update favorite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": favorite, "conversations": view.Items(conversations.FilterAll)})
}

// Block hides the conversation for the caller and records the block.
func (h *ConversationHandler) Block(c *gin.Context) {
	view, ok := h.load(c)
	if !ok {
		return
	}
	if err := view.Block(c.Request.Context(), c.Param("other_id")); err != nil {
		respondError(c, err, "could not block user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) Unblock(c *gin.Context) {
	view, ok := h.load(c)
	if !ok {
		return
	}
	if err := view.Unblock(c.Request.Context(), c.Param("other_id")); err != nil {
		respondError(c, err, "could not unblock user")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteConversation hides the conversation for the caller only.
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	view, ok := h.load(c)
	if !ok {
		return
	}
	if err := view.Delete(c.Request.Context(), c.Param("other_id")); err != nil {
		respondError(c, err, "could not delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) Unhide(c *gin.Context) {
	view, ok := h.load(c)
	if !ok {
		return
	}
	if err := view.Unhide(c.Request.Context(), c.Param("other_id")); err != nil {
		respondError(c, err, "could not restore conversation")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) load(c *gin.Context) (*conversations.View, bool) {
	view, err := h.svc.Load(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load conversations")
		return nil, false
	}
	return view, true
}
