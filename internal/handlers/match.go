package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// MatchHandler exposes likes and matches.
type MatchHandler struct {
	matchRepo repositories.MatchRepository
	emitter   *telemetry.EventEmitter
}

func NewMatchHandler(matchRepo repositories.MatchRepository, emitter *telemetry.EventEmitter) *MatchHandler {
	return &MatchHandler{matchRepo: matchRepo, emitter: emitter}
}

// Like records a like and reports whether it completed a match.
func (h *MatchHandler) Like(c *gin.Context) {
	userID := currentUser(c)
	target := c.Param("target_id")

	matched, err := h.matchRepo.Like(c.Request.Context(), userID, target)
	if err != nil {
		respondError(c, err, "could not record like")
		return
	}

	resp := gin.H{"matched": matched}
	if matched {
		chatID := repositories.ChatIDFor(userID, target)
		resp["chat_id"] = chatID
		emitMatch(c, h.emitter, userID, target, chatID)
	}
	c.JSON(http.StatusOK, resp)
}

// Dislike removes the caller's like. Existing matches stay.
func (h *MatchHandler) Dislike(c *gin.Context) {
	if err := h.matchRepo.Dislike(c.Request.Context(), currentUser(c), c.Param("target_id")); err != nil {
		respondError(c, err, "could not remove like")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	ids, err := h.matchRepo.GetMatches(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": ids})
}

// RepairMatches writes match edges missing for mutual likes of the caller.
func (h *MatchHandler) RepairMatches(c *gin.Context) {
	ids, err := h.matchRepo.RepairMatches(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to repair matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": ids})
}

func emitMatch(c *gin.Context, emitter *telemetry.EventEmitter, userID, otherID, chatID string) {
	emitter.Emit(c.Request.Context(), telemetry.EventMatchCreated, requestIDFromContext(c), userID, telemetry.MatchPayload{
		UserID:      userID,
		OtherUserID: otherID,
		ChatID:      chatID,
	})
}
