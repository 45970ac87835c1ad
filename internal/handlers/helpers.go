package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social-service/internal/conversations"
	"social-service/internal/discover"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// RequestID assigns every request an id, echoed in the X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Request-ID", requestIDFromContext(c))
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString("userID")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrChatNotFound),
		errors.Is(err, conversations.ErrConversationNotFound),
		errors.Is(err, discover.ErrNoCandidate):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrRemoteWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes msg with the status err maps to.
func respondError(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed request_id=%s path=%s: %v", requestIDFromContext(c), c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": msg})
}
