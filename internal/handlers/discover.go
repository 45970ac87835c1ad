package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/discover"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// DiscoverHandler drives the caller's swipe session.
type DiscoverHandler struct {
	registry *discover.Registry
	emitter  *telemetry.EventEmitter
}

func NewDiscoverHandler(registry *discover.Registry, emitter *telemetry.EventEmitter) *DiscoverHandler {
	return &DiscoverHandler{registry: registry, emitter: emitter}
}

// ApplyFilters replaces the filter; history is cleared and the pool rebuilt from a
// fresh read of the profiles.
func (h *DiscoverHandler) ApplyFilters(c *gin.Context) {
	filter := discover.DefaultFilter()
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := filter.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.registry.Refresh(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to refresh discover session")
		return
	}
	if err := session.ApplyFilters(filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"filter": session.Filter(), "current": currentOrNil(session), "remaining": session.Remaining()})
}

func (h *DiscoverHandler) Current(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": currentOrNil(session), "remaining": session.Remaining()})
}

func (h *DiscoverHandler) Like(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	decision, err := session.Like(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not like candidate")
		return
	}

	if decision.Matched {
		userID := currentUser(c)
		emitMatch(c, h.emitter, userID, decision.Candidate.ID, repositories.ChatIDFor(userID, decision.Candidate.ID))
	}
	c.JSON(http.StatusOK, decision)
}

func (h *DiscoverHandler) Dislike(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	decision, err := session.Dislike(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not dislike candidate")
		return
	}
	c.JSON(http.StatusOK, decision)
}

// Rewind restores the previous candidate. An empty history is not an error.
func (h *DiscoverHandler) Rewind(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	_, rewound := session.Rewind()
	c.JSON(http.StatusOK, gin.H{"rewound": rewound, "current": currentOrNil(session)})
}

func (h *DiscoverHandler) session(c *gin.Context) (*discover.Session, bool) {
	session, err := h.registry.Session(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to start discover session")
		return nil, false
	}
	return session, true
}

func currentOrNil(session *discover.Session) *models.Profile {
	if current, ok := session.Current(); ok {
		return &current
	}
	return nil
}
