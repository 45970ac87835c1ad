package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// FriendHandler exposes the friend request protocol.
type FriendHandler struct {
	friendRepo repositories.FriendRepository
	emitter    *telemetry.EventEmitter
}

func NewFriendHandler(friendRepo repositories.FriendRepository, emitter *telemetry.EventEmitter) *FriendHandler {
	return &FriendHandler{friendRepo: friendRepo, emitter: emitter}
}

// SendRequest asks target to become friends.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := currentUser(c)
	target := c.Param("other_id")
	if target == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot befriend yourself"})
		return
	}

	if err := h.friendRepo.CreateRequest(c.Request.Context(), userID, target); err != nil {
		respondError(c, err, "could not send friend request")
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventFriendRequested, requestIDFromContext(c), userID, telemetry.FriendPayload{
		FromUserID: userID,
		ToUserID:   target,
	})
	c.JSON(http.StatusCreated, gin.H{"status": "pending"})
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	ids, err := h.friendRepo.IncomingRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load friend requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": ids})
}

// AcceptRequest accepts a pending request from other.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	userID := currentUser(c)
	other := c.Param("other_id")

	pending, err := h.friendRepo.HasIncomingRequest(c.Request.Context(), userID, other)
	if err != nil {
		respondError(c, err, "failed to load friend request")
		return
	}
	if !pending {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending request"})
		return
	}

	if err := h.friendRepo.AcceptFriendship(c.Request.Context(), userID, other); err != nil {
		respondError(c, err, "could not accept friend request")
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventFriendAccepted, requestIDFromContext(c), userID, telemetry.FriendPayload{
		FromUserID: other,
		ToUserID:   userID,
	})
	c.JSON(http.StatusOK, gin.H{"status": "friends"})
}

func (h *FriendHandler) RejectRequest(c *gin.Context) {
	if err := h.friendRepo.RejectRequest(c.Request.Context(), currentUser(c), c.Param("other_id")); err != nil {
		respondError(c, err, "could not reject friend request")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	ids, err := h.friendRepo.GetFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to load friends")
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": ids})
}

// FriendStatus reports the friendship and pending requests between the caller and other.
func (h *FriendHandler) FriendStatus(c *gin.Context) {
	userID := currentUser(c)
	other := c.Param("other_id")

	var friends, incoming, outgoing bool
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		friends, err = h.friendRepo.AreFriends(ctx, userID, other)
		return err
	})
	g.Go(func() (err error) {
		incoming, err = h.friendRepo.HasIncomingRequest(ctx, userID, other)
		return err
	})
	g.Go(func() (err error) {
		outgoing, err = h.friendRepo.HasOutgoingRequest(ctx, userID, other)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, err, "failed to load friend status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"friends":          friends,
		"incoming_request": incoming,
		"outgoing_request": outgoing,
	})
}
