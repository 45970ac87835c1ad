package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/conversations"
	"social-service/internal/docstore"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

type conversationFixture struct {
	store   *docstore.MemoryStore
	chats   *repositories.ChatRepo
	matches *repositories.MatchRepo
	router  *gin.Engine
}

func newConversationFixture(t *testing.T) *conversationFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := docstore.NewMemoryStore()
	chats := repositories.NewChatRepo(store)
	matches := repositories.NewMatchRepo(store, chats)
	svc := conversations.NewService(
		chats,
		repositories.NewMessageRepo(store, chats),
		matches,
		repositories.NewFriendRepo(store),
		repositories.NewProfileRepo(store),
	)
	handler := NewConversationHandler(svc)

	r := gin.New()
	withUser(r, "alice")
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations/:other_id/favorite", handler.ToggleFavorite)
	r.POST("/conversations/:other_id/block", handler.Block)
	r.DELETE("/conversations/:other_id/block", handler.Unblock)
	r.DELETE("/conversations/:other_id", handler.DeleteConversation)
	r.POST("/conversations/:other_id/unhide", handler.Unhide)

	return &conversationFixture{store: store, chats: chats, matches: matches, router: r}
}

func (f *conversationFixture) match(t *testing.T, other string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.matches.Like(ctx, "alice", other)
	require.NoError(t, err)
	matched, err := f.matches.Like(ctx, other, "alice")
	require.NoError(t, err)
	require.True(t, matched)
}

func (f *conversationFixture) list(t *testing.T, query string) []models.ChatItem {
	t.Helper()
	rec := doJSON(f.router, http.MethodGet, "/conversations"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ChatItem `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Conversations
}

func TestListConversations(t *testing.T) {
	f := newConversationFixture(t)
	f.match(t, "bob")

	items := f.list(t, "")
	require.Len(t, items, 1)
	assert.Equal(t, "bob", items[0].OtherUserID)
	assert.Equal(t, "alice_bob", items[0].ChatID)
	assert.True(t, items[0].IsMatch)

	assert.Empty(t, f.list(t, "?filter=friends"))
}

func TestListConversationsUnknownFilter(t *testing.T) {
	f := newConversationFixture(t)
	rec := doJSON(f.router, http.MethodGet, "/conversations?filter=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleFavoriteReturnsRankedList(t *testing.T) {
	f := newConversationFixture(t)
	f.match(t, "bob")
	f.match(t, "carol")

	rec := doJSON(f.router, http.MethodPost, "/conversations/carol/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Favorite      bool              `json:"favorite"`
		Conversations []models.ChatItem `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Favorite)
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, "carol", resp.Conversations[0].OtherUserID)

	header, err := f.chats.GetChat(context.Background(), "alice_carol")
	require.NoError(t, err)
	assert.True(t, header.Favorites["alice"])
}

func TestToggleFavoriteUnknownConversation(t *testing.T) {
	f := newConversationFixture(t)
	rec := doJSON(f.router, http.MethodPost, "/conversations/zed/favorite", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockHidesConversation(t *testing.T) {
	f := newConversationFixture(t)
	f.match(t, "bob")

	rec := doJSON(f.router, http.MethodPost, "/conversations/bob/block", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.list(t, ""))

	header, err := f.chats.GetChat(context.Background(), "alice_bob")
	require.NoError(t, err)
	assert.True(t, header.Blocked["alice"])
}

func TestDeleteAndUnhideConversation(t *testing.T) {
	f := newConversationFixture(t)
	f.match(t, "bob")

	rec := doJSON(f.router, http.MethodDelete, "/conversations/bob", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.list(t, ""))

	hidden, err := f.chats.IsHidden(context.Background(), "alice_bob", "alice")
	require.NoError(t, err)
	assert.True(t, hidden)

	rec = doJSON(f.router, http.MethodPost, "/conversations/bob/unhide", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	hidden, err = f.chats.IsHidden(context.Background(), "alice_bob", "alice")
	require.NoError(t, err)
	assert.False(t, hidden)
}
