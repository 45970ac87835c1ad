package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetAbsentReturnsNil(t *testing.T) {
	store := NewMemoryStore()

	body, err := store.Get(context.Background(), "chats/alice_bob")
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.True(t, IsNull(body))
}

func TestMemoryStorePutGetNested(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "likes/alice/bob", true))
	require.NoError(t, store.Put(ctx, "likes/alice/carol", true))

	targets, err := GetFlags(ctx, store, "likes/alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, targets)

	liked, err := GetFlag(ctx, store, "likes/alice/bob")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestMemoryStorePatchMergesChildren(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "chats/a_b", map[string]any{"chatId": "a_b", "lastMessageText": ""}))
	require.NoError(t, store.Patch(ctx, "chats/a_b", map[string]any{"lastMessageText": "hi", "lastMessageAt": 5}))

	var header struct {
		ChatID          string `json:"chatId"`
		LastMessageText string `json:"lastMessageText"`
		LastMessageAt   int64  `json:"lastMessageAt"`
	}
	found, err := GetJSON(ctx, store, "chats/a_b", &header)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a_b", header.ChatID)
	assert.Equal(t, "hi", header.LastMessageText)
	assert.Equal(t, int64(5), header.LastMessageAt)
}

func TestMemoryStorePostAssignsOrderedIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.Post(ctx, "chatMessages/a_b", map[string]any{"text": "one"})
	require.NoError(t, err)
	second, err := store.Post(ctx, "chatMessages/a_b", map[string]any{"text": "two"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)

	var msgs map[string]map[string]any
	found, err := GetJSON(ctx, store, "chatMessages/a_b", &msgs)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, msgs, 2)
}

func TestMemoryStoreDeletePrunesEmptyParents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "friendRequests/bob/alice", true))
	require.NoError(t, store.Delete(ctx, "friendRequests/bob/alice"))
	require.NoError(t, store.Delete(ctx, "friendRequests/bob/nobody"))

	body, err := store.Get(ctx, "friendRequests")
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestMemoryStoreConditionalPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	path := "chatMeta/a_b/b/unreadCount"

	_, etag, err := store.GetVersioned(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.PutIfMatch(ctx, path, 1, etag))

	err = store.PutIfMatch(ctx, path, 2, etag)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	var count int
	_, err = GetJSON(ctx, store, path, &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStoreRejectsInvalidPath(t *testing.T) {
	store := NewMemoryStore()

	err := store.Put(context.Background(), "users/a.b", true)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestJoinDropsEmptySegments(t *testing.T) {
	assert.Equal(t, "chatMeta/a_b/alice/unreadCount", Join("chatMeta", "a_b/", "", "/alice", "unreadCount"))
}
