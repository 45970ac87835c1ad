package docstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTreeServer serves a MemoryStore over the REST conventions HTTPStore speaks.
func fakeTreeServer(t *testing.T, tree *MemoryStore, auth string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/*path", func(c *gin.Context) {
		if auth != "" && c.Query("auth") != auth {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Permission denied"})
			return
		}
		path := strings.TrimSuffix(strings.TrimPrefix(c.Param("path"), "/"), ".json")
		ctx := c.Request.Context()
		var body any
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &body); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}
		}

		switch c.Request.Method {
		case http.MethodGet:
			data, etag, err := tree.GetVersioned(ctx, path)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if c.GetHeader(etagRequestHeader) == "true" {
				c.Header("ETag", etag)
			}
			if data == nil {
				data = []byte("null")
			}
			c.Data(http.StatusOK, "application/json", data)
		case http.MethodPut:
			var err error
			if match := c.GetHeader("if-match"); match != "" {
				err = tree.PutIfMatch(ctx, path, body, match)
			} else {
				err = tree.Put(ctx, path, body)
			}
			if err != nil {
				c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, body)
		case http.MethodPost:
			id, err := tree.Post(ctx, path, body)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"name": id})
		case http.MethodPatch:
			if err := tree.Patch(ctx, path, body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, body)
		case http.MethodDelete:
			_ = tree.Delete(ctx, path)
			c.Data(http.StatusOK, "application/json", []byte("null"))
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := fakeTreeServer(t, NewMemoryStore(), "secret")
	store := NewHTTPStore(srv.URL, "secret", time.Second)

	require.NoError(t, store.Put(ctx, "chats/alice_bob", map[string]any{"chatId": "alice_bob", "isMatch": false}))
	require.NoError(t, store.Patch(ctx, "chats/alice_bob", map[string]any{"lastMessageText": "hi"}))

	var header map[string]any
	found, err := GetJSON(ctx, store, "chats/alice_bob", &header)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice_bob", header["chatId"])
	assert.Equal(t, "hi", header["lastMessageText"])

	require.NoError(t, store.Delete(ctx, "chats/alice_bob"))
	body, err := store.Get(ctx, "chats/alice_bob")
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestHTTPStoreEscapesPathSegments(t *testing.T) {
	ctx := context.Background()
	var requestURIs []string
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/*path", func(c *gin.Context) {
		requestURIs = append(requestURIs, c.Request.RequestURI)
		c.Data(http.StatusOK, "application/json", []byte("null"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	store := NewHTTPStore(srv.URL, "secret", time.Second)
	require.NoError(t, store.Put(ctx, "users/a?b c/name", "x"))

	require.Len(t, requestURIs, 1)
	assert.Equal(t, "/users/a%3Fb%20c/name.json?auth=secret", requestURIs[0])
}

func TestHTTPStoreRoundTripUnusualKeys(t *testing.T) {
	ctx := context.Background()
	tree := NewMemoryStore()
	store := NewHTTPStore(fakeTreeServer(t, tree, "secret").URL, "secret", time.Second)

	require.NoError(t, store.Put(ctx, "users/a?b c%d", map[string]any{"name": "odd"}))

	var profile map[string]any
	found, err := GetJSON(ctx, tree, "users/a?b c%d", &profile)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "odd", profile["name"])

	var users map[string]any
	_, err = GetJSON(ctx, tree, "users", &users)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Contains(t, users, "a?b c%d")
}

func TestHTTPStorePostReturnsAssignedID(t *testing.T) {
	ctx := context.Background()
	tree := NewMemoryStore()
	srv := fakeTreeServer(t, tree, "")
	store := NewHTTPStore(srv.URL, "", time.Second)

	id, err := store.Post(ctx, "chatMessages/alice_bob", map[string]any{"text": "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var msg map[string]any
	found, err := GetJSON(ctx, tree, Join("chatMessages/alice_bob", id), &msg)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hi", msg["text"])
}

func TestHTTPStoreNonSuccessStatusIsError(t *testing.T) {
	srv := fakeTreeServer(t, NewMemoryStore(), "secret")
	store := NewHTTPStore(srv.URL, "wrong", time.Second)

	_, err := store.Get(context.Background(), "chats/alice_bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestHTTPStoreConditionalPut(t *testing.T) {
	ctx := context.Background()
	srv := fakeTreeServer(t, NewMemoryStore(), "")
	store := NewHTTPStore(srv.URL, "", time.Second)
	path := "chatMeta/alice_bob/bob/unreadCount"

	_, etag, err := store.GetVersioned(ctx, path)
	require.NoError(t, err)
	require.NotEmpty(t, etag)
	require.NoError(t, store.PutIfMatch(ctx, path, 1, etag))

	err = store.PutIfMatch(ctx, path, 5, etag)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestHTTPStoreTransportError(t *testing.T) {
	store := NewHTTPStore("http://127.0.0.1:1", "", 200*time.Millisecond)

	err := store.Put(context.Background(), "likes/a/b", true)
	assert.Error(t, err)
}
