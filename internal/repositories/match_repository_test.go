package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/docstore"
)

func TestMutualLikeCreatesMatchOnBothSides(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	chats := NewChatRepo(store)
	repo := NewMatchRepo(store, chats)

	matched, err := repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, matched)

	matched, err = repo.Like(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, matched)

	forAlice, err := repo.GetMatches(ctx, "alice")
	require.NoError(t, err)
	forBob, err := repo.GetMatches(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, forAlice)
	assert.Equal(t, []string{"alice"}, forBob)

	header, err := chats.GetChat(ctx, ChatIDFor("alice", "bob"))
	require.NoError(t, err)
	assert.True(t, header.IsMatch)
}

func TestSingleLikeIsNotAMatch(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewMatchRepo(store, NewChatRepo(store))

	_, err := repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)

	matches, err := repo.GetMatches(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, matches)
	liked, err := docstore.GetFlag(ctx, store, "likes/alice/bob")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestDislikeDoesNotRevokeMatch(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewMatchRepo(store, NewChatRepo(store))

	_, err := repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = repo.Like(ctx, "bob", "alice")
	require.NoError(t, err)

	require.NoError(t, repo.Dislike(ctx, "alice", "bob"))

	liked, _ := docstore.GetFlag(ctx, store, "likes/alice/bob")
	assert.False(t, liked)
	reverse, _ := docstore.GetFlag(ctx, store, "likes/bob/alice")
	assert.True(t, reverse)
	matches, _ := repo.GetMatches(ctx, "alice")
	assert.Equal(t, []string{"bob"}, matches)
}

func TestLikeValidation(t *testing.T) {
	store := newFaultyStore()
	repo := NewMatchRepo(store, NewChatRepo(store))

	_, err := repo.Like(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Like(context.Background(), "", "bob")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, repo.Dislike(context.Background(), "alice", ""), ErrInvalidArgument)
	assert.Equal(t, 0, store.writesTo(""))
}

func TestLikeWriteFailure(t *testing.T) {
	store := newFaultyStore()
	store.failWrite = "likes/"
	repo := NewMatchRepo(store, NewChatRepo(store))

	_, err := repo.Like(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, ErrRemoteWrite)
}

func TestMatchHeaderFailureKeepsMatch(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	repo := NewMatchRepo(store, NewChatRepo(store))

	_, err := repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	store.failWrite = "chats/"

	matched, err := repo.Like(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, matched)
	matches, _ := repo.GetMatches(ctx, "bob")
	assert.Equal(t, []string{"alice"}, matches)
}

func TestLikeAgainAfterMatchIsNotNewMatch(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	repo := NewMatchRepo(store, NewChatRepo(store))

	_, err := repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	matched, err := repo.Like(ctx, "bob", "alice")
	require.NoError(t, err)
	require.True(t, matched)
	edgeWrites := store.writesTo("matches/")

	matched, err = repo.Like(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, matched)
	matched, err = repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, matched)

	assert.Equal(t, edgeWrites, store.writesTo("matches/"))
	matches, _ := repo.GetMatches(ctx, "alice")
	assert.Equal(t, []string{"bob"}, matches)
}

func TestLikeCompletesHalfWrittenMatch(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewMatchRepo(store, NewChatRepo(store))

	require.NoError(t, store.Put(ctx, "likes/bob/alice", true))
	require.NoError(t, store.Put(ctx, "matches/alice/bob", true))

	matched, err := repo.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, matched)
	matches, _ := repo.GetMatches(ctx, "bob")
	assert.Equal(t, []string{"alice"}, matches)
}

func TestRepairMatchesFillsMissingEdges(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	chats := NewChatRepo(store)
	repo := NewMatchRepo(store, chats)

	// mutual likes written without the match edges
	require.NoError(t, store.Put(ctx, "likes/alice/bob", true))
	require.NoError(t, store.Put(ctx, "likes/bob/alice", true))
	require.NoError(t, store.Put(ctx, "likes/alice/carol", true))
	require.NoError(t, store.Put(ctx, "matches/bob/alice", true))

	repaired, err := repo.RepairMatches(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, repaired)

	matches, _ := repo.GetMatches(ctx, "alice")
	assert.Equal(t, []string{"bob"}, matches)
	header, err := chats.GetChat(ctx, "alice_bob")
	require.NoError(t, err)
	assert.True(t, header.IsMatch)

	repaired, err = repo.RepairMatches(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, repaired)
}
