package conversations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/models"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func TestMergeCombinesAllSourcesIntoOneRow(t *testing.T) {
	items := Merge("alice", Sources{
		Matches: []string{"bob"},
		Friends: []string{"bob"},
		Chats: []HeaderEntry{{
			Header: models.ChatHeader{ChatID: "alice_bob", ParticipantA: "alice", ParticipantB: "bob", LastMessageText: "hey", LastMessageAt: 1234},
			Unread: 2,
		}},
	}, fixedNow)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "bob", item.OtherUserID)
	assert.Equal(t, "alice_bob", item.ChatID)
	assert.True(t, item.IsMatch)
	assert.True(t, item.IsFriend)
	assert.Equal(t, "hey", item.LastMessageText)
	assert.Equal(t, int64(1234), item.LastMessageAt)
	assert.Equal(t, 2, item.UnreadCount)
}

func TestMergeDefaultsPreviewAndTimestamp(t *testing.T) {
	items := Merge("alice", Sources{
		Matches: []string{"bob"},
		Friends: []string{"carol"},
	}, fixedNow)

	require.Len(t, items, 2)
	assert.Equal(t, "bob", items[0].OtherUserID)
	assert.Equal(t, MatchedPreview, items[0].LastMessageText)
	assert.Equal(t, fixedNow.UnixMilli(), items[0].LastMessageAt)
	assert.Equal(t, "carol", items[1].OtherUserID)
	assert.Equal(t, FriendPreview, items[1].LastMessageText)
	assert.Equal(t, "alice_carol", items[1].ChatID)
}

func TestMergeHeaderMatchFlagCounts(t *testing.T) {
	items := Merge("bob", Sources{
		Chats: []HeaderEntry{{Header: models.ChatHeader{ChatID: "alice_bob", ParticipantA: "alice", ParticipantB: "bob", IsMatch: true}}},
	}, fixedNow)

	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].OtherUserID)
	assert.True(t, items[0].IsMatch)
	assert.Equal(t, MatchedPreview, items[0].LastMessageText)
}

func TestMergeDropsBlockedAndHiddenForViewer(t *testing.T) {
	items := Merge("alice", Sources{
		Friends: []string{"bob", "carol", "dave"},
		Chats: []HeaderEntry{
			{Header: models.ChatHeader{ChatID: "alice_bob", ParticipantA: "alice", ParticipantB: "bob", Blocked: map[string]bool{"alice": true}}},
			{Header: models.ChatHeader{ChatID: "alice_carol", ParticipantA: "alice", ParticipantB: "carol"}, Hidden: true},
			// dave blocked alice; that does not hide dave from alice
			{Header: models.ChatHeader{ChatID: "alice_dave", ParticipantA: "alice", ParticipantB: "dave", Blocked: map[string]bool{"dave": true}}},
		},
	}, fixedNow)

	require.Len(t, items, 1)
	assert.Equal(t, "dave", items[0].OtherUserID)
}

func TestMergeSkipsSelfAndForeignHeaders(t *testing.T) {
	items := Merge("alice", Sources{
		Matches: []string{"alice", ""},
		Chats:   []HeaderEntry{{Header: models.ChatHeader{ChatID: "bob_carol", ParticipantA: "bob", ParticipantB: "carol"}}},
	}, fixedNow)

	assert.Empty(t, items)
}

func TestSortPrecedence(t *testing.T) {
	items := Merge("me", Sources{
		Matches: []string{"oldmatch", "newmatch"},
		Friends: []string{"favfriend", "plainfriend"},
		Chats: []HeaderEntry{
			{Header: models.ChatHeader{ChatID: "me_oldmatch", ParticipantA: "me", ParticipantB: "oldmatch", LastMessageText: "a", LastMessageAt: 10}},
			{Header: models.ChatHeader{ChatID: "me_newmatch", ParticipantA: "me", ParticipantB: "newmatch", LastMessageText: "b", LastMessageAt: 50}},
			{Header: models.ChatHeader{ChatID: "favfriend_me", ParticipantA: "favfriend", ParticipantB: "me", LastMessageText: "c", LastMessageAt: 1, Favorites: map[string]bool{"me": true}}},
			{Header: models.ChatHeader{ChatID: "me_plainfriend", ParticipantA: "me", ParticipantB: "plainfriend", LastMessageText: "d", LastMessageAt: 99}},
		},
	}, fixedNow)

	order := make([]string, 0, len(items))
	for _, item := range items {
		order = append(order, item.OtherUserID)
	}
	assert.Equal(t, []string{"favfriend", "newmatch", "oldmatch", "plainfriend"}, order)
}

func TestSortTieBreaksOnOtherUser(t *testing.T) {
	list := []models.ChatItem{
		{OtherUserID: "zed", LastMessageAt: 5},
		{OtherUserID: "amy", LastMessageAt: 5},
	}
	Sort(list)
	assert.Equal(t, "amy", list[0].OtherUserID)
}

func TestFilters(t *testing.T) {
	list := []models.ChatItem{
		{OtherUserID: "m", IsMatch: true},
		{OtherUserID: "f", IsFriend: true},
		{OtherUserID: "fav", IsFriend: true, IsFavorite: true},
	}

	cases := []struct {
		raw  string
		want []string
	}{
		{"", []string{"m", "f", "fav"}},
		{"ALL", []string{"m", "f", "fav"}},
		{"matches", []string{"m"}},
		{"friends", []string{"f", "fav"}},
		{"favorites", []string{"fav"}},
	}
	for _, tc := range cases {
		filter, err := ParseFilter(tc.raw)
		require.NoError(t, err)
		got := make([]string, 0)
		for _, item := range filter.Apply(list) {
			got = append(got, item.OtherUserID)
		}
		assert.Equal(t, tc.want, got, "filter %q", tc.raw)
	}

	_, err := ParseFilter("strangers")
	assert.Error(t, err)
}
