package conversations

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

const (
	MatchedPreview = "You matched! 💗"
	FriendPreview  = "Start chatting 👋"
)

// Filter selects a sub-view of the merged list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterMatches   Filter = "matches"
	FilterFriends   Filter = "friends"
	FilterFavorites Filter = "favorites"
)

// ParseFilter accepts the filter names case-insensitively. Empty means all.
func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterMatches, FilterFriends, FilterFavorites:
		return f, nil
	}
	return "", fmt.Errorf("unknown conversation filter %q", raw)
}

// Includes reports whether item belongs to the filtered view.
func (f Filter) Includes(item models.ChatItem) bool {
	switch f {
	case FilterMatches:
		return item.IsMatch
	case FilterFriends:
		return item.IsFriend
	case FilterFavorites:
		return item.IsFavorite
	}
	return true
}

// Apply returns the items of list selected by f, keeping their order.
func (f Filter) Apply(list []models.ChatItem) []models.ChatItem {
	out := make([]models.ChatItem, 0, len(list))
	for _, item := range list {
		if f.Includes(item) {
			out = append(out, item)
		}
	}
	return out
}

// HeaderEntry is a chat header already resolved for the viewing user.
type HeaderEntry struct {
	Header  models.ChatHeader
	Profile *models.Profile
	Unread  int
	Hidden  bool
}

// Sources are the three independently fetched inputs of a merge.
type Sources struct {
	Matches []string
	Friends []string
	Chats   []HeaderEntry
}

// Merge folds matches, friends and chat headers of me into one row per other user,
// drops rows blocked or hidden for me and returns them ranked.
func Merge(me string, src Sources, now time.Time) []models.ChatItem {
	byOther := make(map[string]*models.ChatItem)
	entry := func(other string) *models.ChatItem {
		item, ok := byOther[other]
		if !ok {
			item = &models.ChatItem{ChatID: repositories.ChatIDFor(me, other), OtherUserID: other}
			byOther[other] = item
		}
		return item
	}

	for _, id := range src.Matches {
		if id == "" || id == me {
			continue
		}
		entry(id).IsMatch = true
	}
	for _, id := range src.Friends {
		if id == "" || id == me {
			continue
		}
		entry(id).IsFriend = true
	}
	for _, chat := range src.Chats {
		other := chat.Header.OtherParticipant(me)
		if other == "" {
			continue
		}
		item := entry(other)
		if chat.Header.ChatID != "" {
			item.ChatID = chat.Header.ChatID
		}
		if chat.Profile != nil {
			item.Profile = chat.Profile
		}
		item.IsMatch = item.IsMatch || chat.Header.IsMatch
		item.IsFavorite = item.IsFavorite || chat.Header.Favorites[me]
		item.IsBlocked = item.IsBlocked || chat.Header.Blocked[me]
		item.IsHidden = item.IsHidden || chat.Hidden
		if chat.Unread > item.UnreadCount {
			item.UnreadCount = chat.Unread
		}
		if chat.Header.LastMessageText != "" && chat.Header.LastMessageAt >= item.LastMessageAt {
			item.LastMessageText = chat.Header.LastMessageText
		}
		if chat.Header.LastMessageAt > item.LastMessageAt {
			item.LastMessageAt = chat.Header.LastMessageAt
		}
	}

	out := make([]models.ChatItem, 0, len(byOther))
	for _, item := range byOther {
		if item.IsBlocked || item.IsHidden {
			continue
		}
		if item.LastMessageText == "" {
			if item.IsMatch {
				item.LastMessageText = MatchedPreview
			} else {
				item.LastMessageText = FriendPreview
			}
		}
		if item.LastMessageAt == 0 {
			item.LastMessageAt = now.UnixMilli()
		}
		out = append(out, *item)
	}
	Sort(out)
	return out
}

// Sort ranks favorites first, then matches, then most recent activity. Ties fall back
// to the other user's id so the order is deterministic.
func Sort(list []models.ChatItem) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		if a.IsMatch != b.IsMatch {
			return a.IsMatch
		}
		if a.LastMessageAt != b.LastMessageAt {
			return a.LastMessageAt > b.LastMessageAt
		}
		return a.OtherUserID < b.OtherUserID
	})
}
