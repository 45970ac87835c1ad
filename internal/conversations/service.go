package conversations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

var ErrConversationNotFound = errors.New("conversation not found")

const resolveConcurrency = 8

// Service rebuilds a user's conversation list from matches, friends and chat headers.
type Service struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	matches  repositories.MatchRepository
	friends  repositories.FriendRepository
	profiles repositories.ProfileProvider
	now      func() time.Time
}

// NewService wires the repositories the merge reads from.
func NewService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	matches repositories.MatchRepository,
	friends repositories.FriendRepository,
	profiles repositories.ProfileProvider,
) *Service {
	return &Service{
		chats:    chats,
		messages: messages,
		matches:  matches,
		friends:  friends,
		profiles: profiles,
		now:      time.Now,
	}
}

// Load fetches the three sources concurrently, resolves per-chat overlays and profiles,
// and returns the merged view for me. Nothing is cached between calls.
func (s *Service) Load(ctx context.Context, me string) (*View, error) {
	if me == "" {
		return nil, fmt.Errorf("%w: user id is required", repositories.ErrInvalidArgument)
	}

	ctx, span := observability.Tracer("conversations").Start(ctx, "conversations.load")
	defer span.End()

	var (
		src     Sources
		headers []models.ChatHeader
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.matches.GetMatches(gctx, me)
		src.Matches = ids
		return err
	})
	g.Go(func() error {
		ids, err := s.friends.GetFriends(gctx, me)
		src.Friends = ids
		return err
	})
	g.Go(func() error {
		list, err := s.chats.ListChats(gctx, me)
		headers = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries, err := s.resolveHeaders(ctx, me, headers)
	if err != nil {
		return nil, err
	}
	src.Chats = entries

	items := Merge(me, src, s.now())
	if err := s.resolveProfiles(ctx, items); err != nil {
		return nil, err
	}
	return newView(s, me, items), nil
}

func (s *Service) resolveHeaders(ctx context.Context, me string, headers []models.ChatHeader) ([]HeaderEntry, error) {
	entries := make([]HeaderEntry, len(headers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, header := range headers {
		i, header := i, header
		g.Go(func() error {
			unread, err := s.messages.UnreadCount(gctx, header.ChatID, me)
			if err != nil {
				return err
			}
			hidden, err := s.chats.IsHidden(gctx, header.ChatID, me)
			if err != nil {
				return err
			}
			entries[i] = HeaderEntry{Header: header, Unread: unread, Hidden: hidden}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) resolveProfiles(ctx context.Context, items []models.ChatItem) error {
	if s.profiles == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i := range items {
		if items[i].Profile != nil {
			continue
		}
		i := i
		g.Go(func() error {
			profile, err := s.profiles.GetProfile(gctx, items[i].OtherUserID)
			if err != nil {
				return err
			}
			items[i].Profile = profile
			return nil
		})
	}
	return g.Wait()
}

// View is one loaded conversation list. Mutations update the rows first and then write
// through to the store; a failed write is returned and the row is left as updated.
type View struct {
	svc *Service
	me  string

	mu    sync.Mutex
	items []models.ChatItem
}

func newView(svc *Service, me string, items []models.ChatItem) *View {
	return &View{svc: svc, me: me, items: items}
}

// Items returns a copy of the rows selected by filter.
func (v *View) Items(filter Filter) []models.ChatItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return filter.Apply(v.items)
}

// Item returns the row for otherID.
func (v *View) Item(otherID string) (models.ChatItem, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(otherID); i >= 0 {
		return v.items[i], true
	}
	return models.ChatItem{}, false
}

// ToggleFavorite flips the favorite flag of the row and returns the new value.
func (v *View) ToggleFavorite(ctx context.Context, otherID string) (bool, error) {
	v.mu.Lock()
	i := v.indexOf(otherID)
	if i < 0 {
		v.mu.Unlock()
		return false, ErrConversationNotFound
	}
	v.items[i].IsFavorite = !v.items[i].IsFavorite
	favorite := v.items[i].IsFavorite
	Sort(v.items)
	v.mu.Unlock()

	chatID, err := v.ensureChat(ctx, otherID)
	if err != nil {
		return favorite, err
	}
	return favorite, v.svc.chats.SetFavorite(ctx, chatID, v.me, favorite)
}

// Block removes the row and records the block on the chat header.
func (v *View) Block(ctx context.Context, otherID string) error {
	if !v.remove(otherID) {
		return ErrConversationNotFound
	}
	chatID, err := v.ensureChat(ctx, otherID)
	if err != nil {
		return err
	}
	return v.svc.chats.SetBlocked(ctx, chatID, v.me, true)
}

// Unblock clears the block. The row comes back on the next Load.
func (v *View) Unblock(ctx context.Context, otherID string) error {
	if err := v.requireOther(otherID); err != nil {
		return err
	}
	return v.svc.chats.SetBlocked(ctx, repositories.ChatIDFor(v.me, otherID), v.me, false)
}

// Delete hides the chat for the viewing user only.
func (v *View) Delete(ctx context.Context, otherID string) error {
	if !v.remove(otherID) {
		return ErrConversationNotFound
	}
	// hidden is only read for rows backed by a chat header
	chatID, err := v.ensureChat(ctx, otherID)
	if err != nil {
		return err
	}
	return v.svc.chats.HideChatForUser(ctx, chatID, v.me)
}

// Unhide reverses Delete. The row comes back on the next Load.
func (v *View) Unhide(ctx context.Context, otherID string) error {
	if err := v.requireOther(otherID); err != nil {
		return err
	}
	return v.svc.chats.UnhideChatForUser(ctx, repositories.ChatIDFor(v.me, otherID), v.me)
}

// ensureChat makes sure a header exists before header-level flags are written.
func (v *View) ensureChat(ctx context.Context, otherID string) (string, error) {
	return v.svc.chats.GetOrCreateChat(ctx, v.me, otherID)
}

func (v *View) requireOther(otherID string) error {
	if otherID == "" || otherID == v.me {
		return fmt.Errorf("%w: other user id must be set and differ from the viewer", repositories.ErrInvalidArgument)
	}
	return nil
}

func (v *View) remove(otherID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(otherID)
	if i < 0 {
		return false
	}
	v.items = append(v.items[:i], v.items[i+1:]...)
	return true
}

func (v *View) indexOf(otherID string) int {
	for i := range v.items {
		if v.items[i].OtherUserID == otherID {
			return i
		}
	}
	return -1
}
