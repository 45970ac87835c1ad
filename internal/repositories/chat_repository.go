package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"social-service/internal/docstore"
	"social-service/internal/models"
	"social-service/internal/observability"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRemoteWrite     = errors.New("remote write failed")
)

const (
	chatsRoot    = "chats"
	chatMetaRoot = "chatMeta"
)

// ChatRepository abstracts chat header persistence.
type ChatRepository interface {
	GetOrCreateChat(ctx context.Context, userA string, userB string) (string, error)
	GetChat(ctx context.Context, chatID string) (models.ChatHeader, error)
	ListChats(ctx context.Context, userID string) ([]models.ChatHeader, error)
	MarkMatch(ctx context.Context, chatID string) error
	SetFavorite(ctx context.Context, chatID string, userID string, favorite bool) error
	SetBlocked(ctx context.Context, chatID string, userID string, blocked bool) error
	IsHidden(ctx context.Context, chatID string, userID string) (bool, error)
	HideChatForUser(ctx context.Context, chatID string, userID string) error
	UnhideChatForUser(ctx context.Context, chatID string, userID string) error
}

// ChatRepo is a document-store implementation of ChatRepository.
type ChatRepo struct {
	store docstore.Store
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(store docstore.Store) *ChatRepo {
	return &ChatRepo{store: store}
}

// ChatIDFor derives the canonical chat id of two users. The lower id (ordinal order)
// comes first, so ChatIDFor(a, b) == ChatIDFor(b, a).
func ChatIDFor(userA, userB string) string {
	a, b := canonicalPair(userA, userB)
	return a + "_" + b
}

func canonicalPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

// GetOrCreateChat returns the canonical chat id for the pair, writing a fresh header
// when none exists yet. A failed create is logged and left for the caller to retry.
func (r *ChatRepo) GetOrCreateChat(ctx context.Context, userA string, userB string) (string, error) {
	if userA == "" || userB == "" {
		return "", fmt.Errorf("%w: both participant ids are required", ErrInvalidArgument)
	}
	if userA == userB {
		return "", fmt.Errorf("%w: cannot create chat with self", ErrInvalidArgument)
	}

	ctx, span := observability.Tracer("repositories").Start(ctx, "chat.get_or_create")
	defer span.End()

	a, b := canonicalPair(userA, userB)
	chatID := a + "_" + b
	path := docstore.Join(chatsRoot, chatID)

	body, err := r.store.Get(ctx, path)
	if err == nil && !docstore.IsNull(body) {
		return chatID, nil
	}
	if err != nil {
		// The header may exist; only write identity fields so a preview is never reset.
		log.Printf("chat header read failed chat_id=%s: %v", chatID, err)
		identity := map[string]any{"chatId": chatID, "participantA": a, "participantB": b}
		if err := r.store.Patch(ctx, path, identity); err != nil {
			logSwallowedWrite("chat.create", path, err)
		}
		return chatID, nil
	}

	header := models.ChatHeader{ChatID: chatID, ParticipantA: a, ParticipantB: b}
	if err := r.store.Put(ctx, path, header); err != nil {
		logSwallowedWrite("chat.create", path, err)
	}
	return chatID, nil
}

// GetChat fetches a chat header. Read failures are reported as ErrChatNotFound.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.ChatHeader, error) {
	if chatID == "" {
		return models.ChatHeader{}, fmt.Errorf("%w: chat id is required", ErrInvalidArgument)
	}
	var header models.ChatHeader
	found, err := docstore.GetJSON(ctx, r.store, docstore.Join(chatsRoot, chatID), &header)
	if err != nil {
		log.Printf("chat header read failed chat_id=%s: %v", chatID, err)
		return models.ChatHeader{}, ErrChatNotFound
	}
	if !found {
		return models.ChatHeader{}, ErrChatNotFound
	}
	if header.ChatID == "" {
		header.ChatID = chatID
	}
	return header, nil
}

// ListChats returns every chat header userID participates in, most recent first.
// An unreadable chat tree yields an empty list.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatHeader, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}

	var all map[string]json.RawMessage
	if _, err := docstore.GetJSON(ctx, r.store, chatsRoot, &all); err != nil {
		log.Printf("chat list read failed user_id=%s: %v", userID, err)
		return []models.ChatHeader{}, nil
	}

	result := make([]models.ChatHeader, 0)
	for chatID, raw := range all {
		var header models.ChatHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			log.Printf("skipping malformed chat header chat_id=%s: %v", chatID, err)
			continue
		}
		if header.ChatID == "" {
			header.ChatID = chatID
		}
		if header.HasParticipant(userID) {
			result = append(result, header)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastMessageAt != result[j].LastMessageAt {
			return result[i].LastMessageAt > result[j].LastMessageAt
		}
		return result[i].ChatID < result[j].ChatID
	})
	return result, nil
}

// MarkMatch flags the chat header as belonging to a match.
func (r *ChatRepo) MarkMatch(ctx context.Context, chatID string) error {
	path := docstore.Join(chatsRoot, chatID)
	if err := r.store.Patch(ctx, path, map[string]any{"isMatch": true}); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

// SetFavorite adds or removes userID from the header's favorites set.
func (r *ChatRepo) SetFavorite(ctx context.Context, chatID string, userID string, favorite bool) error {
	return r.setMember(ctx, docstore.Join(chatsRoot, chatID, "favorites", userID), favorite)
}

// SetBlocked adds or removes userID from the header's blocked set.
func (r *ChatRepo) SetBlocked(ctx context.Context, chatID string, userID string, blocked bool) error {
	return r.setMember(ctx, docstore.Join(chatsRoot, chatID, "blocked", userID), blocked)
}

func (r *ChatRepo) setMember(ctx context.Context, path string, present bool) error {
	var err error
	if present {
		err = r.store.Put(ctx, path, true)
	} else {
		err = r.store.Delete(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

// IsHidden reports the per-user soft-delete flag. Unreadable means visible.
func (r *ChatRepo) IsHidden(ctx context.Context, chatID string, userID string) (bool, error) {
	hidden, err := docstore.GetFlag(ctx, r.store, hiddenPath(chatID, userID))
	if err != nil {
		log.Printf("hidden flag read failed chat_id=%s user_id=%s: %v", chatID, userID, err)
		return false, nil
	}
	return hidden, nil
}

// HideChatForUser marks a chat hidden for the user only.
func (r *ChatRepo) HideChatForUser(ctx context.Context, chatID string, userID string) error {
	if err := r.store.Put(ctx, hiddenPath(chatID, userID), true); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

// UnhideChatForUser removes the hidden flag for the user.
func (r *ChatRepo) UnhideChatForUser(ctx context.Context, chatID string, userID string) error {
	if err := r.store.Delete(ctx, hiddenPath(chatID, userID)); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

func hiddenPath(chatID, userID string) string {
	return docstore.Join(chatMetaRoot, chatID, userID, "hidden")
}

func unreadPath(chatID, userID string) string {
	return docstore.Join(chatMetaRoot, chatID, userID, "unreadCount")
}

func logSwallowedWrite(operation, path string, err error) {
	observability.IncSwallowedWrite(operation)
	log.Printf("write failed op=%s path=%s: %v", operation, path, err)
}
