package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"social-service/internal/docstore"
	"social-service/internal/models"
	"social-service/internal/observability"
)

const (
	messagesRoot = "chatMessages"

	// DefaultMessageLimit is the window GetMessages returns when no limit is given.
	DefaultMessageLimit = 80

	maxCounterAttempts = 10
)

// MessageRepository defines interactions for chat messages and unread counters.
type MessageRepository interface {
	SendMessage(ctx context.Context, chatID string, msg models.ChatMessage) (models.ChatMessage, error)
	GetMessages(ctx context.Context, chatID string, limit int) ([]models.ChatMessage, error)
	MarkAsRead(ctx context.Context, chatID string, userID string, msgs []models.ChatMessage) error
	UnreadCount(ctx context.Context, chatID string, userID string) (int, error)
}

// MessageRepo is a document-store backed message channel.
type MessageRepo struct {
	store docstore.Store
	chats ChatRepository
	now   func() time.Time
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(store docstore.Store, chats ChatRepository) *MessageRepo {
	return &MessageRepo{store: store, chats: chats, now: time.Now}
}

// SendMessage appends msg to the chat and then, best effort and in order, updates the
// header preview, zeroes the sender's unread counter, increments the recipient's and
// clears both hidden flags. Only a failed append is returned; later steps are logged.
func (r *MessageRepo) SendMessage(ctx context.Context, chatID string, msg models.ChatMessage) (models.ChatMessage, error) {
	if chatID == "" || msg.SenderID == "" {
		return models.ChatMessage{}, fmt.Errorf("%w: chat id and sender id are required", ErrInvalidArgument)
	}
	if strings.TrimSpace(msg.Text) == "" && msg.Image == "" {
		return models.ChatMessage{}, fmt.Errorf("%w: message needs text or an image", ErrInvalidArgument)
	}

	ctx, span := observability.Tracer("repositories").Start(ctx, "message.send")
	defer span.End()

	msg.ID = ""
	msg.ChatID = chatID
	if msg.CreatedAt == 0 {
		msg.CreatedAt = r.now().UnixMilli()
	}
	readBy := make(map[string]bool, len(msg.ReadBy)+1)
	for user, read := range msg.ReadBy {
		readBy[user] = read
	}
	readBy[msg.SenderID] = true
	msg.ReadBy = readBy

	id, err := r.store.Post(ctx, docstore.Join(messagesRoot, chatID), msg)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("%w: append message: %v", ErrRemoteWrite, err)
	}
	msg.ID = id

	headerPath := docstore.Join(chatsRoot, chatID)
	preview := map[string]any{"lastMessageText": msg.Preview(), "lastMessageAt": msg.CreatedAt}
	if err := r.store.Patch(ctx, headerPath, preview); err != nil {
		logSwallowedWrite("message.preview", headerPath, err)
	}

	header, err := r.chats.GetChat(ctx, chatID)
	if err != nil {
		log.Printf("unread update skipped chat_id=%s: %v", chatID, err)
		return msg, nil
	}
	recipient := header.OtherParticipant(msg.SenderID)
	if recipient == "" {
		log.Printf("unread update skipped chat_id=%s sender_id=%s: sender is not a participant", chatID, msg.SenderID)
		return msg, nil
	}

	if err := r.store.Put(ctx, unreadPath(chatID, msg.SenderID), 0); err != nil {
		logSwallowedWrite("message.unread_reset", unreadPath(chatID, msg.SenderID), err)
	}
	if err := r.incrementUnread(ctx, chatID, recipient); err != nil {
		logSwallowedWrite("message.unread_increment", unreadPath(chatID, recipient), err)
	}

	for _, participant := range []string{header.ParticipantA, header.ParticipantB} {
		if err := r.chats.UnhideChatForUser(ctx, chatID, participant); err != nil {
			logSwallowedWrite("message.unhide", hiddenPath(chatID, participant), err)
		}
	}
	return msg, nil
}

// incrementUnread adds one to the user's counter. On stores with conditional writes this
// is a compare-and-set loop; otherwise it is a plain read-then-write and two concurrent
// increments of the same counter can lose one.
func (r *MessageRepo) incrementUnread(ctx context.Context, chatID, userID string) error {
	path := unreadPath(chatID, userID)

	cs, ok := r.store.(docstore.ConditionalStore)
	if !ok {
		count, _ := r.UnreadCount(ctx, chatID, userID)
		return r.store.Put(ctx, path, count+1)
	}

	attempt := func() error {
		body, etag, err := cs.GetVersioned(ctx, path)
		if err != nil {
			return backoff.Permanent(err)
		}
		count := 0
		if !docstore.IsNull(body) {
			if err := json.Unmarshal(body, &count); err != nil {
				return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
			}
		}
		err = cs.PutIfMatch(ctx, path, count+1, etag)
		if errors.Is(err, docstore.ErrPreconditionFailed) {
			observability.IncCounterConflict()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), maxCounterAttempts-1), ctx))
}

// GetMessages returns the last limit messages of the chat in ascending createdAt order.
// A missing or unreadable chat yields an empty slice.
func (r *MessageRepo) GetMessages(ctx context.Context, chatID string, limit int) ([]models.ChatMessage, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	var byID map[string]models.ChatMessage
	if _, err := docstore.GetJSON(ctx, r.store, docstore.Join(messagesRoot, chatID), &byID); err != nil {
		log.Printf("message read failed chat_id=%s: %v", chatID, err)
		return []models.ChatMessage{}, nil
	}

	msgs := make([]models.ChatMessage, 0, len(byID))
	for id, msg := range byID {
		msg.ID = id
		msg.ChatID = chatID
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt != msgs[j].CreatedAt {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		}
		return msgs[i].ID < msgs[j].ID
	})
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// MarkAsRead writes a read receipt on every message userID has not read yet, one write
// per message, then zeroes the user's unread counter for the chat.
func (r *MessageRepo) MarkAsRead(ctx context.Context, chatID string, userID string, msgs []models.ChatMessage) error {
	if chatID == "" || userID == "" {
		return fmt.Errorf("%w: chat id and user id are required", ErrInvalidArgument)
	}

	for _, msg := range msgs {
		if msg.ID == "" || msg.IsReadBy(userID) {
			continue
		}
		path := docstore.Join(messagesRoot, chatID, msg.ID, "readBy", userID)
		if err := r.store.Put(ctx, path, true); err != nil {
			logSwallowedWrite("message.read_receipt", path, err)
		}
	}

	if err := r.store.Put(ctx, unreadPath(chatID, userID), 0); err != nil {
		logSwallowedWrite("message.unread_reset", unreadPath(chatID, userID), err)
	}
	return nil
}

// UnreadCount reads the explicit counter; absent or unreadable counts as zero.
func (r *MessageRepo) UnreadCount(ctx context.Context, chatID string, userID string) (int, error) {
	var count int
	if _, err := docstore.GetJSON(ctx, r.store, unreadPath(chatID, userID), &count); err != nil {
		log.Printf("unread read failed chat_id=%s user_id=%s: %v", chatID, userID, err)
		return 0, nil
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

func newRetryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}
