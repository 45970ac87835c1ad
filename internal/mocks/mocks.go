package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) GetOrCreateChat(ctx context.Context, userA string, userB string) (string, error) {
	args := m.Called(ctx, userA, userB)
	return args.String(0), args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.ChatHeader, error) {
	args := m.Called(ctx, chatID)
	var header models.ChatHeader
	if val := args.Get(0); val != nil {
		header = val.(models.ChatHeader)
	}
	return header, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID string) ([]models.ChatHeader, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatHeader
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatHeader)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) MarkMatch(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) SetFavorite(ctx context.Context, chatID string, userID string, favorite bool) error {
	args := m.Called(ctx, chatID, userID, favorite)
	return args.Error(0)
}

func (m *ChatRepositoryMock) SetBlocked(ctx context.Context, chatID string, userID string, blocked bool) error {
	args := m.Called(ctx, chatID, userID, blocked)
	return args.Error(0)
}

func (m *ChatRepositoryMock) IsHidden(ctx context.Context, chatID string, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) HideChatForUser(ctx context.Context, chatID string, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) UnhideChatForUser(ctx context.Context, chatID string, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) SendMessage(ctx context.Context, chatID string, msg models.ChatMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, chatID, msg)
	var sent models.ChatMessage
	if val := args.Get(0); val != nil {
		sent = val.(models.ChatMessage)
	}
	return sent, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessages(ctx context.Context, chatID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatID, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkAsRead(ctx context.Context, chatID string, userID string, msgs []models.ChatMessage) error {
	args := m.Called(ctx, chatID, userID, msgs)
	return args.Error(0)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, chatID string, userID string) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

type MatchRepositoryMock struct {
	mock.Mock
}

func (m *MatchRepositoryMock) Like(ctx context.Context, me string, target string) (bool, error) {
	args := m.Called(ctx, me, target)
	return args.Bool(0), args.Error(1)
}

func (m *MatchRepositoryMock) Dislike(ctx context.Context, me string, target string) error {
	args := m.Called(ctx, me, target)
	return args.Error(0)
}

func (m *MatchRepositoryMock) GetMatches(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MatchRepositoryMock) RepairMatches(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, from string, to string) error {
	args := m.Called(ctx, from, to)
	return args.Error(0)
}

func (m *FriendRepositoryMock) HasIncomingRequest(ctx context.Context, me string, other string) (bool, error) {
	args := m.Called(ctx, me, other)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) HasOutgoingRequest(ctx context.Context, me string, other string) (bool, error) {
	args := m.Called(ctx, me, other)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) IncomingRequests(ctx context.Context, me string) ([]string, error) {
	args := m.Called(ctx, me)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *FriendRepositoryMock) AcceptFriendship(ctx context.Context, me string, other string) error {
	args := m.Called(ctx, me, other)
	return args.Error(0)
}

func (m *FriendRepositoryMock) RejectRequest(ctx context.Context, me string, other string) error {
	args := m.Called(ctx, me, other)
	return args.Error(0)
}

func (m *FriendRepositoryMock) AreFriends(ctx context.Context, userID string, otherID string) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) GetFriends(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

type ProfileProviderMock struct {
	mock.Mock
}

func (m *ProfileProviderMock) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile *models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(*models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileProviderMock) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	args := m.Called(ctx)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.MatchRepository = (*MatchRepositoryMock)(nil)
var _ repositories.FriendRepository = (*FriendRepositoryMock)(nil)
var _ repositories.ProfileProvider = (*ProfileProviderMock)(nil)
