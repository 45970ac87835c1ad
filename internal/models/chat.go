package models

// ChatHeader describes a one-to-one chat; stored at chats/{chatId}.
// ParticipantA sorts before ParticipantB so the pair has a single canonical form.
type ChatHeader struct {
	ChatID          string          `json:"chatId"`
	ParticipantA    string          `json:"participantA"`
	ParticipantB    string          `json:"participantB"`
	IsMatch         bool            `json:"isMatch"`
	LastMessageText string          `json:"lastMessageText"`
	LastMessageAt   int64           `json:"lastMessageAt"`
	Favorites       map[string]bool `json:"favorites,omitempty"`
	Blocked         map[string]bool `json:"blocked,omitempty"`
}

// HasParticipant reports whether userID is one of the two chat members.
func (h ChatHeader) HasParticipant(userID string) bool {
	return userID != "" && (h.ParticipantA == userID || h.ParticipantB == userID)
}

// OtherParticipant returns the member that is not userID, or "" if userID is not a member.
func (h ChatHeader) OtherParticipant(userID string) string {
	switch userID {
	case h.ParticipantA:
		return h.ParticipantB
	case h.ParticipantB:
		return h.ParticipantA
	}
	return ""
}

// ChatItem is the merged conversation-list row for one other user. Never persisted.
type ChatItem struct {
	ChatID          string   `json:"chatId"`
	OtherUserID     string   `json:"otherUserId"`
	Profile         *Profile `json:"profile,omitempty"`
	IsMatch         bool     `json:"isMatch"`
	IsFriend        bool     `json:"isFriend"`
	IsFavorite      bool     `json:"isFavorite"`
	IsBlocked       bool     `json:"isBlocked"`
	IsHidden        bool     `json:"isHidden"`
	UnreadCount     int      `json:"unreadCount"`
	LastMessageText string   `json:"lastMessageText"`
	LastMessageAt   int64    `json:"lastMessageAt"`
}

// ChatEvent is broadcast through websockets.
type ChatEvent struct {
	Type    string       `json:"type"`
	Message *ChatMessage `json:"message,omitempty"`
	UserID  string       `json:"userId,omitempty"`
}
