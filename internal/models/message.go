package models

// ImagePreviewText replaces the header preview when a message carries only an image.
const ImagePreviewText = "[Image]"

// ChatMessage is one appended message under chatMessages/{chatId}/{id}.
// Only ReadBy changes after the append.
type ChatMessage struct {
	ID        string          `json:"id,omitempty"`
	ChatID    string          `json:"chatId"`
	SenderID  string          `json:"senderId"`
	Text      string          `json:"text,omitempty"`
	Image     string          `json:"image,omitempty"`
	CreatedAt int64           `json:"createdAt"`
	ReadBy    map[string]bool `json:"readBy,omitempty"`
}

// Preview is the text shown in the chat header for this message.
func (m ChatMessage) Preview() string {
	if m.Text == "" {
		return ImagePreviewText
	}
	return m.Text
}

// IsReadBy reports whether userID has a read receipt on the message.
func (m ChatMessage) IsReadBy(userID string) bool {
	return m.ReadBy[userID]
}
