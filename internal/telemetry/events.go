package telemetry

import (
	"context"
	"log"
	"time"

	"social-service/internal/observability"
)

const (
	EventMatchCreated    = "match.created"
	EventMessageSent     = "message.sent"
	EventFriendRequested = "friend.requested"
	EventFriendAccepted  = "friend.accepted"
	EventWSConnect       = "ws.connect"
	EventWSDisconnect    = "ws.disconnect"
	EventWSError         = "ws.error"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EventEmitter publishes social graph and messaging events for downstream consumers
// (push and email delivery).
type EventEmitter struct {
	publisher   Publisher
	service     string
	environment string
	now         func() time.Time
}

type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	Payload       any    `json:"payload"`
}

type MatchPayload struct {
	UserID      string `json:"user_id"`
	OtherUserID string `json:"other_user_id"`
	ChatID      string `json:"chat_id"`
}

type MessagePayload struct {
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id,omitempty"`
	HasImage    bool   `json:"has_image"`
}

type FriendPayload struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

type WSPayload struct {
	ChatID     string `json:"chat_id"`
	ConnID     string `json:"conn_id"`
	DeviceID   string `json:"device_id,omitempty"`
	IP         string `json:"ip,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason,omitempty"`
}

func NewEventEmitter(publisher Publisher, service, environment string) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit publishes one event with the event type as routing key. Failures are logged.
func (e *EventEmitter) Emit(ctx context.Context, eventType, requestID, userID string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	observability.IncDomainEvent(eventType)
	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		TraceID:       observability.TraceID(ctx),
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, eventType, envelope); err != nil {
		observability.IncAMQPPublishError()
		log.Printf("event publish failed: event_type=%s request_id=%s: %v", eventType, requestID, err)
	}
}
