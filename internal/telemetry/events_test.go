package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *publisherMock) Close() error {
	return m.Called().Error(0)
}

func TestEmitBuildsEnvelope(t *testing.T) {
	publisher := new(publisherMock)
	emitter := NewEventEmitter(publisher, "social-service", "test")
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	payload := MatchPayload{UserID: "alice", OtherUserID: "bob", ChatID: "alice_bob"}
	publisher.On("Publish", mock.Anything, EventMatchCreated, Envelope{
		SchemaVersion: 1,
		EventType:     EventMatchCreated,
		OccurredAt:    "2024-05-01T12:00:00Z",
		Service:       "social-service",
		Environment:   "test",
		RequestID:     "req-1",
		UserID:        "alice",
		Payload:       payload,
	}).Return(nil).Once()

	emitter.Emit(context.Background(), EventMatchCreated, "req-1", "alice", payload)
	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(publisherMock)
	emitter := NewEventEmitter(publisher, "social-service", "test")
	publisher.On("Publish", mock.Anything, EventMessageSent, mock.Anything).Return(assert.AnError).Once()

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), EventMessageSent, "", "alice", MessagePayload{ChatID: "alice_bob"})
	})
	publisher.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *EventEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), EventFriendAccepted, "", "", nil)
	})
}
