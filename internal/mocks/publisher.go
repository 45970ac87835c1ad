package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/telemetry"
)

// PublisherMock stands in for the AMQP publisher behind telemetry.EventEmitter.
type PublisherMock struct {
	mock.Mock
}

var _ telemetry.Publisher = (*PublisherMock)(nil)

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Envelopes returns the event envelopes passed to Publish, in call order.
func (m *PublisherMock) Envelopes() []telemetry.Envelope {
	var out []telemetry.Envelope
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		if env, ok := call.Arguments.Get(2).(telemetry.Envelope); ok {
			out = append(out, env)
		}
	}
	return out
}
