package ws

import (
	"time"

	"github.com/oklog/ulid/v2"

	"social-service/internal/telemetry"
)

type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return ulid.Make().String()
}

func (i ConnInfo) payload(chatID, reason string) telemetry.WSPayload {
	var duration int64
	if !i.ConnectedAt.IsZero() {
		duration = time.Since(i.ConnectedAt).Milliseconds()
	}
	return telemetry.WSPayload{
		ChatID:     chatID,
		ConnID:     i.ConnID,
		DeviceID:   i.DeviceID,
		IP:         i.IP,
		DurationMS: duration,
		Reason:     reason,
	}
}
