package port

import "context"

// AlertSink 告警投递：destination 由 sink 自行解释（chat id、stream key 等）
type AlertSink interface {
	Send(ctx context.Context, destination, text string) error
}
