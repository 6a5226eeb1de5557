package redis

import (
	"context"
	"encoding/json"
	"time"

	"arbwatch/internal/application/port"

	"github.com/redis/go-redis/v9"
)

// streamCmds is the subset of the go-redis client the alert sink needs.
type streamCmds interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// AlertSink 告警写入 Redis：XADD 到 stream，同时 PUBLISH 给在线订阅者
type AlertSink struct {
	rdb     streamCmds
	stream  string
	channel string
	maxLen  int64
}

func NewAlertSink(rdb *redis.Client, stream, channel string) *AlertSink {
	return &AlertSink{rdb: rdb, stream: stream, channel: channel, maxLen: 10000}
}

type alertMsg struct {
	TsMs        int64  `json:"ts_ms"`
	Destination string `json:"destination"`
	Text        string `json:"text"`
}

func (s *AlertSink) Send(ctx context.Context, destination, text string) error {
	ts := time.Now().UnixMilli()

	// 1) Stream: XADD <stream> MAXLEN ~ n * ts_ms destination text
	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"ts_ms":       ts,
			"destination": destination,
			"text":        text,
		},
	}).Err()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	b, _ := json.Marshal(alertMsg{TsMs: ts, Destination: destination, Text: text})
	return s.rdb.Publish(ctx, s.channel, string(b)).Err()
}

var _ port.AlertSink = (*AlertSink)(nil)
