package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrStreamClosed = errors.New("stream closed")

// KeepAlive sends one heartbeat. The default is a websocket control ping;
// venues with app-level heartbeats supply their own.
type KeepAlive func(conn *websocket.Conn) error

func ControlPing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
}

func TextPing(payload string) KeepAlive {
	return func(conn *websocket.Conn) error {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteMessage(websocket.TextMessage, []byte(payload))
	}
}

type StreamConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
	Subscribe    []any // JSON messages written right after connect
	KeepAlive    KeepAlive
}

// Stream 单个 websocket 连接：后台 goroutine 读消息并定期发心跳，
// 调用方通过 Read 逐条取出。
type Stream struct {
	conn *websocket.Conn
	msgs chan []byte
	errc chan error
	done chan struct{}
	once sync.Once
}

func Dial(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	if cfg.URL == "" {
		return nil, errors.New("ws url empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.KeepAlive == nil {
		cfg.KeepAlive = ControlPing
	}

	cctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, cfg.URL, nil)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	for _, sub := range cfg.Subscribe {
		_ = conn.SetWriteDeadline(time.Now().Add(cfg.DialTimeout))
		if err := conn.WriteJSON(sub); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ws subscribe: %w", err)
		}
	}
	_ = conn.SetWriteDeadline(time.Time{})

	s := &Stream{
		conn: conn,
		msgs: make(chan []byte, 64),
		errc: make(chan error, 1),
		done: make(chan struct{}),
	}
	go s.readLoop(cfg.ReadTimeout)
	go s.pingLoop(cfg.PingInterval, cfg.KeepAlive)
	return s, nil
}

func (s *Stream) readLoop(readTimeout time.Duration) {
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			s.errc <- err
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))

		select {
		case s.msgs <- b:
		case <-s.done:
			return
		}
	}
}

func (s *Stream) pingLoop(interval time.Duration, keepAlive KeepAlive) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			if err := keepAlive(s.conn); err != nil {
				// the read side surfaces the broken connection
				return
			}
		}
	}
}

// Read blocks for the next raw message.
func (s *Stream) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrStreamClosed
	case b := <-s.msgs:
		return b, nil
	case err := <-s.errc:
		return nil, err
	}
}

func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
