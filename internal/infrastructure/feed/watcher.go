package feed

import (
	"context"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// Table is the write side of the snapshot table.
type Table interface {
	Put(pair, exchange string, q model.Quote) bool
	Remove(pair, exchange string)
}

// Watcher 维护单个 (exchange, pair) 的盘口订阅，写入快照表
type Watcher struct {
	conn  port.Connector
	pair  string
	table Table

	backoffMin time.Duration
	backoffMax time.Duration
}

func NewWatcher(conn port.Connector, pair string, table Table, backoffMin, backoffMax time.Duration) *Watcher {
	return &Watcher{
		conn:       conn,
		pair:       pair,
		table:      table,
		backoffMin: backoffMin,
		backoffMax: backoffMax,
	}
}

// Run loops until ctx is done. Connector errors never escape: the entry is
// dropped from the table and the subscription is retried after a backoff.
func (w *Watcher) Run(ctx context.Context) {
	ex := w.conn.Name()
	bo := NewBackoff(w.backoffMin, w.backoffMax)
	defer w.table.Remove(w.pair, ex)

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return
		}

		book, err := w.conn.OpenBook(ctx, w.pair)
		if err == nil {
			log.Debug().Str("exchange", ex).Str("pair", w.pair).Msg("book subscribed")
			err = w.consume(ctx, book, bo)
			_ = book.Close()
		}

		w.table.Remove(w.pair, ex)
		if ctx.Err() != nil {
			return
		}

		delay := bo.Next()
		log.Warn().
			Err(err).
			Str("exchange", ex).
			Str("pair", w.pair).
			Int("attempt", attempt).
			Int64("backoff_ms", delay.Milliseconds()).
			Msg("feed error, reconnecting")
		if !sleep(ctx, delay) {
			return
		}
	}
}

func (w *Watcher) consume(ctx context.Context, book port.BookStream, bo *Backoff) error {
	ex := w.conn.Name()
	for {
		q, err := book.Next(ctx)
		if err != nil {
			return err
		}
		if q.ObservedAt.IsZero() {
			q.ObservedAt = time.Now()
		}
		if err := q.Validate(); err != nil {
			// discard, keep prior state
			log.Debug().
				Str("exchange", ex).
				Str("pair", w.pair).
				Float64("bid", q.Bid).
				Float64("ask", q.Ask).
				Msg("quote discarded")
			continue
		}
		w.table.Put(w.pair, ex, q)
		bo.Reset()
	}
}
