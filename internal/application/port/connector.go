package port

import (
	"context"

	"arbwatch/internal/domain/model"
)

// Connector 交易所会话：加载支持的交易对、打开单个交易对的盘口流
type Connector interface {
	Name() string
	// LoadSupportedPairs returns the venue's tradable pairs in "BASE/QUOTE" form.
	LoadSupportedPairs(ctx context.Context) (map[string]struct{}, error)
	// OpenBook subscribes to the top of book for one pair.
	OpenBook(ctx context.Context, pair string) (BookStream, error)
	Close() error
}

// BookStream yields successive top-of-book updates. Any error is retryable.
type BookStream interface {
	Next(ctx context.Context) (model.Quote, error)
	Close() error
}
