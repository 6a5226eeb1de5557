package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
	"arbwatch/internal/infrastructure/exchange"
)

const (
	Name = "binance"

	DefaultWsURL   = "wss://stream.binance.com:9443"
	DefaultRestURL = "https://api.binance.com"
)

type Connector struct {
	opts   exchange.Options
	client *http.Client
}

func NewConnector(opts exchange.Options) *Connector {
	if strings.TrimSpace(opts.WsURL) == "" {
		opts.WsURL = DefaultWsURL
	}
	if strings.TrimSpace(opts.RestURL) == "" {
		opts.RestURL = DefaultRestURL
	}
	return &Connector{
		opts:   opts,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Connector) Name() string { return Name }

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

func (c *Connector) LoadSupportedPairs(ctx context.Context) (map[string]struct{}, error) {
	var info exchangeInfo
	if err := exchange.GetJSON(ctx, c.client, c.opts.RestURL, "/api/v3/exchangeInfo", nil, &info); err != nil {
		return nil, fmt.Errorf("binance exchangeInfo: %w", err)
	}

	pairs := make(map[string]struct{}, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		pairs[exchange.JoinPair(s.BaseAsset, s.QuoteAsset)] = struct{}{}
	}
	return pairs, nil
}

func (c *Connector) OpenBook(ctx context.Context, pair string) (port.BookStream, error) {
	sym := exchange.ConcatSymbol(pair)
	if sym == "" {
		return nil, fmt.Errorf("binance: bad pair %q", pair)
	}

	url := strings.TrimRight(c.opts.WsURL, "/") + "/ws/" + strings.ToLower(sym) + "@bookTicker"
	st, err := exchange.Dial(ctx, c.opts.Stream(url, nil, nil))
	if err != nil {
		return nil, err
	}
	return &bookStream{st: st}, nil
}

// Close is a no-op: every book owns its own connection.
func (c *Connector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// bookTicker {"u":400900217,"s":"BNBUSDT","b":"25.35","B":"31.21","a":"25.36","A":"40.66"}
type bookTicker struct {
	Symbol  string `json:"s"`
	Bid     string `json:"b"`
	BidSize string `json:"B"`
	Ask     string `json:"a"`
	AskSize string `json:"A"`
}

type bookStream struct {
	st *exchange.Stream
}

func (b *bookStream) Next(ctx context.Context) (model.Quote, error) {
	for {
		raw, err := b.st.Read(ctx)
		if err != nil {
			return model.Quote{}, err
		}

		var msg bookTicker
		if err := json.Unmarshal(raw, &msg); err != nil {
			return model.Quote{}, fmt.Errorf("binance json unmarshal: %w", err)
		}
		if msg.Symbol == "" {
			// subscription acks and other control frames
			continue
		}
		return parseTicker(msg, time.Now())
	}
}

func (b *bookStream) Close() error { return b.st.Close() }

func parseTicker(msg bookTicker, at time.Time) (model.Quote, error) {
	var bid, ask []string
	if msg.Bid != "" {
		bid = []string{msg.Bid, msg.BidSize}
	}
	if msg.Ask != "" {
		ask = []string{msg.Ask, msg.AskSize}
	}
	q, err := exchange.TopOfBook(levels(bid), levels(ask), at)
	if err != nil {
		return model.Quote{}, fmt.Errorf("binance bookTicker: %w", err)
	}
	return q, nil
}

func levels(l []string) [][]string {
	if l == nil {
		return nil
	}
	return [][]string{l}
}

var _ port.Connector = (*Connector)(nil)
