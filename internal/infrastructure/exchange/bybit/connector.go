package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
	"arbwatch/internal/infrastructure/exchange"
)

const (
	Name = "bybit"

	DefaultWsURL   = "wss://stream.bybit.com/v5/public/spot"
	DefaultRestURL = "https://api.bybit.com"
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

type instrumentsResp struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			BaseCoin  string `json:"baseCoin"`
			QuoteCoin string `json:"quoteCoin"`
			Status    string `json:"status"`
		} `json:"list"`
		NextPageCursor string `json:"nextPageCursor"`
	} `json:"result"`
}

// maxPages bounds cursor pagination against a misbehaving endpoint
const maxPages = 20

func (c *Connector) LoadSupportedPairs(ctx context.Context) (map[string]struct{}, error) {
	pairs := make(map[string]struct{})
	cursor := ""

	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("category", "spot")
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp instrumentsResp
		if err := exchange.GetJSON(ctx, c.client, c.opts.RestURL, "/v5/market/instruments-info", q, &resp); err != nil {
			return nil, fmt.Errorf("bybit instruments-info: %w", err)
		}
		if resp.RetCode != 0 {
			return nil, fmt.Errorf("bybit instruments-info: retCode=%d %s", resp.RetCode, resp.RetMsg)
		}

		for _, it := range resp.Result.List {
			if it.Status != "Trading" || it.BaseCoin == "" || it.QuoteCoin == "" {
				continue
			}
			pairs[exchange.JoinPair(it.BaseCoin, it.QuoteCoin)] = struct{}{}
		}

		cursor = resp.Result.NextPageCursor
		if cursor == "" {
			break
		}
	}
	return pairs, nil
}

type subReq struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

func (c *Connector) OpenBook(ctx context.Context, pair string) (port.BookStream, error) {
	sym := exchange.ConcatSymbol(pair)
	if sym == "" {
		return nil, fmt.Errorf("bybit: bad pair %q", pair)
	}

	topic := "orderbook.1." + sym
	ping, _ := json.Marshal(subReq{Op: "ping"})
	st, err := exchange.Dial(ctx, c.opts.Stream(
		c.opts.WsURL,
		[]any{subReq{Op: "subscribe", Args: []string{topic}}},
		exchange.TextPing(string(ping)),
	))
	if err != nil {
		return nil, err
	}
	return &bookStream{st: st, topic: topic}, nil
}

func (c *Connector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// {"topic":"orderbook.1.BTCUSDT","type":"snapshot","ts":1672304484978,
//  "data":{"s":"BTCUSDT","b":[["16493.50","0.006"]],"a":[["16611.00","0.029"]],"u":1}}
type bookMsg struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Op    string `json:"op"`
	// subscribe ack
	Success *bool  `json:"success"`
	RetMsg  string `json:"ret_msg"`
	Data    struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
	} `json:"data"`
}

type bookStream struct {
	st    *exchange.Stream
	topic string

	// level-1 state; deltas only carry the side that changed
	bid, ask []string
}

func (b *bookStream) Next(ctx context.Context) (model.Quote, error) {
	for {
		raw, err := b.st.Read(ctx)
		if err != nil {
			return model.Quote{}, err
		}

		var msg bookMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return model.Quote{}, fmt.Errorf("bybit json unmarshal: %w", err)
		}
		if msg.Success != nil && !*msg.Success {
			return model.Quote{}, fmt.Errorf("bybit %s failed: %s", msg.Op, msg.RetMsg)
		}
		if msg.Topic != b.topic {
			// pong, subscribe ack
			continue
		}

		switch msg.Type {
		case "snapshot":
			b.bid, b.ask = first(msg.Data.Bids), first(msg.Data.Asks)
		case "delta":
			if l := first(msg.Data.Bids); l != nil {
				b.bid = l
			}
			if l := first(msg.Data.Asks); l != nil {
				b.ask = l
			}
		default:
			continue
		}

		q, err := exchange.TopOfBook(live(b.bid), live(b.ask), time.Now())
		if err != nil {
			return model.Quote{}, fmt.Errorf("bybit orderbook: %w", err)
		}
		return q, nil
	}
}

func (b *bookStream) Close() error { return b.st.Close() }

func first(levels [][]string) []string {
	if len(levels) == 0 {
		return nil
	}
	return levels[0]
}

// live drops a level whose size is zero (removed from the book)
func live(l []string) [][]string {
	if len(l) < 2 {
		return nil
	}
	if size, err := exchange.ParseFloat(l[1]); err == nil && size == 0 {
		return nil
	}
	return [][]string{l}
}

var _ port.Connector = (*Connector)(nil)
