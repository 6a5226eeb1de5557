package okx

import (
	"bytes"
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
	Name = "okx"

	DefaultWsURL   = "wss://ws.okx.com:8443/ws/v5/public"
	DefaultRestURL = "https://www.okx.com"
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
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID   string `json:"instId"`
		BaseCcy  string `json:"baseCcy"`
		QuoteCcy string `json:"quoteCcy"`
		State    string `json:"state"`
	} `json:"data"`
}

func (c *Connector) LoadSupportedPairs(ctx context.Context) (map[string]struct{}, error) {
	q := url.Values{}
	q.Set("instType", "SPOT")

	var resp instrumentsResp
	if err := exchange.GetJSON(ctx, c.client, c.opts.RestURL, "/api/v5/public/instruments", q, &resp); err != nil {
		return nil, fmt.Errorf("okx instruments: %w", err)
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx instruments: code=%s %s", resp.Code, resp.Msg)
	}

	pairs := make(map[string]struct{}, len(resp.Data))
	for _, it := range resp.Data {
		if it.State != "live" || it.BaseCcy == "" || it.QuoteCcy == "" {
			continue
		}
		pairs[exchange.JoinPair(it.BaseCcy, it.QuoteCcy)] = struct{}{}
	}
	return pairs, nil
}

type subArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type subReq struct {
	Op   string   `json:"op"`
	Args []subArg `json:"args"`
}

func (c *Connector) OpenBook(ctx context.Context, pair string) (port.BookStream, error) {
	instID := exchange.DashSymbol(pair)
	if instID == "" {
		return nil, fmt.Errorf("okx: bad pair %q", pair)
	}

	st, err := exchange.Dial(ctx, c.opts.Stream(
		c.opts.WsURL,
		[]any{subReq{Op: "subscribe", Args: []subArg{{Channel: "bbo-tbt", InstID: instID}}}},
		exchange.TextPing("ping"),
	))
	if err != nil {
		return nil, err
	}
	return &bookStream{st: st, instID: instID}, nil
}

func (c *Connector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// {"arg":{"channel":"bbo-tbt","instId":"BTC-USDT"},
//  "data":[{"asks":[["8476.98","415","0","13"]],"bids":[["8476.97","256","0","12"]],"ts":"1597026383085"}]}
type bookMsg struct {
	Event string `json:"event"`
	Code  string `json:"code"`
	Msg   string `json:"msg"`
	Arg   subArg `json:"arg"`
	Data  []struct {
		Asks [][]string `json:"asks"`
		Bids [][]string `json:"bids"`
	} `json:"data"`
}

type bookStream struct {
	st     *exchange.Stream
	instID string
}

func (b *bookStream) Next(ctx context.Context) (model.Quote, error) {
	for {
		raw, err := b.st.Read(ctx)
		if err != nil {
			return model.Quote{}, err
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("pong")) {
			continue
		}

		var msg bookMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return model.Quote{}, fmt.Errorf("okx json unmarshal: %w", err)
		}
		if msg.Event == "error" {
			return model.Quote{}, fmt.Errorf("okx ws error %s: %s", msg.Code, msg.Msg)
		}
		if msg.Event != "" || msg.Arg.InstID != b.instID || len(msg.Data) == 0 {
			continue
		}

		d := msg.Data[len(msg.Data)-1]
		q, err := exchange.TopOfBook(d.Bids, d.Asks, time.Now())
		if err != nil {
			return model.Quote{}, fmt.Errorf("okx bbo: %w", err)
		}
		return q, nil
	}
}

func (b *bookStream) Close() error { return b.st.Close() }

var _ port.Connector = (*Connector)(nil)
