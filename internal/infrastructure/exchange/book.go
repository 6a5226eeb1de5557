package exchange

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"arbwatch/internal/domain/model"
)

// Options are the per-venue connection settings handed to a connector factory.
type Options struct {
	WsURL        string
	RestURL      string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

func (o Options) Stream(url string, subscribe []any, keepAlive KeepAlive) StreamConfig {
	return StreamConfig{
		URL:          url,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		PingInterval: o.PingInterval,
		Subscribe:    subscribe,
		KeepAlive:    keepAlive,
	}
}

// ParseFloat parses a venue decimal string.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}

// Level parses one [price, size, ...] book level.
func Level(l []string) (price, size float64, err error) {
	if len(l) < 2 {
		return 0, 0, fmt.Errorf("book level has %d fields", len(l))
	}
	if price, err = ParseFloat(l[0]); err != nil {
		return 0, 0, err
	}
	if size, err = ParseFloat(l[1]); err != nil {
		return 0, 0, err
	}
	return price, size, nil
}

// TopOfBook builds a quote from the first level of each side.
// An empty side yields bid 0 or ask +Inf, which quote validation rejects.
func TopOfBook(bids, asks [][]string, at time.Time) (model.Quote, error) {
	q := model.Quote{Ask: math.Inf(1), ObservedAt: at}
	if len(bids) > 0 {
		p, s, err := Level(bids[0])
		if err != nil {
			return model.Quote{}, err
		}
		q.Bid, q.BidSize = p, s
	}
	if len(asks) > 0 {
		p, s, err := Level(asks[0])
		if err != nil {
			return model.Quote{}, err
		}
		q.Ask, q.AskSize = p, s
	}
	return q, nil
}
