package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"arbwatch/internal/domain/model"
	dsvc "arbwatch/internal/domain/service"

	"github.com/rs/zerolog/log"
)

// QuoteSource is the read side of the snapshot table.
type QuoteSource interface {
	Pairs() []string
	Quotes(pair string) map[string]model.Quote
}

// Scanner 每个周期从快照表计算当前的套利候选集
type Scanner struct {
	src QuoteSource
}

func NewScanner(src QuoteSource) *Scanner {
	return &Scanner{src: src}
}

// Scan evaluates every pair once against the settings snapshot and returns
// the surviving candidates keyed by OpportunityKey.
func (s *Scanner) Scan(cfg model.Settings, now time.Time) map[model.OpportunityKey]model.Candidate {
	out := make(map[model.OpportunityKey]model.Candidate)

	for _, pair := range s.src.Pairs() {
		quotes := fresh(s.src.Quotes(pair), cfg.MaxQuoteAge, now)

		c, ok, err := Evaluate(pair, quotes, cfg)
		if err != nil {
			log.Debug().Err(err).Str("pair", pair).Msg("pair skipped")
			continue
		}
		if ok {
			out[c.Key] = c
		}
	}
	return out
}

// Evaluate runs the per-pair filter chain: best venues, sanity ceiling,
// profit threshold, then liquidity. ok=false without error means the pair
// simply has no opportunity this cycle.
func Evaluate(pair string, quotes map[string]model.Quote, cfg model.Settings) (model.Candidate, bool, error) {
	if len(quotes) < 2 {
		return model.Candidate{}, false, nil
	}

	exchanges := make([]string, 0, len(quotes))
	for ex := range quotes {
		exchanges = append(exchanges, ex)
	}
	sort.Strings(exchanges)

	// 最低卖价买入、最高买价卖出；相同价格时按名称先到者为准
	var buyEx, sellEx string
	bestAsk, bestBid := math.Inf(1), math.Inf(-1)
	for _, ex := range exchanges {
		q := quotes[ex]
		if q.Ask > 0 && q.Ask < bestAsk {
			bestAsk, buyEx = q.Ask, ex
		}
		if q.Bid > bestBid {
			bestBid, sellEx = q.Bid, ex
		}
	}

	if buyEx == "" || math.IsInf(bestAsk, 1) {
		return model.Candidate{}, false, fmt.Errorf("%s: %w", pair, model.ErrNoBuySide)
	}
	if buyEx == sellEx {
		return model.Candidate{}, false, nil
	}

	gross := dsvc.GrossProfitPct(bestAsk, bestBid)
	if gross > cfg.MaxGrossProfitSanityPct {
		return model.Candidate{}, false, fmt.Errorf("%s %s->%s gross %.2f%%: %w", pair, buyEx, sellEx, gross, model.ErrSanityCeiling)
	}

	net := dsvc.NetProfitPct(gross, cfg.FeePercentPerLeg)
	if net < cfg.MinimumProfitPercent {
		return model.Candidate{}, false, nil
	}

	buy, sell := quotes[buyEx], quotes[sellEx]
	if !dsvc.HasLiquidity(cfg.TradeAmountUSD, buy.Ask, buy.AskSize, sell.Bid, sell.BidSize) {
		log.Debug().
			Str("pair", pair).
			Str("buy", buyEx).
			Str("sell", sellEx).
			Float64("net_pct", net).
			Msg("insufficient liquidity")
		return model.Candidate{}, false, nil
	}

	return model.Candidate{
		Key:            model.OpportunityKey{Pair: pair, BuyExchange: buyEx, SellExchange: sellEx},
		BuyPrice:       buy.Ask,
		SellPrice:      sell.Bid,
		GrossProfitPct: gross,
		NetProfitPct:   net,
		TradeAmountUSD: cfg.TradeAmountUSD,
	}, true, nil
}

func fresh(quotes map[string]model.Quote, maxAge time.Duration, now time.Time) map[string]model.Quote {
	if maxAge <= 0 || len(quotes) == 0 {
		return quotes
	}
	for ex, q := range quotes {
		if !q.ObservedAt.IsZero() && now.Sub(q.ObservedAt) > maxAge {
			delete(quotes, ex)
		}
	}
	return quotes
}
