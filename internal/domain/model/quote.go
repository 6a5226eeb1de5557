package model

import (
	"math"
	"time"
)

// Quote 交易所推送的最优买卖价（top of book）
type Quote struct {
	Bid        float64   `json:"bid"`
	BidSize    float64   `json:"bid_size"`
	Ask        float64   `json:"ask"` // +Inf when the ask side is empty
	AskSize    float64   `json:"ask_size"`
	ObservedAt time.Time `json:"observed_at"`
}

// Validate rejects quotes that must never reach the snapshot table:
// non-positive or non-finite prices, negative sizes, or a crossed book (ask < bid).
func (q Quote) Validate() error {
	switch {
	case math.IsNaN(q.Bid) || math.IsNaN(q.Ask) || math.IsNaN(q.BidSize) || math.IsNaN(q.AskSize):
		return ErrInvalidQuote
	case q.Bid <= 0 || q.Ask <= 0 || math.IsInf(q.Bid, 0) || math.IsInf(q.Ask, 0):
		return ErrInvalidQuote
	case q.BidSize < 0 || q.AskSize < 0:
		return ErrInvalidQuote
	case q.Ask < q.Bid:
		return ErrInvalidQuote
	}
	return nil
}
