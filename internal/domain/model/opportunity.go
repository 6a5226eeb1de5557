package model

import (
	"fmt"
	"time"
)

// OpportunityKey 套利机会的唯一标识：交易对 + 买入交易所 + 卖出交易所
type OpportunityKey struct {
	Pair         string `json:"pair"`
	BuyExchange  string `json:"buy_exchange"`
	SellExchange string `json:"sell_exchange"`
}

func (k OpportunityKey) String() string {
	return fmt.Sprintf("%s:%s->%s", k.Pair, k.BuyExchange, k.SellExchange)
}

// Less orders keys by pair, then buy venue, then sell venue.
func (k OpportunityKey) Less(o OpportunityKey) bool {
	if k.Pair != o.Pair {
		return k.Pair < o.Pair
	}
	if k.BuyExchange != o.BuyExchange {
		return k.BuyExchange < o.BuyExchange
	}
	return k.SellExchange < o.SellExchange
}

// Candidate 单次扫描中通过全部过滤条件的机会
type Candidate struct {
	Key            OpportunityKey `json:"key"`
	BuyPrice       float64        `json:"buy_price"`  // best ask on the buy venue
	SellPrice      float64        `json:"sell_price"` // best bid on the sell venue
	GrossProfitPct float64        `json:"gross_profit_pct"`
	NetProfitPct   float64        `json:"net_profit_pct"`
	TradeAmountUSD float64        `json:"trade_amount_usd"`
}

// OpportunityRecord 跨扫描周期持续存在的机会状态，仅由生命周期跟踪器持有
type OpportunityRecord struct {
	ID  string
	Key OpportunityKey

	// last alerted values; hysteresis compares against these
	BuyPrice       float64
	SellPrice      float64
	NetProfitPct   float64
	TradeAmountUSD float64
	LastAlertAt    time.Time

	// most recent observation, reported on cancellation
	Last Candidate

	FirstSeenAt time.Time
	MissedScans int
}

// AlertKind 告警类型
type AlertKind int

const (
	AlertNew AlertKind = iota
	AlertUpdate
	AlertCancelled
)

func (k AlertKind) String() string {
	switch k {
	case AlertNew:
		return "new"
	case AlertUpdate:
		return "update"
	case AlertCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Alert 生命周期跟踪器的输出，由 monitor 格式化后投递给 AlertSink
type Alert struct {
	OpportunityID string
	Kind          AlertKind
	Candidate     Candidate
	At            time.Time
}
