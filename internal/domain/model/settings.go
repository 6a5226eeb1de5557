package model

import "time"

const (
	DefaultMinimumProfitPercent       = 2.0
	DefaultTradeAmountUSD             = 50.0
	DefaultFeePercentPerLeg           = 0.1
	DefaultMaxGrossProfitSanityPct    = 100.0
	DefaultCancellationConfirmScans   = 2
	DefaultProfitChangeAlertThreshold = 0.5
	DefaultCooldownPeriod             = 300 * time.Second
)

// Settings 一次扫描周期使用的配置快照。
// 周期开始时读取一次，周期内不再变化。
type Settings struct {
	// runtime-mutable
	MinimumProfitPercent float64
	TradeAmountUSD       float64
	FeePercentPerLeg     float64
	AlertDestination     string

	// static tunables
	MaxGrossProfitSanityPct    float64
	CancellationConfirmScans   int
	ProfitChangeAlertThreshold float64
	CooldownPeriod             time.Duration
	MaxQuoteAge                time.Duration // 0 disables the freshness cut-off
}

// DefaultSettings returns the documented defaults with no alert destination.
func DefaultSettings() Settings {
	return Settings{
		MinimumProfitPercent:       DefaultMinimumProfitPercent,
		TradeAmountUSD:             DefaultTradeAmountUSD,
		FeePercentPerLeg:           DefaultFeePercentPerLeg,
		MaxGrossProfitSanityPct:    DefaultMaxGrossProfitSanityPct,
		CancellationConfirmScans:   DefaultCancellationConfirmScans,
		ProfitChangeAlertThreshold: DefaultProfitChangeAlertThreshold,
		CooldownPeriod:             DefaultCooldownPeriod,
	}
}

// RuntimeSettings is the persisted, externally mutable subset of Settings.
type RuntimeSettings struct {
	MinimumProfitPercent float64 `json:"minimum_profit_percent"`
	TradeAmountUSD       float64 `json:"trade_amount_usd"`
	FeePercentPerLeg     float64 `json:"fee_percent_per_leg"`
	AlertDestination     string  `json:"alert_destination"`
}
