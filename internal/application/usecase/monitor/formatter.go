package monitor

import (
	"fmt"
	"strings"

	"arbwatch/internal/domain/model"

	"github.com/shopspring/decimal"
)

const (
	pricePlaces  = 8
	amountPlaces = 2
)

// Formatter 将告警渲染为发送给 AlertSink 的纯文本
type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

func (f *Formatter) Render(a model.Alert) string {
	c := a.Candidate
	var sb strings.Builder

	switch a.Kind {
	case model.AlertNew:
		fmt.Fprintf(&sb, "💰 Arbitrage for %s!\n", c.Key.Pair)
	case model.AlertUpdate:
		fmt.Fprintf(&sb, "🔄 Arbitrage update for %s\n", c.Key.Pair)
	case model.AlertCancelled:
		fmt.Fprintf(&sb, "❌ Arbitrage for %s cancelled\n", c.Key.Pair)
		sb.WriteString("Last known:\n")
	}

	fmt.Fprintf(&sb, "Buy on %s: %s\n", c.Key.BuyExchange, price(c.BuyPrice))
	fmt.Fprintf(&sb, "Sell on %s: %s\n", c.Key.SellExchange, price(c.SellPrice))
	fmt.Fprintf(&sb, "Net profit: %s%%\n", amount(c.NetProfitPct))
	fmt.Fprintf(&sb, "Volume: $%s", amount(c.TradeAmountUSD))
	return sb.String()
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(pricePlaces)
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(amountPlaces)
}
