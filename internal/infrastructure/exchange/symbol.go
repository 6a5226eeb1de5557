package exchange

import (
	"strings"
)

// SplitPair splits "BTC/USDT" into its base and quote assets.
func SplitPair(pair string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(strings.ToUpper(strings.TrimSpace(pair)), "/")
	if !ok || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}

// JoinPair builds "BASE/QUOTE" from venue asset names.
func JoinPair(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
}

// ConcatSymbol 例: BTC/USDT -> BTCUSDT (binance, bybit)
func ConcatSymbol(pair string) string {
	base, quote, ok := SplitPair(pair)
	if !ok {
		return ""
	}
	return base + quote
}

// DashSymbol 例: BTC/USDT -> BTC-USDT (okx)
func DashSymbol(pair string) string {
	base, quote, ok := SplitPair(pair)
	if !ok {
		return ""
	}
	return base + "-" + quote
}
