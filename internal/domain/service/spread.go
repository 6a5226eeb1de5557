package service

import "math"

// GrossProfitPct 跨交易所毛利率: (sell - buy) / buy * 100
func GrossProfitPct(buyAsk, sellBid float64) float64 {
	return (sellBid - buyAsk) / buyAsk * 100
}

// NetProfitPct 扣除双边手续费后的净利率
func NetProfitPct(gross, feePercentPerLeg float64) float64 {
	return gross - 2*feePercentPerLeg
}

// RequiredVolume base-asset size needed to trade amountUSD at price.
func RequiredVolume(amountUSD, price float64) float64 {
	if price <= 0 || math.IsInf(price, 0) {
		return math.Inf(1)
	}
	return amountUSD / price
}

// HasLiquidity reports whether both sides can absorb amountUSD.
func HasLiquidity(amountUSD, buyAsk, askSize, sellBid, bidSize float64) bool {
	return askSize >= RequiredVolume(amountUSD, buyAsk) &&
		bidSize >= RequiredVolume(amountUSD, sellBid)
}
