package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrossAndNetProfit(t *testing.T) {
	gross := GrossProfitPct(100, 103)
	assert.InDelta(t, 3.0, gross, 1e-9)
	assert.InDelta(t, 2.8, NetProfitPct(gross, 0.1), 1e-9)
}

func TestRequiredVolume(t *testing.T) {
	assert.InDelta(t, 0.5, RequiredVolume(50, 100), 1e-12)
	assert.True(t, math.IsInf(RequiredVolume(50, 0), 1))
}

func TestHasLiquidity(t *testing.T) {
	// 50 USD at 100 needs 0.5 on the buy side, at 103 needs ~0.4854 on the sell side
	assert.True(t, HasLiquidity(50, 100, 0.5, 103, 0.49))
	assert.False(t, HasLiquidity(50, 100, 0.49, 103, 1))
	assert.False(t, HasLiquidity(50, 100, 1, 103, 0.48))
}
