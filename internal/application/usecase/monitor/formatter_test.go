package monitor

import (
	"testing"

	"arbwatch/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatterNewAlert(t *testing.T) {
	a := model.Alert{
		Kind:      model.AlertNew,
		Candidate: cand(keyAB, 101, 105, 3.7603960396),
	}
	want := "💰 Arbitrage for X/USDT!\n" +
		"Buy on A: 101.00000000\n" +
		"Sell on B: 105.00000000\n" +
		"Net profit: 3.76%\n" +
		"Volume: $50.00"
	assert.Equal(t, want, NewFormatter().Render(a))
}

func TestFormatterCancelledAlert(t *testing.T) {
	a := model.Alert{
		Kind:      model.AlertCancelled,
		Candidate: cand(keyAB, 0.00001234, 0.0000129, 4.33),
	}
	got := NewFormatter().Render(a)
	assert.Contains(t, got, "❌ Arbitrage for X/USDT cancelled")
	assert.Contains(t, got, "Buy on A: 0.00001234")
	assert.Contains(t, got, "Sell on B: 0.00001290")
}
