package monitor

import (
	"fmt"
	"testing"
	"time"

	"arbwatch/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyAB = model.OpportunityKey{Pair: "X/USDT", BuyExchange: "A", SellExchange: "B"}

func cand(key model.OpportunityKey, buy, sell, net float64) model.Candidate {
	return model.Candidate{Key: key, BuyPrice: buy, SellPrice: sell, NetProfitPct: net, TradeAmountUSD: 50}
}

func set(cs ...model.Candidate) map[model.OpportunityKey]model.Candidate {
	out := make(map[model.OpportunityKey]model.Candidate, len(cs))
	for _, c := range cs {
		out[c.Key] = c
	}
	return out
}

func newTestTracker() *Tracker {
	tr := NewTracker()
	n := 0
	tr.newID = func() string {
		n++
		return fmt.Sprintf("opp-%d", n)
	}
	return tr
}

func TestTrackerNewOpportunityAlertsOnce(t *testing.T) {
	tr := newTestTracker()
	cfg := model.DefaultSettings()
	now := time.Unix(1_700_000_000, 0)
	cur := set(cand(keyAB, 101, 105, 3.76))

	alerts := tr.Update(cur, cfg, now)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertNew, alerts[0].Kind)
	assert.Equal(t, "opp-1", alerts[0].OpportunityID)

	// identical set again: no alert
	assert.Empty(t, tr.Update(cur, cfg, now.Add(5*time.Second)))
	assert.Equal(t, 1, tr.Len())
}

func TestTrackerProfitChangeRealerts(t *testing.T) {
	tr := newTestTracker()
	cfg := model.DefaultSettings()
	now := time.Unix(1_700_000_000, 0)

	tr.Update(set(cand(keyAB, 101, 105, 3.0)), cfg, now)

	// 0.4 below threshold
	assert.Empty(t, tr.Update(set(cand(keyAB, 101, 105.4, 3.4)), cfg, now.Add(time.Second)))

	// drift compares against the last alerted value, 3.0 -> 3.5
	alerts := tr.Update(set(cand(keyAB, 101, 105.5, 3.5)), cfg, now.Add(2*time.Second))
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertUpdate, alerts[0].Kind)
	assert.Equal(t, "opp-1", alerts[0].OpportunityID)

	rec, ok := tr.Active(keyAB)
	require.True(t, ok)
	assert.Equal(t, 3.5, rec.NetProfitPct)
	assert.Equal(t, 105.5, rec.SellPrice)
	assert.Equal(t, now.Add(2*time.Second), rec.LastAlertAt)
}

func TestTrackerCooldownRealerts(t *testing.T) {
	tr := newTestTracker()
	cfg := model.DefaultSettings()
	now := time.Unix(1_700_000_000, 0)
	cur := set(cand(keyAB, 101, 105, 3.0))

	tr.Update(cur, cfg, now)
	assert.Empty(t, tr.Update(cur, cfg, now.Add(cfg.CooldownPeriod-time.Second)))

	alerts := tr.Update(cur, cfg, now.Add(cfg.CooldownPeriod))
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertUpdate, alerts[0].Kind)
}

func TestTrackerCancellationConfirmation(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("confirm=%d", k), func(t *testing.T) {
			tr := newTestTracker()
			cfg := model.DefaultSettings()
			cfg.CancellationConfirmScans = k
			now := time.Unix(1_700_000_000, 0)

			tr.Update(set(cand(keyAB, 101, 105, 3.76)), cfg, now)

			for i := 1; i < k; i++ {
				assert.Empty(t, tr.Update(nil, cfg, now.Add(time.Duration(i)*time.Second)))
				rec, ok := tr.Active(keyAB)
				require.True(t, ok)
				assert.Equal(t, i, rec.MissedScans)
			}

			alerts := tr.Update(nil, cfg, now.Add(time.Duration(k)*time.Second))
			require.Len(t, alerts, 1)
			assert.Equal(t, model.AlertCancelled, alerts[0].Kind)
			assert.Equal(t, 101.0, alerts[0].Candidate.BuyPrice)
			assert.Equal(t, 105.0, alerts[0].Candidate.SellPrice)
			assert.Equal(t, 0, tr.Len())

			// nothing more once cancelled
			assert.Empty(t, tr.Update(nil, cfg, now.Add(time.Hour)))
		})
	}
}

func TestTrackerReappearanceResetsMisses(t *testing.T) {
	tr := newTestTracker()
	cfg := model.DefaultSettings()
	now := time.Unix(1_700_000_000, 0)
	cur := set(cand(keyAB, 101, 105, 3.76))

	tr.Update(cur, cfg, now)
	tr.Update(nil, cfg, now.Add(time.Second))
	assert.Empty(t, tr.Update(cur, cfg, now.Add(2*time.Second)))

	rec, ok := tr.Active(keyAB)
	require.True(t, ok)
	assert.Equal(t, 0, rec.MissedScans)

	// needs two fresh misses again
	assert.Empty(t, tr.Update(nil, cfg, now.Add(3*time.Second)))
	assert.Len(t, tr.Update(nil, cfg, now.Add(4*time.Second)), 1)
}

func TestTrackerCancelledReportsLatestObservation(t *testing.T) {
	tr := newTestTracker()
	cfg := model.DefaultSettings()
	now := time.Unix(1_700_000_000, 0)

	tr.Update(set(cand(keyAB, 101, 105, 3.0)), cfg, now)
	tr.Update(set(cand(keyAB, 101, 105.2, 3.2)), cfg, now.Add(time.Second))
	tr.Update(nil, cfg, now.Add(2*time.Second))
	alerts := tr.Update(nil, cfg, now.Add(3*time.Second))

	require.Len(t, alerts, 1)
	assert.Equal(t, 105.2, alerts[0].Candidate.SellPrice)
	assert.Equal(t, "opp-1", alerts[0].OpportunityID)
}

func TestTrackerOrdersAlerts(t *testing.T) {
	tr := newTestTracker()
	cfg := model.DefaultSettings()
	cfg.CancellationConfirmScans = 1
	now := time.Unix(1_700_000_000, 0)

	keyCD := model.OpportunityKey{Pair: "Y/USDT", BuyExchange: "C", SellExchange: "D"}
	keyBA := model.OpportunityKey{Pair: "X/USDT", BuyExchange: "B", SellExchange: "A"}

	tr.Update(set(cand(keyCD, 1, 2, 3)), cfg, now)
	alerts := tr.Update(set(cand(keyBA, 1, 2, 3), cand(keyAB, 1, 2, 3)), cfg, now.Add(time.Second))

	require.Len(t, alerts, 3)
	assert.Equal(t, model.AlertCancelled, alerts[0].Kind)
	assert.Equal(t, keyCD, alerts[0].Candidate.Key)
	assert.Equal(t, keyAB, alerts[1].Candidate.Key)
	assert.Equal(t, keyBA, alerts[2].Candidate.Key)
}
