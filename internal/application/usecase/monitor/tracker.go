package monitor

import (
	"math"
	"sort"
	"time"

	"arbwatch/internal/domain/model"

	"github.com/google/uuid"
)

// Tracker 机会生命周期状态机：absent -> active -> stale -> cancelled。
// 记录表只在扫描周期内由单个 goroutine 访问，不加锁。
type Tracker struct {
	records map[model.OpportunityKey]*model.OpportunityRecord
	newID   func() string
}

func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[model.OpportunityKey]*model.OpportunityRecord),
		newID:   uuid.NewString,
	}
}

// Update applies one scan result and returns the alerts to dispatch,
// cancellations first, each group in key order.
func (t *Tracker) Update(current map[model.OpportunityKey]model.Candidate, cfg model.Settings, now time.Time) []model.Alert {
	confirm := cfg.CancellationConfirmScans
	if confirm < 1 {
		confirm = 1
	}

	var alerts []model.Alert

	// missing keys
	for _, key := range sortedRecordKeys(t.records) {
		if _, ok := current[key]; ok {
			continue
		}
		rec := t.records[key]
		rec.MissedScans++
		if rec.MissedScans < confirm {
			continue
		}
		alerts = append(alerts, model.Alert{
			OpportunityID: rec.ID,
			Kind:          model.AlertCancelled,
			Candidate:     rec.Last,
			At:            now,
		})
		delete(t.records, key)
	}

	// present keys
	for _, key := range sortedCandidateKeys(current) {
		c := current[key]
		rec, ok := t.records[key]
		if !ok {
			rec = &model.OpportunityRecord{ID: t.newID(), Key: key, FirstSeenAt: now}
			t.records[key] = rec
			rec.Last = c
			markAlerted(rec, c, now)
			alerts = append(alerts, model.Alert{OpportunityID: rec.ID, Kind: model.AlertNew, Candidate: c, At: now})
			continue
		}

		rec.MissedScans = 0
		rec.Last = c

		changed := math.Abs(c.NetProfitPct-rec.NetProfitPct) >= cfg.ProfitChangeAlertThreshold
		cooled := now.Sub(rec.LastAlertAt) >= cfg.CooldownPeriod
		if !changed && !cooled {
			continue
		}
		markAlerted(rec, c, now)
		alerts = append(alerts, model.Alert{OpportunityID: rec.ID, Kind: model.AlertUpdate, Candidate: c, At: now})
	}

	return alerts
}

// Active returns a copy of the record for key, if any.
func (t *Tracker) Active(key model.OpportunityKey) (model.OpportunityRecord, bool) {
	rec, ok := t.records[key]
	if !ok {
		return model.OpportunityRecord{}, false
	}
	return *rec, true
}

func (t *Tracker) Len() int { return len(t.records) }

func markAlerted(rec *model.OpportunityRecord, c model.Candidate, now time.Time) {
	rec.BuyPrice = c.BuyPrice
	rec.SellPrice = c.SellPrice
	rec.NetProfitPct = c.NetProfitPct
	rec.TradeAmountUSD = c.TradeAmountUSD
	rec.LastAlertAt = now
}

func sortedRecordKeys(m map[model.OpportunityKey]*model.OpportunityRecord) []model.OpportunityKey {
	keys := make([]model.OpportunityKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func sortedCandidateKeys(m map[model.OpportunityKey]model.Candidate) []model.OpportunityKey {
	keys := make([]model.OpportunityKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
