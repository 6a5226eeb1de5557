package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// Scanner computes one cycle's candidate set.
type Scanner interface {
	Scan(cfg model.Settings, now time.Time) map[model.OpportunityKey]model.Candidate
}

// SettingsProvider hands out a settings snapshot per cycle.
type SettingsProvider interface {
	Snapshot() model.Settings
}

type ServiceDeps struct {
	Scanner     Scanner
	Settings    SettingsProvider
	Sink        port.AlertSink
	Clock       port.Clock
	Interval    time.Duration
	SendTimeout time.Duration
}

// Service 周期性运行 扫描 -> 生命周期跟踪 -> 告警投递
type Service struct {
	deps    ServiceDeps
	tracker *Tracker
	fmt     *Formatter

	cycle sync.Mutex // 周期互斥，不允许重叠
}

func NewService(deps ServiceDeps) *Service {
	if deps.Clock == nil {
		deps.Clock = port.SystemClock{}
	}
	if deps.SendTimeout <= 0 {
		deps.SendTimeout = 10 * time.Second
	}
	return &Service{
		deps:    deps,
		tracker: NewTracker(),
		fmt:     NewFormatter(),
	}
}

func (s *Service) Run(ctx context.Context) error {
	if s.deps.Interval <= 0 {
		return errors.New("scan interval must be positive")
	}

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.deps.Interval).Msg("monitor started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle runs one scan+track cycle. It returns false when the cycle was
// skipped because another one is in progress or alerts are disabled.
func (s *Service) RunCycle(ctx context.Context) bool {
	if !s.cycle.TryLock() {
		log.Warn().Msg("previous scan cycle still running, skipping")
		return false
	}
	defer s.cycle.Unlock()

	cfg := s.deps.Settings.Snapshot()
	if cfg.AlertDestination == "" {
		log.Warn().Msg("no alert destination configured, scan skipped")
		return false
	}

	now := s.deps.Clock.Now()
	current := s.deps.Scanner.Scan(cfg, now)
	alerts := s.tracker.Update(current, cfg, now)

	for _, a := range alerts {
		if ctx.Err() != nil {
			return true
		}
		s.dispatch(ctx, cfg.AlertDestination, a)
	}

	log.Debug().
		Int("candidates", len(current)).
		Int("alerts", len(alerts)).
		Int("active", s.tracker.Len()).
		Msg("scan cycle done")
	return true
}

// dispatch never rolls back tracker state and never retries.
func (s *Service) dispatch(ctx context.Context, dest string, a model.Alert) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.SendTimeout)
	defer cancel()

	k := a.Candidate.Key
	ev, msg := log.Info(), "alert sent"
	if err := s.deps.Sink.Send(ctx, dest, s.fmt.Render(a)); err != nil {
		ev, msg = log.Error().Err(err), "alert dispatch failed"
	}
	ev.Str("id", a.OpportunityID).
		Str("kind", a.Kind.String()).
		Str("pair", k.Pair).
		Str("buy", k.BuyExchange).
		Str("sell", k.SellExchange).
		Float64("net_pct", a.Candidate.NetProfitPct).
		Msg(msg)
}
