package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// SettingsService 运行时设置：扫描周期开始时通过 Snapshot 读取一次，
// 外部命令面通过 setter 修改。
type SettingsService struct {
	mu   sync.RWMutex
	cur  model.Settings
	repo port.SettingsRepository // optional
}

func NewSettingsService(defaults model.Settings, repo port.SettingsRepository) *SettingsService {
	return &SettingsService{cur: defaults, repo: repo}
}

// Restore loads persisted runtime values over the configured defaults.
// A missing record is not an error.
func (s *SettingsService) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	rs, err := s.repo.Load(ctx)
	if errors.Is(err, port.ErrSettingsNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := validateRuntime(rs); err != nil {
		return fmt.Errorf("stored settings: %w", err)
	}

	s.mu.Lock()
	s.cur.MinimumProfitPercent = rs.MinimumProfitPercent
	s.cur.TradeAmountUSD = rs.TradeAmountUSD
	s.cur.FeePercentPerLeg = rs.FeePercentPerLeg
	s.cur.AlertDestination = rs.AlertDestination
	s.mu.Unlock()

	log.Info().
		Float64("min_profit_pct", rs.MinimumProfitPercent).
		Float64("trade_amount_usd", rs.TradeAmountUSD).
		Float64("fee_pct", rs.FeePercentPerLeg).
		Bool("alerts", rs.AlertDestination != "").
		Msg("settings restored")
	return nil
}

// Snapshot returns a copy of the current settings.
func (s *SettingsService) Snapshot() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *SettingsService) MinimumProfitPercent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.MinimumProfitPercent
}

func (s *SettingsService) TradeAmountUSD() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.TradeAmountUSD
}

func (s *SettingsService) FeePercentPerLeg() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.FeePercentPerLeg
}

func (s *SettingsService) AlertDestination() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AlertDestination
}

func (s *SettingsService) SetMinimumProfitPercent(ctx context.Context, v float64) error {
	if !finite(v) || v < 0 {
		return fmt.Errorf("minimum profit %v: %w", v, model.ErrInvalidSetting)
	}
	return s.update(ctx, func(c *model.Settings) { c.MinimumProfitPercent = v })
}

func (s *SettingsService) SetTradeAmountUSD(ctx context.Context, v float64) error {
	if !finite(v) || v <= 0 {
		return fmt.Errorf("trade amount %v: %w", v, model.ErrInvalidSetting)
	}
	return s.update(ctx, func(c *model.Settings) { c.TradeAmountUSD = v })
}

func (s *SettingsService) SetFeePercentPerLeg(ctx context.Context, v float64) error {
	if !finite(v) || v < 0 {
		return fmt.Errorf("fee %v: %w", v, model.ErrInvalidSetting)
	}
	return s.update(ctx, func(c *model.Settings) { c.FeePercentPerLeg = v })
}

// SetAlertDestination enables alerting to dest.
func (s *SettingsService) SetAlertDestination(ctx context.Context, dest string) error {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return fmt.Errorf("empty destination: %w", model.ErrInvalidSetting)
	}
	return s.update(ctx, func(c *model.Settings) { c.AlertDestination = dest })
}

// DisableAlerts clears the destination; scan cycles are skipped until a new one is set.
func (s *SettingsService) DisableAlerts(ctx context.Context) error {
	return s.update(ctx, func(c *model.Settings) { c.AlertDestination = "" })
}

// update applies fn and persists the runtime subset. A failed save is logged;
// the new value stays in effect.
func (s *SettingsService) update(ctx context.Context, fn func(*model.Settings)) error {
	s.mu.Lock()
	fn(&s.cur)
	rs := runtimeOf(s.cur)
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, rs); err != nil {
		log.Error().Err(err).Msg("save settings failed")
	}
	return nil
}

func runtimeOf(c model.Settings) model.RuntimeSettings {
	return model.RuntimeSettings{
		MinimumProfitPercent: c.MinimumProfitPercent,
		TradeAmountUSD:       c.TradeAmountUSD,
		FeePercentPerLeg:     c.FeePercentPerLeg,
		AlertDestination:     c.AlertDestination,
	}
}

func validateRuntime(rs model.RuntimeSettings) error {
	switch {
	case !finite(rs.MinimumProfitPercent) || rs.MinimumProfitPercent < 0:
		return fmt.Errorf("minimum profit %v: %w", rs.MinimumProfitPercent, model.ErrInvalidSetting)
	case !finite(rs.TradeAmountUSD) || rs.TradeAmountUSD <= 0:
		return fmt.Errorf("trade amount %v: %w", rs.TradeAmountUSD, model.ErrInvalidSetting)
	case !finite(rs.FeePercentPerLeg) || rs.FeePercentPerLeg < 0:
		return fmt.Errorf("fee %v: %w", rs.FeePercentPerLeg, model.ErrInvalidSetting)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
