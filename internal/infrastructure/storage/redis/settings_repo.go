package redis

import (
	"context"
	"fmt"
	"strconv"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// hashCmds is the subset of the go-redis client the settings repo needs.
type hashCmds interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// SettingsRepo 以单个 hash 保存运行时设置
type SettingsRepo struct {
	rdb    hashCmds
	key    string
	closer func() error
}

func NewSettingsRepo(rdb *redis.Client, key string) *SettingsRepo {
	return &SettingsRepo{rdb: rdb, key: key, closer: rdb.Close}
}

const (
	fieldMinProfit   = "min_profit_percent"
	fieldTradeAmount = "trade_amount_usd"
	fieldFee         = "fee_percent"
	fieldDestination = "alert_destination"
)

func (r *SettingsRepo) Load(ctx context.Context) (model.RuntimeSettings, error) {
	m, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return model.RuntimeSettings{}, err
	}
	if len(m) == 0 {
		return model.RuntimeSettings{}, port.ErrSettingsNotFound
	}

	var s model.RuntimeSettings
	if s.MinimumProfitPercent, err = parseField(m, fieldMinProfit); err != nil {
		return model.RuntimeSettings{}, err
	}
	if s.TradeAmountUSD, err = parseField(m, fieldTradeAmount); err != nil {
		return model.RuntimeSettings{}, err
	}
	if s.FeePercentPerLeg, err = parseField(m, fieldFee); err != nil {
		return model.RuntimeSettings{}, err
	}
	s.AlertDestination = m[fieldDestination]
	return s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s model.RuntimeSettings) error {
	return r.rdb.HSet(ctx, r.key,
		fieldMinProfit, strconv.FormatFloat(s.MinimumProfitPercent, 'f', -1, 64),
		fieldTradeAmount, strconv.FormatFloat(s.TradeAmountUSD, 'f', -1, 64),
		fieldFee, strconv.FormatFloat(s.FeePercentPerLeg, 'f', -1, 64),
		fieldDestination, s.AlertDestination,
	).Err()
}

func (r *SettingsRepo) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

func parseField(m map[string]string, field string) (float64, error) {
	v, ok := m[field]
	if !ok {
		return 0, fmt.Errorf("redis settings: missing field %s", field)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("redis settings: field %s: %w", field, err)
	}
	return f, nil
}

var _ port.SettingsRepository = (*SettingsRepo)(nil)
