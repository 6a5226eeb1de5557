package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runtime_settings (
  id SMALLINT PRIMARY KEY CHECK (id = 1),
  min_profit_percent DOUBLE PRECISION NOT NULL,
  trade_amount_usd DOUBLE PRECISION NOT NULL,
  fee_percent DOUBLE PRECISION NOT NULL,
  alert_destination TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);
`)
	return err
}

func (r *Repo) Load(ctx context.Context) (model.RuntimeSettings, error) {
	var s model.RuntimeSettings
	err := r.db.QueryRowContext(ctx, `
SELECT min_profit_percent, trade_amount_usd, fee_percent, alert_destination
FROM runtime_settings WHERE id = 1`).
		Scan(&s.MinimumProfitPercent, &s.TradeAmountUSD, &s.FeePercentPerLeg, &s.AlertDestination)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RuntimeSettings{}, port.ErrSettingsNotFound
	}
	if err != nil {
		return model.RuntimeSettings{}, err
	}
	return s, nil
}

func (r *Repo) Save(ctx context.Context, s model.RuntimeSettings) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO runtime_settings(id, min_profit_percent, trade_amount_usd, fee_percent, alert_destination, updated_at)
VALUES(1, $1, $2, $3, $4, $5)
ON CONFLICT(id) DO UPDATE SET
  min_profit_percent = EXCLUDED.min_profit_percent,
  trade_amount_usd = EXCLUDED.trade_amount_usd,
  fee_percent = EXCLUDED.fee_percent,
  alert_destination = EXCLUDED.alert_destination,
  updated_at = EXCLUDED.updated_at
`, s.MinimumProfitPercent, s.TradeAmountUSD, s.FeePercentPerLeg, s.AlertDestination, time.Now().UnixMilli())
	return err
}

var _ port.SettingsRepository = (*Repo)(nil)
