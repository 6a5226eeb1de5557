package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
)

// Repo SQLite 设置仓储，单行表只保存最新值
type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
  id INTEGER PRIMARY KEY CHECK (id = 1),
  min_profit_percent REAL NOT NULL,
  trade_amount_usd REAL NOT NULL,
  fee_percent REAL NOT NULL,
  alert_destination TEXT NOT NULL,
  updated_at INTEGER NOT NULL
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
VALUES(1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  min_profit_percent = excluded.min_profit_percent,
  trade_amount_usd = excluded.trade_amount_usd,
  fee_percent = excluded.fee_percent,
  alert_destination = excluded.alert_destination,
  updated_at = excluded.updated_at
`, s.MinimumProfitPercent, s.TradeAmountUSD, s.FeePercentPerLeg, s.AlertDestination, time.Now().UnixMilli())
	return err
}

var _ port.SettingsRepository = (*Repo)(nil)
