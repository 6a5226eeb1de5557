package svc

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
	"arbwatch/internal/infrastructure/config"
	"arbwatch/internal/infrastructure/connector"
	"arbwatch/internal/infrastructure/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleConn struct{ name string }

func (c *idleConn) Name() string { return c.name }

func (c *idleConn) LoadSupportedPairs(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (c *idleConn) OpenBook(ctx context.Context, pair string) (port.BookStream, error) {
	return nil, errors.New("not supported")
}

func (c *idleConn) Close() error { return nil }

func init() {
	connector.Register("svctest", func(exchange.Options) port.Connector { return &idleConn{name: "svctest"} })
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Defaults()
	cfg.Pairs.List = []string{"BTC/USDT"}
	cfg.App.ScanInterval = config.Duration{Duration: 20 * time.Millisecond}
	cfg.Exchanges = map[string]config.ExchangeConfig{"svctest": {Enabled: true}}
	cfg.Settings.Backend = config.BackendSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "settings.db")
	return &cfg
}

func TestNewWiresComponents(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	sc, err := New(ctx, cfg)
	require.NoError(t, err)
	defer sc.Close()

	assert.NotNil(t, sc.Board)
	assert.NotNil(t, sc.Supervisor)
	assert.NotNil(t, sc.Monitor)
	assert.Len(t, sc.connectors, 1)
	assert.Equal(t, model.DefaultTradeAmountUSD, sc.Settings.TradeAmountUSD())

	deps := sc.BuildMonitorServiceDeps()
	assert.Equal(t, 20*time.Millisecond, deps.Interval)
	assert.NotNil(t, deps.Scanner)
}

func TestSettingsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	sc, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, sc.Settings.SetTradeAmountUSD(ctx, 125))
	require.NoError(t, sc.Settings.SetAlertDestination(ctx, "chat-9"))
	require.NoError(t, sc.Close())

	sc2, err := New(ctx, cfg)
	require.NoError(t, err)
	defer sc2.Close()
	assert.Equal(t, 125.0, sc2.Settings.TradeAmountUSD())
	assert.Equal(t, "chat-9", sc2.Settings.AlertDestination())
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Exchanges = nil
	_, err := New(ctx, cfg)
	assert.ErrorIs(t, err, ErrNoConnectorsEnabled)

	cfg = testConfig(t)
	cfg.Exchanges = map[string]config.ExchangeConfig{"nowhere": {Enabled: true}}
	_, err = New(ctx, cfg)
	assert.ErrorIs(t, err, ErrNoConnectorsEnabled)

	cfg = testConfig(t)
	cfg.Settings.Backend = "etcd"
	_, err = New(ctx, cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	cfg = testConfig(t)
	cfg.Notify.Console = false
	_, err = New(ctx, cfg)
	assert.ErrorIs(t, err, ErrNoSinksEnabled)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.Backend = config.BackendMemory

	sc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer sc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = sc.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
