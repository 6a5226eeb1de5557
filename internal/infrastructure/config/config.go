package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"arbwatch/internal/domain"
	"arbwatch/internal/domain/model"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Duration decodes TOML strings such as "30s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ExchangeConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`   // empty = connector default
	RestURL string `toml:"rest_url"` // empty = connector default
}

type Config struct {
	App struct {
		LogLevel     string   `toml:"log_level"`
		ScanInterval Duration `toml:"scan_interval"`
	} `toml:"app"`

	Pairs struct {
		List []string `toml:"list"`
	} `toml:"pairs"`

	Arbitrage struct {
		MinProfitPercent           float64  `toml:"min_profit_percent"`
		TradeAmountUSD             float64  `toml:"trade_amount_usd"`
		FeePercent                 float64  `toml:"fee_percent"`
		MaxGrossProfitPercent      float64  `toml:"max_gross_profit_percent"`
		CancelConfirmScans         int      `toml:"cancel_confirm_scans"`
		ProfitChangeAlertThreshold float64  `toml:"profit_change_alert_threshold"`
		Cooldown                   Duration `toml:"cooldown"`
		MaxQuoteAge                Duration `toml:"max_quote_age"` // 0 = disabled
	} `toml:"arbitrage"`

	Feed struct {
		BackoffMin   Duration `toml:"backoff_min"`
		BackoffMax   Duration `toml:"backoff_max"`
		DialTimeout  Duration `toml:"dial_timeout"`
		ReadTimeout  Duration `toml:"read_timeout"`
		PingInterval Duration `toml:"ping_interval"`
	} `toml:"feed"`

	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	Notify struct {
		Destination string `toml:"destination"`
		Console     bool   `toml:"console"`
		Telegram    struct {
			Token  string `toml:"token"`
			APIURL string `toml:"api_url"`
		} `toml:"telegram"`
		Redis struct {
			Enabled bool   `toml:"enabled"`
			Stream  string `toml:"stream"`
			Channel string `toml:"channel"`
		} `toml:"redis"`
	} `toml:"notify"`

	Settings struct {
		Backend string `toml:"backend"`
	} `toml:"settings"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Key      string `toml:"key"`
	} `toml:"redis"`

	SQLite struct {
		Path string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		DSN string `toml:"dsn"`
	} `toml:"postgres"`
}

// Defaults returns a Config carrying every documented default.
func Defaults() Config {
	var cfg Config
	cfg.App.LogLevel = "info"
	cfg.App.ScanInterval = Duration{10 * time.Second}

	cfg.Arbitrage.MinProfitPercent = model.DefaultMinimumProfitPercent
	cfg.Arbitrage.TradeAmountUSD = model.DefaultTradeAmountUSD
	cfg.Arbitrage.FeePercent = model.DefaultFeePercentPerLeg
	cfg.Arbitrage.MaxGrossProfitPercent = model.DefaultMaxGrossProfitSanityPct
	cfg.Arbitrage.CancelConfirmScans = model.DefaultCancellationConfirmScans
	cfg.Arbitrage.ProfitChangeAlertThreshold = model.DefaultProfitChangeAlertThreshold
	cfg.Arbitrage.Cooldown = Duration{model.DefaultCooldownPeriod}

	cfg.Feed.BackoffMin = Duration{time.Second}
	cfg.Feed.BackoffMax = Duration{30 * time.Second}
	cfg.Feed.DialTimeout = Duration{10 * time.Second}
	cfg.Feed.ReadTimeout = Duration{60 * time.Second}
	cfg.Feed.PingInterval = Duration{20 * time.Second}

	cfg.Notify.Console = true
	cfg.Notify.Telegram.APIURL = "https://api.telegram.org"
	cfg.Notify.Redis.Stream = "arbwatch:alerts"
	cfg.Notify.Redis.Channel = "arbwatch:alerts"

	cfg.Settings.Backend = BackendMemory
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Redis.Key = "arbwatch:settings"
	cfg.SQLite.Path = "arbwatch.db"
	return cfg
}

// Load decodes path over the defaults, loads .env if present, applies
// ARBWATCH_* overrides, then normalizes and validates.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.App.ScanInterval.Duration <= 0 {
		cfg.App.ScanInterval = d.App.ScanInterval
	}
	if cfg.Arbitrage.MaxGrossProfitPercent <= 0 {
		cfg.Arbitrage.MaxGrossProfitPercent = d.Arbitrage.MaxGrossProfitPercent
	}
	if cfg.Arbitrage.CancelConfirmScans <= 0 {
		cfg.Arbitrage.CancelConfirmScans = d.Arbitrage.CancelConfirmScans
	}
	if cfg.Feed.BackoffMin.Duration <= 0 {
		cfg.Feed.BackoffMin = d.Feed.BackoffMin
	}
	if cfg.Feed.BackoffMax.Duration <= 0 {
		cfg.Feed.BackoffMax = d.Feed.BackoffMax
	}
	if cfg.Feed.DialTimeout.Duration <= 0 {
		cfg.Feed.DialTimeout = d.Feed.DialTimeout
	}
	if cfg.Feed.ReadTimeout.Duration <= 0 {
		cfg.Feed.ReadTimeout = d.Feed.ReadTimeout
	}
	if cfg.Feed.PingInterval.Duration <= 0 {
		cfg.Feed.PingInterval = d.Feed.PingInterval
	}
	if strings.TrimSpace(cfg.Settings.Backend) == "" {
		cfg.Settings.Backend = BackendMemory
	}
}

func validate(cfg *Config) error {
	pairs, err := normalizePairs(cfg.Pairs.List)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return errors.New("pairs.list is empty")
	}
	cfg.Pairs.List = pairs

	if len(cfg.EnabledExchanges()) == 0 {
		return errors.New("no exchange enabled")
	}

	a := cfg.Arbitrage
	switch {
	case a.MinProfitPercent < 0:
		return errors.New("arbitrage.min_profit_percent must be >= 0")
	case a.TradeAmountUSD <= 0:
		return errors.New("arbitrage.trade_amount_usd must be > 0")
	case a.FeePercent < 0:
		return errors.New("arbitrage.fee_percent must be >= 0")
	case a.ProfitChangeAlertThreshold < 0:
		return errors.New("arbitrage.profit_change_alert_threshold must be >= 0")
	case a.Cooldown.Duration < 0 || a.MaxQuoteAge.Duration < 0:
		return errors.New("arbitrage durations must be >= 0")
	}

	if cfg.Feed.BackoffMin.Duration > cfg.Feed.BackoffMax.Duration {
		return errors.New("feed.backoff_min greater than feed.backoff_max")
	}

	n := cfg.Notify
	if !n.Console && strings.TrimSpace(n.Telegram.Token) == "" && !n.Redis.Enabled {
		return errors.New("notify: no alert sink enabled")
	}
	if n.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("notify.redis enabled but redis.addr empty")
	}

	cfg.Settings.Backend = strings.ToLower(strings.TrimSpace(cfg.Settings.Backend))
	switch cfg.Settings.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLite.Path) == "" {
			return errors.New("settings.backend=sqlite but sqlite.path empty")
		}
	case BackendPostgres:
		if strings.TrimSpace(cfg.Postgres.DSN) == "" {
			return errors.New("settings.backend=postgres but postgres.dsn empty")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return errors.New("settings.backend=redis but redis.addr empty")
		}
	default:
		return fmt.Errorf("unknown settings.backend %q", cfg.Settings.Backend)
	}
	return nil
}

func normalizePairs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		u := domain.NormalizePair(s)
		if u == "" {
			return nil, fmt.Errorf("pairs.list: invalid pair %q, want BASE/QUOTE", s)
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}

// EnabledExchanges returns enabled exchange names, lower-cased and sorted.
func (c *Config) EnabledExchanges() []string {
	var out []string
	for name, ex := range c.Exchanges {
		if ex.Enabled {
			out = append(out, strings.ToLower(strings.TrimSpace(name)))
		}
	}
	sort.Strings(out)
	return out
}

// Exchange looks up an exchange section by case-insensitive name.
func (c *Config) Exchange(name string) ExchangeConfig {
	for n, ex := range c.Exchanges {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return ex
		}
	}
	return ExchangeConfig{}
}

// ArbitrageSettings is the initial settings snapshot.
func (c *Config) ArbitrageSettings() model.Settings {
	return model.Settings{
		MinimumProfitPercent:       c.Arbitrage.MinProfitPercent,
		TradeAmountUSD:             c.Arbitrage.TradeAmountUSD,
		FeePercentPerLeg:           c.Arbitrage.FeePercent,
		AlertDestination:           strings.TrimSpace(c.Notify.Destination),
		MaxGrossProfitSanityPct:    c.Arbitrage.MaxGrossProfitPercent,
		CancellationConfirmScans:   c.Arbitrage.CancelConfirmScans,
		ProfitChangeAlertThreshold: c.Arbitrage.ProfitChangeAlertThreshold,
		CooldownPeriod:             c.Arbitrage.Cooldown.Duration,
		MaxQuoteAge:                c.Arbitrage.MaxQuoteAge.Duration,
	}
}
