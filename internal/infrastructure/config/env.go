package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides reads ARBWATCH_* variables; set values win over the file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.App.LogLevel, "ARBWATCH_LOG_LEVEL")
	setDuration(&cfg.App.ScanInterval, "ARBWATCH_SCAN_INTERVAL")
	setStringSlice(&cfg.Pairs.List, "ARBWATCH_PAIRS")

	setFloat64(&cfg.Arbitrage.MinProfitPercent, "ARBWATCH_MIN_PROFIT_PERCENT")
	setFloat64(&cfg.Arbitrage.TradeAmountUSD, "ARBWATCH_TRADE_AMOUNT_USD")
	setFloat64(&cfg.Arbitrage.FeePercent, "ARBWATCH_FEE_PERCENT")

	setStr(&cfg.Notify.Destination, "ARBWATCH_NOTIFY_DESTINATION")
	setBool(&cfg.Notify.Console, "ARBWATCH_NOTIFY_CONSOLE")
	setStr(&cfg.Notify.Telegram.Token, "ARBWATCH_TELEGRAM_TOKEN")
	setBool(&cfg.Notify.Redis.Enabled, "ARBWATCH_NOTIFY_REDIS_ENABLED")

	setStr(&cfg.Settings.Backend, "ARBWATCH_SETTINGS_BACKEND")
	setStr(&cfg.Redis.Addr, "ARBWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBWATCH_REDIS_DB")
	setStr(&cfg.SQLite.Path, "ARBWATCH_SQLITE_PATH")
	setStr(&cfg.Postgres.DSN, "ARBWATCH_POSTGRES_DSN")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
