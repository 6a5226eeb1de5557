package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"arbwatch/internal/infrastructure/config"
	_ "arbwatch/internal/infrastructure/exchange/binance"
	_ "arbwatch/internal/infrastructure/exchange/bybit"
	_ "arbwatch/internal/infrastructure/exchange/okx"
	"arbwatch/internal/infrastructure/logger"
	"arbwatch/internal/infrastructure/svc"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	logger.Setup("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service initialization failed")
	}
	defer sc.Close()

	log.Info().
		Str("config", *configPath).
		Strs("pairs", cfg.Pairs.List).
		Strs("exchanges", cfg.EnabledExchanges()).
		Dur("scan_interval", cfg.App.ScanInterval.Duration).
		Float64("min_profit_pct", sc.Settings.MinimumProfitPercent()).
		Msg("arbwatch started")

	if err := sc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("arbwatch exited")
		return
	}
	log.Info().Msg("arbwatch stopped")
}
