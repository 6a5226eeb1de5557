package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"arbwatch/internal/application/port"
	"arbwatch/internal/application/service"
	"arbwatch/internal/application/usecase/monitor"
	"arbwatch/internal/domain"
	"arbwatch/internal/infrastructure/config"
	"arbwatch/internal/infrastructure/connector"
	"arbwatch/internal/infrastructure/exchange"
	"arbwatch/internal/infrastructure/feed"
	postgresrepo "arbwatch/internal/infrastructure/storage/postgres"
	redisrepo "arbwatch/internal/infrastructure/storage/redis"
	sqliterepo "arbwatch/internal/infrastructure/storage/sqlite"
	"arbwatch/internal/interfaces/console"
	"arbwatch/internal/interfaces/fanout"
	"arbwatch/internal/interfaces/telegram"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层
	redisClient  *redisclient.Client
	settingsRepo port.SettingsRepository
	connectors   []port.Connector

	// 输出端口
	Sink port.AlertSink

	// 应用组件
	Board      *domain.Board
	Settings   *service.SettingsService
	Supervisor *feed.Supervisor
	Monitor    *monitor.Service

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext，所有依赖都在这里完成装配
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 按依赖顺序初始化
func (sc *ServiceContext) initializeComponents() error {
	// 0. 存储层
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// 1. 运行时设置
	sc.Settings = service.NewSettingsService(sc.Config.ArbitrageSettings(), sc.settingsRepo)
	if err := sc.Settings.Restore(sc.Ctx); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	}

	// 2. 告警输出
	if err := sc.initializeSinks(); err != nil {
		return err
	}

	// 3. 行情表 + 连接器 (最后创建，Supervisor 负责关闭)
	sc.Board = domain.NewBoard(sc.Config.Pairs.List)
	if err := sc.initializeConnectors(); err != nil {
		return err
	}

	sc.Supervisor = feed.NewSupervisor(feed.SupervisorConfig{
		Pairs:      sc.Config.Pairs.List,
		BackoffMin: sc.Config.Feed.BackoffMin.Duration,
		BackoffMax: sc.Config.Feed.BackoffMax.Duration,
	}, sc.Board, sc.connectors)

	sc.Monitor = monitor.NewService(sc.BuildMonitorServiceDeps())

	log.Info().
		Int("connectors", len(sc.connectors)).
		Int("pairs", len(sc.Config.Pairs.List)).
		Str("settings_backend", sc.Config.Settings.Backend).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 根据 settings.backend 选择持久化实现；memory 不持久化
func (sc *ServiceContext) initializeStorage() error {
	needRedis := sc.Config.Settings.Backend == config.BackendRedis || sc.Config.Notify.Redis.Enabled
	if needRedis {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
	}

	switch sc.Config.Settings.Backend {
	case config.BackendMemory, "":
		return nil
	case config.BackendRedis:
		sc.settingsRepo = redisrepo.NewSettingsRepo(sc.redisClient, sc.Config.Redis.Key)
	case config.BackendSQLite:
		repo, err := sqliterepo.New(sc.Config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite repo creation failed: %w", err)
		}
		sc.settingsRepo = repo
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing sqlite connection")
			return repo.Close()
		})
		log.Info().Str("path", sc.Config.SQLite.Path).Msg("✓ SQLite initialized")
	case config.BackendPostgres:
		repo, err := postgresrepo.New(sc.Config.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres repo creation failed: %w", err)
		}
		sc.settingsRepo = repo
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		log.Info().Msg("✓ Postgres initialized")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, sc.Config.Settings.Backend)
	}
	return nil
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	rdb, err := redisrepo.NewClient(ctx, redisrepo.ClientConfig{
		Addr:     sc.Config.Redis.Addr,
		Password: sc.Config.Redis.Password,
		DB:       sc.Config.Redis.DB,
	})
	if err != nil {
		return err
	}
	sc.redisClient = rdb

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", sc.Config.Redis.Addr).
		Int("db", sc.Config.Redis.DB).
		Msg("✓ Redis initialized")
	return nil
}

func (sc *ServiceContext) initializeSinks() error {
	var sinks []port.AlertSink
	n := sc.Config.Notify

	if n.Console {
		sinks = append(sinks, console.NewSink())
	}
	if n.Telegram.Token != "" {
		sinks = append(sinks, telegram.NewSink(n.Telegram.Token, n.Telegram.APIURL))
		log.Info().Msg("✓ Telegram sink enabled")
	}
	if n.Redis.Enabled {
		sinks = append(sinks, redisrepo.NewAlertSink(sc.redisClient, n.Redis.Stream, n.Redis.Channel))
		log.Info().Str("stream", n.Redis.Stream).Msg("✓ Redis alert sink enabled")
	}

	out := fanout.New(sinks...)
	if out.Len() == 0 {
		return ErrNoSinksEnabled
	}
	sc.Sink = out
	return nil
}

func (sc *ServiceContext) initializeConnectors() error {
	for _, name := range sc.Config.EnabledExchanges() {
		exCfg := sc.Config.Exchange(name)
		conn, err := connector.New(name, exchange.Options{
			WsURL:        exCfg.WsURL,
			RestURL:      exCfg.RestURL,
			DialTimeout:  sc.Config.Feed.DialTimeout.Duration,
			ReadTimeout:  sc.Config.Feed.ReadTimeout.Duration,
			PingInterval: sc.Config.Feed.PingInterval.Duration,
		})
		if err != nil {
			log.Warn().Err(err).Str("exchange", name).Msg("connector unavailable, skipping")
			continue
		}
		sc.connectors = append(sc.connectors, conn)
	}
	if len(sc.connectors) == 0 {
		return ErrNoConnectorsEnabled
	}
	return nil
}

// BuildMonitorServiceDeps 构建 Monitor Service 所需的依赖
func (sc *ServiceContext) BuildMonitorServiceDeps() monitor.ServiceDeps {
	return monitor.ServiceDeps{
		Scanner:  service.NewScanner(sc.Board),
		Settings: sc.Settings,
		Sink:     sc.Sink,
		Clock:    port.SystemClock{},
		Interval: sc.Config.App.ScanInterval.Duration,
	}
}

// Run 启动 feed supervisor 和扫描周期，直到 ctx 结束
func (sc *ServiceContext) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sc.Supervisor.Run(gctx) })
	g.Go(func() error { return sc.Monitor.Run(gctx) })
	return g.Wait()
}

// Close 按相反顺序关闭资源；连接器由 Supervisor.Run 退出时关闭
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
