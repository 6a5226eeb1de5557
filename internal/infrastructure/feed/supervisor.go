package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrNotRunning = errors.New("supervisor not running")

// Key identifies one feed task.
type Key struct {
	Pair     string
	Exchange string
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type SupervisorConfig struct {
	Pairs      []string
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// Supervisor 为每个交易所加载支持的交易对，并为每个 (pair, exchange) 启动一个 Watcher。
// 任务注册表按 Key 索引，可以单独查询、重启或停止某个 feed。
type Supervisor struct {
	cfg   SupervisorConfig
	table Table
	conns map[string]port.Connector

	mu      sync.Mutex
	root    context.Context // watcher 的父 context，Run 期间有效
	tasks   map[Key]*task
	stopped bool
}

func NewSupervisor(cfg SupervisorConfig, table Table, conns []port.Connector) *Supervisor {
	m := make(map[string]port.Connector, len(conns))
	for _, c := range conns {
		m[c.Name()] = c
	}
	return &Supervisor{
		cfg:   cfg,
		table: table,
		conns: m,
		tasks: make(map[Key]*task),
	}
}

// Run starts every exchange independently and blocks until ctx is done.
// On return all watchers have stopped and every connector is closed.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	s.root = ctx
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range s.exchangeNames() {
		conn := s.conns[name]
		g.Go(func() error {
			s.superviseExchange(gctx, conn)
			return nil
		})
	}
	_ = g.Wait()

	<-ctx.Done()
	s.shutdown()
	return ctx.Err()
}

// superviseExchange loads the supported pairs, retrying with its own backoff,
// then starts one watcher per configured pair the venue lists.
func (s *Supervisor) superviseExchange(ctx context.Context, conn port.Connector) {
	ex := conn.Name()
	bo := NewBackoff(s.cfg.BackoffMin, s.cfg.BackoffMax)

	for attempt := 1; ; attempt++ {
		supported, err := conn.LoadSupportedPairs(ctx)
		if err == nil {
			s.startExchange(conn, supported)
			return
		}
		if ctx.Err() != nil {
			return
		}

		delay := bo.Next()
		log.Error().
			Err(err).
			Str("exchange", ex).
			Int("attempt", attempt).
			Int64("backoff_ms", delay.Milliseconds()).
			Msg("load supported pairs failed, retrying")
		if !sleep(ctx, delay) {
			return
		}
	}
}

func (s *Supervisor) startExchange(conn port.Connector, supported map[string]struct{}) {
	ex := conn.Name()
	started := 0
	for _, pair := range s.cfg.Pairs {
		if _, ok := supported[pair]; !ok {
			log.Info().Str("exchange", ex).Str("pair", pair).Msg("pair not listed, skipped")
			continue
		}
		if err := s.start(Key{Pair: pair, Exchange: ex}); err != nil {
			log.Warn().Err(err).Str("exchange", ex).Str("pair", pair).Msg("start feed failed")
			continue
		}
		started++
	}
	log.Info().Str("exchange", ex).Int("feeds", started).Int("listed", len(supported)).Msg("exchange ready")
}

func (s *Supervisor) start(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root == nil || s.stopped {
		return ErrNotRunning
	}
	conn, ok := s.conns[key.Exchange]
	if !ok {
		return fmt.Errorf("%s: %w", key.Exchange, model.ErrUnknownExchange)
	}
	if _, exists := s.tasks[key]; exists {
		return nil
	}

	ctx, cancel := context.WithCancel(s.root)
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[key] = t

	w := NewWatcher(conn, key.Pair, s.table, s.cfg.BackoffMin, s.cfg.BackoffMax)
	go func() {
		defer close(t.done)
		w.Run(ctx)
	}()
	return nil
}

// Stop cancels one feed and waits for it to exit. It reports whether the feed existed.
func (s *Supervisor) Stop(key Key) bool {
	s.mu.Lock()
	t, ok := s.tasks[key]
	delete(s.tasks, key)
	s.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

// Restart stops the feed for key, if running, and starts a fresh watcher.
func (s *Supervisor) Restart(key Key) error {
	s.Stop(key)
	return s.start(key)
}

// Active lists running feeds in (pair, exchange) order.
func (s *Supervisor) Active() []Key {
	s.mu.Lock()
	keys := make([]Key, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Pair != keys[j].Pair {
			return keys[i].Pair < keys[j].Pair
		}
		return keys[i].Exchange < keys[j].Exchange
	})
	return keys
}

func (s *Supervisor) shutdown() {
	s.mu.Lock()
	s.stopped = true
	tasks := s.tasks
	s.tasks = make(map[Key]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}

	// 所有 watcher 退出后再关闭交易所会话
	for _, name := range s.exchangeNames() {
		if err := s.conns[name].Close(); err != nil {
			log.Warn().Err(err).Str("exchange", name).Msg("close connector failed")
		}
	}
	log.Info().Int("feeds", len(tasks)).Msg("feeds stopped")
}

func (s *Supervisor) exchangeNames() []string {
	names := make([]string, 0, len(s.conns))
	for n := range s.conns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
