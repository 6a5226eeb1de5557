package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	appsvc "arbwatch/internal/application/service"
	"arbwatch/internal/domain"
	"arbwatch/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Send(ctx context.Context, destination, text string) error {
	return m.Called(destination, text).Error(0)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newScenario(t *testing.T) (*domain.Board, *appsvc.SettingsService, *mockSink, *fakeClock, *Service) {
	t.Helper()

	board := domain.NewBoard([]string{"X/USDT"})
	settings := appsvc.NewSettingsService(model.DefaultSettings(), nil)
	require.NoError(t, settings.SetAlertDestination(context.Background(), "chat-1"))

	sink := &mockSink{}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	svc := NewService(ServiceDeps{
		Scanner:  appsvc.NewScanner(board),
		Settings: settings,
		Sink:     sink,
		Clock:    clock,
		Interval: time.Second,
	})
	return board, settings, sink, clock, svc
}

func TestCycleScenarioCreateThenCancel(t *testing.T) {
	ctx := context.Background()
	board, _, sink, clock, svc := newScenario(t)

	board.Put("X/USDT", "A", model.Quote{Bid: 100, BidSize: 10, Ask: 101, AskSize: 10})
	board.Put("X/USDT", "B", model.Quote{Bid: 105, BidSize: 10, Ask: 106, AskSize: 10})

	newText := "💰 Arbitrage for X/USDT!\nBuy on A: 101.00000000\nSell on B: 105.00000000\nNet profit: 3.76%\nVolume: $50.00"
	sink.On("Send", "chat-1", newText).Return(nil).Once()
	require.True(t, svc.RunCycle(ctx))
	sink.AssertExpectations(t)

	// B disappears: first miss is silent
	board.Remove("X/USDT", "B")
	clock.Advance(time.Second)
	require.True(t, svc.RunCycle(ctx))
	sink.AssertNumberOfCalls(t, "Send", 1)

	sink.On("Send", "chat-1", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "cancelled") &&
			strings.Contains(text, "Buy on A: 101.00000000") &&
			strings.Contains(text, "Sell on B: 105.00000000")
	})).Return(nil).Once()
	clock.Advance(time.Second)
	require.True(t, svc.RunCycle(ctx))
	sink.AssertNumberOfCalls(t, "Send", 2)

	clock.Advance(time.Second)
	require.True(t, svc.RunCycle(ctx))
	sink.AssertNumberOfCalls(t, "Send", 2)
}

func TestCycleSkippedWithoutDestination(t *testing.T) {
	ctx := context.Background()
	board, settings, sink, _, svc := newScenario(t)
	require.NoError(t, settings.DisableAlerts(ctx))

	board.Put("X/USDT", "A", model.Quote{Bid: 100, BidSize: 10, Ask: 101, AskSize: 10})
	board.Put("X/USDT", "B", model.Quote{Bid: 105, BidSize: 10, Ask: 106, AskSize: 10})

	assert.False(t, svc.RunCycle(ctx))
	sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCycleDispatchFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	board, _, sink, clock, svc := newScenario(t)

	board.Put("X/USDT", "A", model.Quote{Bid: 100, BidSize: 10, Ask: 101, AskSize: 10})
	board.Put("X/USDT", "B", model.Quote{Bid: 105, BidSize: 10, Ask: 106, AskSize: 10})

	sink.On("Send", "chat-1", mock.Anything).Return(errors.New("telegram down")).Once()
	require.True(t, svc.RunCycle(ctx))

	// no retry on the next cycle
	clock.Advance(time.Second)
	require.True(t, svc.RunCycle(ctx))
	sink.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, 1, svc.tracker.Len())
}

type blockingScanner struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingScanner) Scan(model.Settings, time.Time) map[model.OpportunityKey]model.Candidate {
	close(b.entered)
	<-b.release
	return nil
}

type staticSettings model.Settings

func (s staticSettings) Snapshot() model.Settings { return model.Settings(s) }

func TestCyclesNeverOverlap(t *testing.T) {
	cfg := model.DefaultSettings()
	cfg.AlertDestination = "chat"
	sc := &blockingScanner{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(ServiceDeps{Scanner: sc, Settings: staticSettings(cfg), Sink: &mockSink{}, Interval: time.Second})

	done := make(chan bool)
	go func() { done <- svc.RunCycle(context.Background()) }()

	<-sc.entered
	assert.False(t, svc.RunCycle(context.Background()))

	close(sc.release)
	assert.True(t, <-done)
}

func TestRunStopsOnCancel(t *testing.T) {
	_, _, _, _, svc := newScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.Run(ctx), context.Canceled)
}
