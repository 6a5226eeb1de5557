package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Pairs:      []string{"BTC/USDT", "ETH/USDT", "XYZ/USDT"},
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}
}

func TestSupervisorStartsSupportedPairs(t *testing.T) {
	a := &fakeConn{name: "a", pairs: map[string]struct{}{"BTC/USDT": {}, "ETH/USDT": {}}}
	b := &fakeConn{
		name:     "b",
		pairs:    map[string]struct{}{"BTC/USDT": {}},
		loadErrs: []error{errors.New("503"), errors.New("503")},
	}

	sup := NewSupervisor(testSupervisorConfig(), newMemTable(), []port.Connector{a, b})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	want := []Key{
		{Pair: "BTC/USDT", Exchange: "a"},
		{Pair: "BTC/USDT", Exchange: "b"},
		{Pair: "ETH/USDT", Exchange: "a"},
	}
	require.Eventually(t, func() bool { return assert.ObjectsAreEqual(want, sup.Active()) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, b.loadCount())
	assert.Equal(t, 1, a.loadCount())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, sup.Active())
	assert.True(t, a.closed.Load())
	assert.True(t, b.closed.Load())
}

func TestSupervisorStopAndRestart(t *testing.T) {
	a := &fakeConn{name: "a", pairs: map[string]struct{}{"BTC/USDT": {}}}
	table := newMemTable()
	sup := NewSupervisor(testSupervisorConfig(), table, []port.Connector{a})

	key := Key{Pair: "BTC/USDT", Exchange: "a"}
	assert.ErrorIs(t, sup.Restart(key), ErrNotRunning)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sup.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sup.Active()) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return a.opened.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, sup.Restart(key))
	require.Eventually(t, func() bool { return a.opened.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Key{key}, sup.Active())

	assert.True(t, sup.Stop(key))
	assert.False(t, sup.Stop(key))
	assert.Empty(t, sup.Active())

	assert.ErrorIs(t, sup.Restart(Key{Pair: "BTC/USDT", Exchange: "nope"}), model.ErrUnknownExchange)
}

func TestSupervisorExchangesIndependent(t *testing.T) {
	// a never loads; b must still come up
	a := &fakeConn{name: "a", loadErrs: make([]error, 1000)}
	for i := range a.loadErrs {
		a.loadErrs[i] = errors.New("down")
	}
	b := &fakeConn{name: "b", pairs: map[string]struct{}{"ETH/USDT": {}}}

	sup := NewSupervisor(testSupervisorConfig(), newMemTable(), []port.Connector{a, b})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]Key{{Pair: "ETH/USDT", Exchange: "b"}}, sup.Active())
	}, time.Second, 5*time.Millisecond)
}
