package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
)

type update struct {
	q   model.Quote
	err error
}

type fakeBook struct {
	updates chan update
	closed  chan struct{}
	once    sync.Once
}

func newFakeBook() *fakeBook {
	return &fakeBook{updates: make(chan update, 16), closed: make(chan struct{})}
}

func (b *fakeBook) Next(ctx context.Context) (model.Quote, error) {
	select {
	case <-ctx.Done():
		return model.Quote{}, ctx.Err()
	case <-b.closed:
		return model.Quote{}, errors.New("book closed")
	case u := <-b.updates:
		return u.q, u.err
	}
}

func (b *fakeBook) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

type fakeConn struct {
	name  string
	pairs map[string]struct{}

	mu       sync.Mutex
	loadErrs []error // returned in order before succeeding
	loads    int
	open     func(ctx context.Context, pair string) (port.BookStream, error)

	opened atomic.Int32
	closed atomic.Bool
}

func (c *fakeConn) Name() string { return c.name }

func (c *fakeConn) LoadSupportedPairs(ctx context.Context) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	if len(c.loadErrs) > 0 {
		err := c.loadErrs[0]
		c.loadErrs = c.loadErrs[1:]
		return nil, err
	}
	return c.pairs, nil
}

func (c *fakeConn) OpenBook(ctx context.Context, pair string) (port.BookStream, error) {
	c.opened.Add(1)
	if c.open != nil {
		return c.open(ctx, pair)
	}
	return newFakeBook(), nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *fakeConn) loadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// memTable records the latest quote per key.
type memTable struct {
	mu sync.Mutex
	m  map[Key]model.Quote
}

func newMemTable() *memTable { return &memTable{m: make(map[Key]model.Quote)} }

func (t *memTable) Put(pair, exchange string, q model.Quote) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[Key{pair, exchange}] = q
	return true
}

func (t *memTable) Remove(pair, exchange string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, Key{pair, exchange})
}

func (t *memTable) Get(pair, exchange string) (model.Quote, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.m[Key{pair, exchange}]
	return q, ok
}
