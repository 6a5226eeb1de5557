package domain

import (
	"sort"
	"strings"
	"sync"

	"arbwatch/internal/domain/model"
)

// Board is the market snapshot table: pair -> exchange -> latest top of book.
// Quotes are stored by value, so a reader never sees a half-updated entry.
type Board struct {
	mu    sync.RWMutex
	order []string                           // ordered pair list
	books map[string]map[string]model.Quote // pair -> exchange -> quote
}

// NewBoard creates a Board for a fixed pair list
func NewBoard(pairs []string) *Board {
	order := make([]string, 0, len(pairs))
	books := make(map[string]map[string]model.Quote, len(pairs))

	for _, p := range pairs {
		u := NormalizePair(p)
		if u == "" {
			continue
		}
		if _, ok := books[u]; ok {
			continue
		}
		order = append(order, u)
		books[u] = make(map[string]model.Quote)
	}

	return &Board{order: order, books: books}
}

// Put replaces the quote for (pair, exchange). Unknown pairs are ignored.
func (b *Board) Put(pair, exchange string, q model.Quote) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	book := b.books[pair]
	if book == nil {
		return false
	}
	book[exchange] = q
	return true
}

// Remove drops the quote for (pair, exchange), e.g. when its feed disconnects.
func (b *Board) Remove(pair, exchange string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if book := b.books[pair]; book != nil {
		delete(book, exchange)
	}
}

// Get returns the current quote for (pair, exchange).
func (b *Board) Get(pair, exchange string) (model.Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.books[pair][exchange]
	return q, ok
}

// Quotes returns a copy of every exchange's quote for one pair.
// The lock covers only this pair's copy, never a whole scan.
func (b *Board) Quotes(pair string) map[string]model.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	book := b.books[pair]
	if len(book) == 0 {
		return nil
	}
	out := make(map[string]model.Quote, len(book))
	for ex, q := range book {
		out[ex] = q
	}
	return out
}

// Pairs returns the ordered pair list
func (b *Board) Pairs() []string {
	result := make([]string, len(b.order))
	copy(result, b.order)
	return result
}

// Exchanges returns the sorted exchange names holding a quote for pair.
func (b *Board) Exchanges(pair string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.books[pair]))
	for ex := range b.books[pair] {
		names = append(names, ex)
	}
	sort.Strings(names)
	return names
}

// NormalizePair upper-cases and trims a "BASE/QUOTE" pair.
// Anything that is not exactly two non-empty parts yields "".
func NormalizePair(p string) string {
	u := strings.ToUpper(strings.TrimSpace(p))
	base, quote, ok := strings.Cut(u, "/")
	if !ok || strings.TrimSpace(base) == "" || strings.TrimSpace(quote) == "" || strings.Contains(quote, "/") {
		return ""
	}
	return strings.TrimSpace(base) + "/" + strings.TrimSpace(quote)
}
