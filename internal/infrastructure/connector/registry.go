package connector

import (
	"fmt"
	"sort"
	"sync"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
	"arbwatch/internal/infrastructure/exchange"

	"github.com/rs/zerolog/log"
)

// Factory builds a connector from the venue's connection options
type Factory func(opts exchange.Options) port.Connector

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register 注册一个交易所 connector factory
// 由各个交易所包的 init() 调用完成自注册
func Register(exchangeName string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", exchangeName).Msg("invalid connector factory")
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[exchangeName]; exists {
		log.Warn().Str("exchange", exchangeName).Msg("connector factory already registered, overwriting")
	}
	registry[exchangeName] = factory
}

// Get 获取已注册的 connector factory
func Get(exchangeName string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := registry[exchangeName]
	return factory, ok
}

// New builds the connector registered under exchangeName.
func New(exchangeName string, opts exchange.Options) (port.Connector, error) {
	factory, ok := Get(exchangeName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", exchangeName, model.ErrUnknownExchange)
	}
	return factory(opts), nil
}

// Names lists registered exchanges in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
