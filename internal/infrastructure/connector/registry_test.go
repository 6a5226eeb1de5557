package connector

import (
	"context"
	"testing"

	"arbwatch/internal/application/port"
	"arbwatch/internal/domain/model"
	"arbwatch/internal/infrastructure/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnector struct{ opts exchange.Options }

func (s *stubConnector) Name() string { return "stub" }
func (s *stubConnector) LoadSupportedPairs(context.Context) (map[string]struct{}, error) {
	return nil, nil
}
func (s *stubConnector) OpenBook(context.Context, string) (port.BookStream, error) { return nil, nil }
func (s *stubConnector) Close() error                                              { return nil }

func TestRegisterAndNew(t *testing.T) {
	Register("stub", func(opts exchange.Options) port.Connector { return &stubConnector{opts: opts} })
	Register("nil", nil)

	c, err := New("stub", exchange.Options{WsURL: "wss://example"})
	require.NoError(t, err)
	assert.Equal(t, "wss://example", c.(*stubConnector).opts.WsURL)

	_, err = New("nil", exchange.Options{})
	assert.ErrorIs(t, err, model.ErrUnknownExchange)
	assert.Contains(t, Names(), "stub")
}
