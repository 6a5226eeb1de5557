package bybit

import (
	"arbwatch/internal/application/port"
	"arbwatch/internal/infrastructure/connector"
	"arbwatch/internal/infrastructure/exchange"
)

// init() 自注册 Bybit connector factory
func init() {
	connector.Register(Name, func(opts exchange.Options) port.Connector {
		return NewConnector(opts)
	})
}
