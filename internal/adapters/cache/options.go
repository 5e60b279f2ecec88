package cache

import "github.com/lumora/pulse/pkg/logger"

// GatewayOption applies a configuration option to the Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets a logger for cache read/write failures.
func WithLogger(log logger.Logger) GatewayOption {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}
